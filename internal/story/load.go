package story

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadInput reads a run input from a YAML (or JSON) file and validates it.
func LoadInput(path string) (*Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	return DecodeInput(f)
}

// DecodeInput decodes a run input document. Unknown keys are rejected so that
// typos in optional fields do not silently drop data.
func DecodeInput(r io.Reader) (*Input, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var in Input
	if err := dec.Decode(&in); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: input document is empty", ErrValidation)
		}
		return nil, fmt.Errorf("%w: decode input: %v", ErrValidation, err)
	}
	if in.Characters == nil {
		in.Characters = []CharacterProfile{}
	}

	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &in, nil
}
