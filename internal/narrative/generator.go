package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrGenerationFailed = errors.New("narrative generation failed")

	// ErrSchemaValidation marks model output that does not conform to the
	// declared output schema. It is surfaced to the caller and never retried.
	ErrSchemaValidation = errors.New("output schema validation failed")
)

// Generator invokes an LLM with role-tagged messages and validates the raw
// output against a locally declared schema. It performs no business logic and
// is safe for concurrent use when the underlying LLM is.
type Generator struct {
	llm    LLM
	config LLMConfig
}

// NewGenerator creates a generator with the given LLM implementation.
func NewGenerator(llm LLM, config LLMConfig) *Generator {
	return &Generator{
		llm:    llm,
		config: config,
	}
}

// Model returns the model identifier the generator was configured with.
func (g *Generator) Model() string {
	return g.config.Model
}

// Generate sends messages to the LLM, decodes the output into out and runs its
// validation. Decoding and validation failures wrap ErrSchemaValidation.
func (g *Generator) Generate(ctx context.Context, messages []Message, schema *Schema, out Validator) error {
	if g.llm == nil {
		return fmt.Errorf("%w: LLM is required", ErrGenerationFailed)
	}
	if len(messages) == 0 {
		return fmt.Errorf("%w: at least one message is required", ErrGenerationFailed)
	}
	if schema == nil || out == nil {
		return fmt.Errorf("%w: output schema and target are required", ErrGenerationFailed)
	}

	raw, err := g.llm.Generate(ctx, Request{Messages: messages, Schema: schema})
	if err != nil {
		return fmt.Errorf("%w: LLM invocation failed: %w", ErrGenerationFailed, err)
	}

	if err := decodeStrict(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSchemaValidation, schema.Name, err)
	}
	if err := out.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSchemaValidation, schema.Name, err)
	}
	return nil
}

// GenerateContent asks for a single episode text from a user prompt.
func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt is required", ErrGenerationFailed)
	}

	var out ContentOutput
	if err := g.Generate(ctx, []Message{UserMessage(prompt)}, ContentSchema, &out); err != nil {
		return "", err
	}
	return out.Content, nil
}

// decodeStrict decodes exactly one JSON document, rejecting unknown fields and
// trailing data. A surrounding markdown code fence is tolerated.
func decodeStrict(raw string, out any) error {
	body := stripCodeFence(strings.TrimSpace(raw))
	if body == "" {
		return errors.New("empty output")
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode output: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after JSON document")
	}
	return nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
