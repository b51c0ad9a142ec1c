package story

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidation marks malformed input to a pure step.
var ErrValidation = errors.New("validation failed")

func missing(field string) error {
	return fmt.Errorf("%w: %s is required", ErrValidation, field)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Validate checks the required story fields.
func (s StoryContext) Validate() error {
	switch {
	case blank(s.Title):
		return missing("story.title")
	case blank(s.Background):
		return missing("story.background")
	case blank(s.Summary):
		return missing("story.summary")
	}
	return nil
}

// Validate checks the required episode fields. Unknown continuity types are
// accepted; they simply render no continuity phrase.
func (e EpisodeContext) Validate() error {
	if blank(e.Title) {
		return missing("episode.title")
	}
	if e.EpisodeNumber < 0 {
		return fmt.Errorf("%w: episode.episodeNumber must not be negative", ErrValidation)
	}
	return nil
}

// Validate checks the required character fields, including every relationship.
func (c CharacterProfile) Validate() error {
	if blank(c.Name) {
		return missing("character.name")
	}
	if blank(c.Age) {
		return missing(fmt.Sprintf("character %q age", c.Name))
	}
	for i, r := range c.Relationships {
		if blank(r.TargetCharacterName) {
			return missing(fmt.Sprintf("character %q relationships[%d].targetCharacterName", c.Name, i))
		}
		if blank(r.RelationshipType) {
			return missing(fmt.Sprintf("character %q relationships[%d].relationshipType", c.Name, i))
		}
	}
	return nil
}

// ValidateCharacters validates each profile and rejects duplicate names, since
// evaluations are keyed by character name.
func ValidateCharacters(characters []CharacterProfile) error {
	seen := make(map[string]struct{}, len(characters))
	for _, c := range characters {
		if err := c.Validate(); err != nil {
			return err
		}
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("%w: duplicate character name %q", ErrValidation, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// Validate checks the whole run input.
func (in Input) Validate() error {
	if err := in.Story.Validate(); err != nil {
		return err
	}
	if err := in.Episode.Validate(); err != nil {
		return err
	}
	return ValidateCharacters(in.Characters)
}
