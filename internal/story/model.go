// Package story defines the structured inputs of an episode generation run:
// the story, the episode being written and the cast of characters. Records are
// immutable for the lifetime of a run, except that the previous-episode text
// may be replaced by its summary once before prompt composition.
package story

// ContinuityType describes how an episode relates to the one before it.
type ContinuityType string

const (
	ContinuitySequential  ContinuityType = "sequential"
	ContinuityIndependent ContinuityType = "independent"
	ContinuityParallel    ContinuityType = "parallel"
)

// StoryContext is the world and premise an episode is written in.
type StoryContext struct {
	Title         string `json:"title" yaml:"title"`
	Background    string `json:"background" yaml:"background"`
	Summary       string `json:"summary" yaml:"summary"`
	Genre         string `json:"genre,omitempty" yaml:"genre,omitempty"`
	Theme         string `json:"theme,omitempty" yaml:"theme,omitempty"`
	WorldSettings string `json:"worldSettings,omitempty" yaml:"worldSettings,omitempty"`
}

// EpisodeContext describes the episode to be generated.
type EpisodeContext struct {
	Title string `json:"title" yaml:"title"`

	// EpisodeNumber is optional; zero means unnumbered.
	EpisodeNumber int `json:"episodeNumber,omitempty" yaml:"episodeNumber,omitempty"`

	ContinuityType ContinuityType `json:"continuityType" yaml:"continuityType"`

	// AdditionalElements is the free-text key element the episode should emphasize.
	AdditionalElements string `json:"additionalElements" yaml:"additionalElements"`

	// PreviousEpisodeContent holds the prior episode text, or its summary once
	// the compose stage has condensed it.
	PreviousEpisodeContent string `json:"previousEpisodeContent,omitempty" yaml:"previousEpisodeContent,omitempty"`
}

// Relationship is a directed relationship from one character to another.
type Relationship struct {
	TargetCharacterName string `json:"targetCharacterName" yaml:"targetCharacterName"`
	RelationshipType    string `json:"relationshipType" yaml:"relationshipType"`
	Description         string `json:"description,omitempty" yaml:"description,omitempty"`
}

// CharacterProfile is one member of the cast.
type CharacterProfile struct {
	Name           string         `json:"name" yaml:"name"`
	Age            string         `json:"age" yaml:"age"`
	Gender         string         `json:"gender,omitempty" yaml:"gender,omitempty"`
	Role           string         `json:"role,omitempty" yaml:"role,omitempty"`
	Importance     string         `json:"importance,omitempty" yaml:"importance,omitempty"`
	Description    string         `json:"description,omitempty" yaml:"description,omitempty"`
	IsProtagonist  bool           `json:"isProtagonist" yaml:"isProtagonist"`
	Personality    string         `json:"personality,omitempty" yaml:"personality,omitempty"`
	Appearance     string         `json:"appearance,omitempty" yaml:"appearance,omitempty"`
	Motivation     string         `json:"motivation,omitempty" yaml:"motivation,omitempty"`
	Backstory      string         `json:"backstory,omitempty" yaml:"backstory,omitempty"`
	SpeechStyle    string         `json:"speech_style,omitempty" yaml:"speech_style,omitempty"`
	TypicalActions []string       `json:"typical_actions,omitempty" yaml:"typical_actions,omitempty"`
	Relationships  []Relationship `json:"relationships,omitempty" yaml:"relationships,omitempty"`
}

// Input is everything a pipeline run starts from.
type Input struct {
	Story      StoryContext       `json:"story" yaml:"story"`
	Episode    EpisodeContext     `json:"episode" yaml:"episode"`
	Characters []CharacterProfile `json:"characters" yaml:"characters"`

	// Recipient is the user the finished episode is delivered to.
	Recipient string `json:"recipient,omitempty" yaml:"recipient,omitempty"`
}

// HasRelationships reports whether any character declares at least one relationship.
func HasRelationships(characters []CharacterProfile) bool {
	for _, c := range characters {
		if len(c.Relationships) > 0 {
			return true
		}
	}
	return false
}
