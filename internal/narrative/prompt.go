package narrative

import (
	"fmt"
	"strings"

	"github.com/Yates-Labs/talecraft/internal/story"
)

// DefaultLanguage is the language episodes are written in unless configured otherwise.
const DefaultLanguage = "Japanese"

var continuityPhrases = map[story.ContinuityType]string{
	story.ContinuitySequential:  "Sequential episode (continues directly from the previous episode)",
	story.ContinuityIndependent: "Standalone episode (can be read without the previous episodes)",
	story.ContinuityParallel:    "Parallel episode (takes place alongside the previous episode)",
}

// ContinuityPhrase returns the human-readable phrase for a continuity type,
// or an empty string for unknown values.
func ContinuityPhrase(t story.ContinuityType) string {
	return continuityPhrases[t]
}

// Composer builds the episode generation prompt.
type Composer struct {
	// Language the episode should be written in.
	Language string
}

// NewComposer returns a composer writing in the given language.
func NewComposer(language string) *Composer {
	if strings.TrimSpace(language) == "" {
		language = DefaultLanguage
	}
	return &Composer{Language: language}
}

// ComposePrompt builds the episode prompt in the default language.
func ComposePrompt(s story.StoryContext, ep story.EpisodeContext, characters []story.CharacterProfile) (string, error) {
	return NewComposer(DefaultLanguage).Compose(s, ep, characters)
}

// Compose validates its inputs and assembles the prompt. Section order is
// fixed: header, story, episode, previous episode (optional), characters,
// relationships (optional), guidelines.
func (c *Composer) Compose(s story.StoryContext, ep story.EpisodeContext, characters []story.CharacterProfile) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	if err := ep.Validate(); err != nil {
		return "", err
	}
	if err := story.ValidateCharacters(characters); err != nil {
		return "", err
	}

	var b strings.Builder

	b.WriteString("# Episode Writing Request\n\n")
	b.WriteString("You are a professional story writer. ")
	b.WriteString("Write the next episode of the story below, staying faithful to the established world and characters.\n\n")

	writeStory(&b, s)
	writeEpisode(&b, ep)

	if strings.TrimSpace(ep.PreviousEpisodeContent) != "" {
		b.WriteString("# Previous Episode\n\n")
		b.WriteString(ep.PreviousEpisodeContent)
		b.WriteString("\n\n")
	}

	b.WriteString("# Characters\n\n")
	if len(characters) == 0 {
		b.WriteString("- (none)\n\n")
	}
	for i, ch := range characters {
		writeCharacter(&b, i+1, ch)
	}

	if story.HasRelationships(characters) {
		b.WriteString("# Relationships\n\n")
		for _, ch := range characters {
			for _, r := range ch.Relationships {
				b.WriteString(relationshipLine(ch.Name, r))
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}

	c.writeGuidelines(&b)

	return b.String(), nil
}

func writeStory(b *strings.Builder, s story.StoryContext) {
	b.WriteString("# Story\n\n")
	b.WriteString(fmt.Sprintf("**Title:** %s\n\n", s.Title))
	b.WriteString(fmt.Sprintf("**Background:** %s\n\n", s.Background))
	b.WriteString(fmt.Sprintf("**Summary:** %s\n\n", s.Summary))
	writeOptional(b, "**Genre:** %s\n\n", s.Genre)
	writeOptional(b, "**Theme:** %s\n\n", s.Theme)
	writeOptional(b, "**World Settings:** %s\n\n", s.WorldSettings)
}

func writeEpisode(b *strings.Builder, ep story.EpisodeContext) {
	b.WriteString("# Episode\n\n")
	b.WriteString(fmt.Sprintf("**Title:** %s\n\n", ep.Title))
	if ep.EpisodeNumber > 0 {
		b.WriteString(fmt.Sprintf("**Episode Number:** %d\n\n", ep.EpisodeNumber))
	}
	b.WriteString(fmt.Sprintf("**Continuity:** %s\n\n", ContinuityPhrase(ep.ContinuityType)))
	b.WriteString(fmt.Sprintf("**Key Element to Emphasize:** %s\n\n", ep.AdditionalElements))
}

func writeCharacter(b *strings.Builder, n int, ch story.CharacterProfile) {
	heading := fmt.Sprintf("## %d. %s", n, ch.Name)
	if ch.IsProtagonist {
		heading += " (Protagonist)"
	}
	b.WriteString(heading + "\n\n")

	b.WriteString(fmt.Sprintf("- **Age:** %s\n", ch.Age))
	writeOptional(b, "- **Gender:** %s\n", ch.Gender)
	writeOptional(b, "- **Role:** %s\n", ch.Role)
	writeOptional(b, "- **Importance:** %s\n", ch.Importance)
	writeOptional(b, "- **Description:** %s\n", ch.Description)
	writeOptional(b, "- **Personality:** %s\n", ch.Personality)
	writeOptional(b, "- **Appearance:** %s\n", ch.Appearance)
	writeOptional(b, "- **Motivation:** %s\n", ch.Motivation)
	writeOptional(b, "- **Backstory:** %s\n", ch.Backstory)
	writeOptional(b, "- **Speech Style:** %s\n", ch.SpeechStyle)
	if len(ch.TypicalActions) > 0 {
		b.WriteString(fmt.Sprintf("- **Typical Actions:** %s\n", strings.Join(ch.TypicalActions, ", ")))
	}
	b.WriteString("\n")
}

func relationshipLine(from string, r story.Relationship) string {
	line := fmt.Sprintf("- %s → %s: %s", from, r.TargetCharacterName, r.RelationshipType)
	if strings.TrimSpace(r.Description) != "" {
		line += " (" + r.Description + ")"
	}
	return line
}

func (c *Composer) writeGuidelines(b *strings.Builder) {
	b.WriteString("# Writing Guidelines\n\n")
	b.WriteString("1. **Structure:** Give the episode a clear introduction, development, climax and resolution.\n")
	b.WriteString("2. **Dialogue:** Write natural dialogue that reflects each character's speech style.\n")
	b.WriteString("3. **Description:** Depict scenes and emotions vividly so readers can picture the story.\n")
	b.WriteString("4. **Continuity:** Respect the continuity described above and never contradict the character settings.\n")
	b.WriteString("5. **Focus:** Make the key element central to the episode.\n")
	b.WriteString("6. **Length:** About 1000 to 2000 characters.\n\n")
	b.WriteString("Write the episode in " + c.Language + ". ")
	b.WriteString("Return only the episode text in the content field.\n")
}

func writeOptional(b *strings.Builder, format, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	b.WriteString(fmt.Sprintf(format, value))
}
