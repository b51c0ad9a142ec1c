package narrative

import (
	"errors"
	"strings"
	"testing"

	"github.com/Yates-Labs/talecraft/internal/story"
)

func scenarioInput() (story.StoryContext, story.EpisodeContext, []story.CharacterProfile) {
	s := story.StoryContext{Title: "T", Background: "B", Summary: "S"}
	ep := story.EpisodeContext{
		Title:              "E1",
		AdditionalElements: "betrayal",
		ContinuityType:     story.ContinuityIndependent,
	}
	chars := []story.CharacterProfile{
		{Name: "Ann", Age: "20", Description: "hero", IsProtagonist: true},
	}
	return s, ep, chars
}

func TestComposePrompt_Scenario(t *testing.T) {
	s, ep, chars := scenarioInput()

	prompt, err := ComposePrompt(s, ep, chars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{
		"**Title:** T",
		"**Title:** E1",
		"betrayal",
		"Standalone episode",
		"## 1. Ann (Protagonist)",
		"- **Description:** hero",
		"- **Age:** 20",
	}
	for _, want := range expected {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestComposePrompt_OmitsAbsentOptionalFields(t *testing.T) {
	s, ep, chars := scenarioInput()

	prompt, err := ComposePrompt(s, ep, chars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	absent := []string{
		"**Genre:**",
		"**Theme:**",
		"**World Settings:**",
		"**Episode Number:**",
		"- **Gender:**",
		"- **Role:**",
		"- **Personality:**",
		"- **Speech Style:**",
		"- **Typical Actions:**",
		"# Previous Episode",
		"# Relationships",
		"undefined",
		"<nil>",
	}
	for _, a := range absent {
		if strings.Contains(prompt, a) {
			t.Errorf("prompt should not contain %q", a)
		}
	}
}

func TestComposePrompt_IncludesPresentOptionalFields(t *testing.T) {
	s, ep, chars := scenarioInput()
	s.Genre = "fantasy"
	s.WorldSettings = "floating islands"
	ep.EpisodeNumber = 4
	chars[0].Gender = "female"
	chars[0].SpeechStyle = "formal"
	chars[0].TypicalActions = []string{"sharpens her sword", "hums"}

	prompt, err := ComposePrompt(s, ep, chars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{
		"**Genre:** fantasy",
		"**World Settings:** floating islands",
		"**Episode Number:** 4",
		"- **Gender:** female",
		"- **Speech Style:** formal",
		"- **Typical Actions:** sharpens her sword, hums",
	}
	for _, want := range expected {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestContinuityPhrase(t *testing.T) {
	tests := []struct {
		continuity story.ContinuityType
		want       string
	}{
		{story.ContinuitySequential, "Sequential episode"},
		{story.ContinuityIndependent, "Standalone episode"},
		{story.ContinuityParallel, "Parallel episode"},
		{"spinoff", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.continuity), func(t *testing.T) {
			got := ContinuityPhrase(tt.continuity)
			if tt.want == "" {
				if got != "" {
					t.Errorf("expected empty phrase, got %q", got)
				}
				return
			}
			if !strings.HasPrefix(got, tt.want) {
				t.Errorf("expected phrase starting with %q, got %q", tt.want, got)
			}
		})
	}
}

func TestComposePrompt_UnknownContinuity(t *testing.T) {
	s, ep, chars := scenarioInput()
	ep.ContinuityType = "spinoff"

	prompt, err := ComposePrompt(s, ep, chars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(prompt, "**Continuity:** \n") {
		t.Error("expected an empty continuity phrase for unknown type")
	}
}

func TestComposePrompt_Relationships(t *testing.T) {
	s, ep, _ := scenarioInput()
	chars := []story.CharacterProfile{
		{Name: "Ann", Age: "20", IsProtagonist: true},
		{Name: "Bo", Age: "22"},
	}

	prompt, err := ComposePrompt(s, ep, chars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(prompt, "# Relationships") {
		t.Fatal("no relationships section expected without relationships")
	}

	chars[0].Relationships = []story.Relationship{
		{TargetCharacterName: "Bo", RelationshipType: "rival", Description: "since childhood"},
	}
	prompt, err = ComposePrompt(s, ep, chars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	idx := strings.Index(prompt, "# Relationships\n")
	if idx < 0 {
		t.Fatal("expected relationships section")
	}
	section := prompt[idx:]
	if end := strings.Index(section, "# Writing Guidelines"); end >= 0 {
		section = section[:end]
	}

	var lines []string
	for _, line := range strings.Split(section, "\n") {
		if strings.HasPrefix(line, "- ") {
			lines = append(lines, line)
		}
	}
	if len(lines) != 1 {
		t.Fatalf("expected exactly one relationship line, got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "Ann") || !strings.Contains(lines[0], "Bo") {
		t.Errorf("relationship line should name both characters: %q", lines[0])
	}
	if !strings.Contains(lines[0], "rival") || !strings.Contains(lines[0], "since childhood") {
		t.Errorf("relationship line should carry type and description: %q", lines[0])
	}
}

func TestComposePrompt_SectionOrder(t *testing.T) {
	s, ep, chars := scenarioInput()
	s.Genre = "mystery"
	ep.PreviousEpisodeContent = "Ann found a letter."
	chars = append(chars, story.CharacterProfile{
		Name: "Bo", Age: "22",
		Relationships: []story.Relationship{{TargetCharacterName: "Ann", RelationshipType: "mentor"}},
	})

	prompt, err := ComposePrompt(s, ep, chars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	headers := []string{
		"# Episode Writing Request",
		"\n# Story\n",
		"\n# Episode\n",
		"\n# Previous Episode\n",
		"\n# Characters\n",
		"\n# Relationships\n",
		"\n# Writing Guidelines\n",
	}
	last := -1
	for _, h := range headers {
		idx := strings.Index(prompt, h)
		if idx < 0 {
			t.Fatalf("missing section %q", h)
		}
		if idx <= last {
			t.Errorf("section %q is out of order", h)
		}
		last = idx
	}

	if !strings.Contains(prompt, "# Previous Episode\n\nAnn found a letter.\n") {
		t.Error("previous episode text should be included verbatim")
	}
}

func TestComposePrompt_Language(t *testing.T) {
	s, ep, chars := scenarioInput()

	prompt, err := NewComposer("English").Compose(s, ep, chars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(prompt, "Write the episode in English.") {
		t.Error("expected configured language in guidelines")
	}

	if NewComposer("").Language != DefaultLanguage {
		t.Error("expected default language for empty input")
	}
}

func TestComposePrompt_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *story.StoryContext, ep *story.EpisodeContext, chars []story.CharacterProfile)
	}{
		{name: "missing story title", mutate: func(s *story.StoryContext, ep *story.EpisodeContext, chars []story.CharacterProfile) { s.Title = "" }},
		{name: "missing episode title", mutate: func(s *story.StoryContext, ep *story.EpisodeContext, chars []story.CharacterProfile) { ep.Title = "" }},
		{name: "missing character name", mutate: func(s *story.StoryContext, ep *story.EpisodeContext, chars []story.CharacterProfile) { chars[0].Name = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ep, chars := scenarioInput()
			tt.mutate(&s, &ep, chars)
			_, err := ComposePrompt(s, ep, chars)
			if !errors.Is(err, story.ErrValidation) {
				t.Errorf("expected story.ErrValidation, got %v", err)
			}
		})
	}
}
