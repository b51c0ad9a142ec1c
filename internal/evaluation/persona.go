package evaluation

import (
	"fmt"
	"strings"

	"github.com/Yates-Labs/talecraft/internal/story"
)

// Persona is the character-scoped configuration of one evaluation call. It is
// passed by value and owns copies of its slices, so concurrent calls never
// share mutable state.
type Persona struct {
	Name           string
	Age            string
	Gender         string
	Role           string
	Importance     string
	Description    string
	IsProtagonist  bool
	Personality    string
	Appearance     string
	Motivation     string
	Backstory      string
	SpeechStyle    string
	TypicalActions []string
	Relationships  []story.Relationship
}

// NewPersona copies every profile field into a persona.
func NewPersona(c story.CharacterProfile) Persona {
	p := Persona{
		Name:          c.Name,
		Age:           c.Age,
		Gender:        c.Gender,
		Role:          c.Role,
		Importance:    c.Importance,
		Description:   c.Description,
		IsProtagonist: c.IsProtagonist,
		Personality:   c.Personality,
		Appearance:    c.Appearance,
		Motivation:    c.Motivation,
		Backstory:     c.Backstory,
		SpeechStyle:   c.SpeechStyle,
	}
	if len(c.TypicalActions) > 0 {
		p.TypicalActions = append([]string(nil), c.TypicalActions...)
	}
	if len(c.Relationships) > 0 {
		p.Relationships = append([]story.Relationship(nil), c.Relationships...)
	}
	return p
}

// Instructions renders the system prompt that puts the model in character.
func (p Persona) Instructions() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("You are %s, a character in this story. ", p.Name))
	b.WriteString("Read the episode you are given and evaluate it from your own point of view.\n\n")

	b.WriteString("## Who You Are\n")
	b.WriteString(fmt.Sprintf("- Name: %s\n", p.Name))
	b.WriteString(fmt.Sprintf("- Age: %s\n", p.Age))
	line(&b, "Gender", p.Gender)
	role := p.Role
	if role == "" {
		role = "undefined"
	}
	b.WriteString(fmt.Sprintf("- Role: %s\n", role))
	line(&b, "Importance", p.Importance)
	if p.IsProtagonist {
		b.WriteString("- You are the protagonist\n")
	}
	line(&b, "Description", p.Description)
	line(&b, "Personality", p.Personality)
	line(&b, "Appearance", p.Appearance)
	line(&b, "Motivation", p.Motivation)
	line(&b, "Backstory", p.Backstory)
	line(&b, "Speech style", p.SpeechStyle)
	if len(p.TypicalActions) > 0 {
		b.WriteString(fmt.Sprintf("- Typical actions: %s\n", strings.Join(p.TypicalActions, ", ")))
	}
	if len(p.Relationships) > 0 {
		b.WriteString("\n## Your Relationships\n")
		for _, r := range p.Relationships {
			entry := fmt.Sprintf("- %s: %s", r.TargetCharacterName, r.RelationshipType)
			if r.Description != "" {
				entry += " (" + r.Description + ")"
			}
			b.WriteString(entry + "\n")
		}
	}

	b.WriteString("\n## Criteria (score each 1-5)\n")
	b.WriteString("1. characterAccuracy: Are your personality, speech and behaviour portrayed faithfully?\n")
	b.WriteString("2. motivationConsistency: Do your actions follow from your motivation?\n")
	b.WriteString("3. roleAppropriateness: Is your role fulfilled and is your importance reflected?\n")
	b.WriteString("4. relationshipDepiction: Are your interactions with other characters natural and consistent with your relationships?\n")
	b.WriteString("5. emotionalAuthenticity: Are your emotions and inner life believable?\n\n")

	b.WriteString("## Rules\n")
	b.WriteString("- totalScore is the average of the five scores, with exactly one decimal place.\n")
	b.WriteString(fmt.Sprintf("- Speak in the first person as %s, in your own tone of voice.\n", p.Name))
	b.WriteString("- Be honest and constructive.\n")
	b.WriteString("- When totalScore is below 3.5, improvements is mandatory and must be concrete.\n")
	b.WriteString("- Respect the character limits of every text field.\n")

	return b.String()
}

func line(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	b.WriteString(fmt.Sprintf("- %s: %s\n", label, value))
}
