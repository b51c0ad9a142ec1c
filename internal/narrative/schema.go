package narrative

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/invopop/jsonschema"
)

// Validator is implemented by every structured output type. Validate enforces
// the rules a JSON schema cannot express (cross-field conditions, character
// counts) and may normalize the value in place.
type Validator interface {
	Validate() error
}

// Schema names a structured output and carries its JSON schema definition.
type Schema struct {
	Name        string
	Description string
	Definition  *jsonschema.Schema
}

// SchemaFor reflects the JSON schema of T from its struct and jsonschema tags.
func SchemaFor[T any](name, description string) *Schema {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	var zero T
	def := reflector.Reflect(zero)
	def.Version = ""
	def.ID = ""

	return &Schema{
		Name:        name,
		Description: description,
		Definition:  def,
	}
}

// ContentOutput is the structured output of episode generation and revision.
type ContentOutput struct {
	Content string `json:"content" jsonschema_description:"The complete episode text"`
}

// Validate requires non-empty content.
func (c *ContentOutput) Validate() error {
	if strings.TrimSpace(c.Content) == "" {
		return NewFieldError("content", "must not be empty")
	}
	return nil
}

// ContentSchema is the output schema of the generation and revision calls.
var ContentSchema = SchemaFor[ContentOutput]("episode_content", "A generated or revised episode")

// SummaryOutput is the structured output of previous-episode summarization.
type SummaryOutput struct {
	Summary string `json:"summary" jsonschema_description:"Reader-facing summary of the story so far"`
}

// Validate requires a non-empty summary.
func (s *SummaryOutput) Validate() error {
	if strings.TrimSpace(s.Summary) == "" {
		return NewFieldError("summary", "must not be empty")
	}
	return nil
}

// SummarySchema is the output schema of the summarization call.
var SummarySchema = SchemaFor[SummaryOutput]("story_summary", "A summary of the previous episodes")

// FieldError describes one field of a structured output that broke its schema.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Reason
}

// NewFieldError reports a schema violation on one field.
func NewFieldError(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

// RequireText checks a required string field against a maximum length counted
// in characters. max <= 0 disables the length check.
func RequireText(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return NewFieldError(field, "is required")
	}
	return LimitText(field, value, max)
}

// LimitText checks an optional string field against a maximum length counted
// in characters.
func LimitText(field, value string, max int) error {
	if max > 0 && utf8.RuneCountInString(value) > max {
		return NewFieldError(field, "exceeds "+strconv.Itoa(max)+" characters")
	}
	return nil
}

// RequireRange checks an integer field against an inclusive range.
func RequireRange(field string, value, min, max int) error {
	if value < min || value > max {
		return NewFieldError(field, "must be between "+strconv.Itoa(min)+" and "+strconv.Itoa(max))
	}
	return nil
}
