package narrative

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Yates-Labs/talecraft/internal/story"
)

// DefaultSummaryThreshold is the previous-episode length, in characters,
// above which the text is replaced by its summary.
const DefaultSummaryThreshold = 2000

const summaryInstructions = `You are an expert at summarizing serialized fiction. Write a summary that lets readers feel the appeal of the story.

# Approach
- Capture the main flow of the story so the reader understands the whole.
- Briefly explain the important characters, their relationships and how they grew.
- Keep the atmosphere and tone of the original.
- Use about five paragraphs for long stories and about three for short ones.

# Include
- The protagonist's goal and the challenges they face
- Major turning points and important events
- Significant changes in relationships between characters
- How the story so far ends

# Avoid
- Excessive detail or digressions
- An explanatory style that spoils the fun of the story
- Trying to cover every foreshadowing or minor development
- Subjective judgements

Return the summary in the summary field, written in the same language as the story.`

// Summarizer condenses previous-episode text before prompt composition.
type Summarizer struct {
	gen       *Generator
	threshold int
}

// NewSummarizer creates a summarizer. Text at or below threshold characters is
// left untouched; threshold <= 0 disables summarization.
func NewSummarizer(gen *Generator, threshold int) *Summarizer {
	return &Summarizer{gen: gen, threshold: threshold}
}

// Summarize returns a summary of text.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: text to summarize is required", ErrGenerationFailed)
	}

	messages := []Message{
		SystemMessage(summaryInstructions),
		UserMessage(text),
	}

	var out SummaryOutput
	if err := s.gen.Generate(ctx, messages, SummarySchema, &out); err != nil {
		return "", fmt.Errorf("summarize previous episode: %w", err)
	}
	return out.Summary, nil
}

// Condense replaces ep.PreviousEpisodeContent with its summary when the text
// is longer than the threshold. It reports whether a replacement happened.
func (s *Summarizer) Condense(ctx context.Context, ep *story.EpisodeContext) (bool, error) {
	if s == nil || s.gen == nil || s.threshold <= 0 || ep == nil {
		return false, nil
	}
	if utf8.RuneCountInString(ep.PreviousEpisodeContent) <= s.threshold {
		return false, nil
	}

	summary, err := s.Summarize(ctx, ep.PreviousEpisodeContent)
	if err != nil {
		return false, err
	}
	ep.PreviousEpisodeContent = summary
	return true, nil
}
