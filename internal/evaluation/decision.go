package evaluation

import (
	"fmt"
	"math"
	"strings"
)

// Band thresholds. Revision is required iff at least one evaluation is low.
const (
	LowBandBelow  = 4.0
	HighBandFrom  = 4.5
	noneLine      = "(none)"
	revisionTitle = "Revise the following episode based on the evaluations and suggestions from its characters."
)

// Band partitions evaluations by total score.
type Band int

const (
	BandLow  Band = iota // totalScore < 4.0
	BandMid              // 4.0 <= totalScore < 4.5
	BandHigh             // totalScore >= 4.5
)

func (b Band) String() string {
	switch b {
	case BandLow:
		return "low"
	case BandMid:
		return "mid"
	default:
		return "high"
	}
}

// BandOf returns the band a total score falls in.
func BandOf(score float64) Band {
	switch {
	case score < LowBandBelow:
		return BandLow
	case score < HighBandFrom:
		return BandMid
	default:
		return BandHigh
	}
}

// Decision is the aggregate of a batch of evaluations.
type Decision struct {
	NeedsRevision bool                  `json:"needsRevision"`
	Low           []CharacterEvaluation `json:"lowScoring"`
	Mid           []CharacterEvaluation `json:"midScoring,omitempty"`
	High          []CharacterEvaluation `json:"highScoring,omitempty"`

	// MinScore and AverageScore are reported for observability only and do
	// not take part in branching.
	MinScore     float64 `json:"minScore"`
	AverageScore float64 `json:"averageScore"`
}

// Decide partitions evaluations into bands, keeping their relative order, and
// decides whether the episode needs revision.
func Decide(evaluations []CharacterEvaluation) Decision {
	d := Decision{Low: []CharacterEvaluation{}}
	if len(evaluations) == 0 {
		return d
	}

	lowest := math.Inf(1)
	sum := 0.0
	for _, ev := range evaluations {
		switch BandOf(ev.TotalScore) {
		case BandLow:
			d.Low = append(d.Low, ev)
		case BandMid:
			d.Mid = append(d.Mid, ev)
		case BandHigh:
			d.High = append(d.High, ev)
		}
		if ev.TotalScore < lowest {
			lowest = ev.TotalScore
		}
		sum += ev.TotalScore
	}

	d.NeedsRevision = len(d.Low) > 0
	d.MinScore = lowest
	d.AverageScore = sum / float64(len(evaluations))
	return d
}

// PriorityImprovements lists low-band evaluations that gave improvements.
func (d Decision) PriorityImprovements() []string {
	var lines []string
	for _, ev := range d.Low {
		if ev.HasImprovements() {
			lines = append(lines, feedbackLine(ev, ev.Improvements))
		}
	}
	return lines
}

// ReferenceOpinions lists mid-band evaluations that gave improvements.
func (d Decision) ReferenceOpinions() []string {
	var lines []string
	for _, ev := range d.Mid {
		if ev.HasImprovements() {
			lines = append(lines, feedbackLine(ev, ev.Improvements))
		}
	}
	return lines
}

// PointsToPreserve lists the highlights of high-band evaluations.
func (d Decision) PointsToPreserve() []string {
	var lines []string
	for _, ev := range d.High {
		if strings.TrimSpace(ev.Highlights) != "" {
			lines = append(lines, feedbackLine(ev, ev.Highlights))
		}
	}
	return lines
}

// LowScoringSummary renders "name(score)" for every low-band evaluation.
func (d Decision) LowScoringSummary() string {
	parts := make([]string, len(d.Low))
	for i, ev := range d.Low {
		parts[i] = fmt.Sprintf("%s(%s)", ev.CharacterName, FormatScore(ev.TotalScore))
	}
	return strings.Join(parts, ", ")
}

// RevisionPrompt builds the feedback prompt used to regenerate content.
func (d Decision) RevisionPrompt(content string) string {
	var b strings.Builder

	b.WriteString(revisionTitle + "\n\n")

	b.WriteString("## Original Episode\n\n")
	b.WriteString(content)
	b.WriteString("\n\n")

	b.WriteString("## Character Feedback\n\n")
	writeSection(&b, "### Priority Improvements", d.PriorityImprovements())
	writeSection(&b, "### Reference Opinions", d.ReferenceOpinions())
	writeSection(&b, "### Points to Preserve", d.PointsToPreserve())

	b.WriteString("## Revision Instructions\n\n")
	b.WriteString("Address the priority improvements first, using the reference opinions where they help.\n\n")
	b.WriteString("1. Resolve every problem raised by the low-scoring characters.\n")
	b.WriteString("2. Stay faithful to each character's personality and settings.\n")
	b.WriteString("3. Make the relationships between characters feel natural.\n")
	b.WriteString("4. Keep the points that high-scoring characters appreciated.\n")
	b.WriteString("5. Preserve the overall flow of the story.\n\n")
	b.WriteString("Return the complete revised episode in the content field.\n")

	return b.String()
}

func writeSection(b *strings.Builder, title string, lines []string) {
	b.WriteString(title + "\n")
	if len(lines) == 0 {
		b.WriteString(noneLine + "\n\n")
		return
	}
	for _, l := range lines {
		b.WriteString(l + "\n")
	}
	b.WriteString("\n")
}

func feedbackLine(ev CharacterEvaluation, text string) string {
	return fmt.Sprintf("%s (score: %s): %s", ev.CharacterName, FormatScore(ev.TotalScore), text)
}
