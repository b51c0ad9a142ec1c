// Package evaluation scores an episode from the viewpoint of each character in
// the cast. An Engine fans one model call out per character, and Decide folds
// the resulting evaluations into a revision decision with synthesized feedback.
package evaluation

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/Yates-Labs/talecraft/internal/narrative"
)

// ErrEvaluationFailed marks a failed evaluation batch.
var ErrEvaluationFailed = errors.New("character evaluation failed")

const (
	// MinScore and MaxScore bound both the total score and every breakdown score.
	MinScore = 1
	MaxScore = 5

	// ImprovementsRequiredBelow is the total score under which an evaluation
	// must name improvements. The comparison is strict.
	ImprovementsRequiredBelow = 3.5

	maxEvaluationLen           = 100
	maxHighlightsLen           = 50
	maxImprovementsLen         = 100
	maxCharacterVoiceLen       = 50
	maxImportanceAssessmentLen = 30

	// scoreSnapEpsilon absorbs binary floating point noise around one-decimal values.
	scoreSnapEpsilon = 1e-9
)

// Breakdown holds the five integer sub-scores of an evaluation.
type Breakdown struct {
	CharacterAccuracy     int `json:"characterAccuracy" jsonschema:"minimum=1,maximum=5" jsonschema_description:"How faithfully you are portrayed (1-5)"`
	MotivationConsistency int `json:"motivationConsistency" jsonschema:"minimum=1,maximum=5" jsonschema_description:"Consistency between your motivation and actions (1-5)"`
	RoleAppropriateness   int `json:"roleAppropriateness" jsonschema:"minimum=1,maximum=5" jsonschema_description:"Whether your role and importance are handled appropriately (1-5)"`
	RelationshipDepiction int `json:"relationshipDepiction" jsonschema:"minimum=1,maximum=5" jsonschema_description:"Depiction of your relationships with others (1-5)"`
	EmotionalAuthenticity int `json:"emotionalAuthenticity" jsonschema:"minimum=1,maximum=5" jsonschema_description:"Authenticity of your emotions and inner life (1-5)"`
}

// Scores returns the breakdown in a fixed order.
func (b Breakdown) Scores() []int {
	return []int{
		b.CharacterAccuracy,
		b.MotivationConsistency,
		b.RoleAppropriateness,
		b.RelationshipDepiction,
		b.EmotionalAuthenticity,
	}
}

// Validate checks every sub-score is an integer in [1,5].
func (b Breakdown) Validate() error {
	fields := []struct {
		name  string
		value int
	}{
		{"breakdown.characterAccuracy", b.CharacterAccuracy},
		{"breakdown.motivationConsistency", b.MotivationConsistency},
		{"breakdown.roleAppropriateness", b.RoleAppropriateness},
		{"breakdown.relationshipDepiction", b.RelationshipDepiction},
		{"breakdown.emotionalAuthenticity", b.EmotionalAuthenticity},
	}
	for _, f := range fields {
		if err := narrative.RequireRange(f.name, f.value, MinScore, MaxScore); err != nil {
			return err
		}
	}
	return nil
}

// Assessment is the structured output a character persona returns for an episode.
type Assessment struct {
	TotalScore           float64   `json:"totalScore" jsonschema:"minimum=1,maximum=5" jsonschema_description:"Overall score, the average of the breakdown with exactly one decimal place"`
	Breakdown            Breakdown `json:"breakdown"`
	Evaluation           string    `json:"evaluation" jsonschema:"maxLength=100" jsonschema_description:"Your honest impression in your own voice (100 characters max)"`
	Highlights           string    `json:"highlights" jsonschema:"maxLength=50" jsonschema_description:"What you liked most (50 characters max)"`
	Improvements         string    `json:"improvements,omitempty" jsonschema:"maxLength=100" jsonschema_description:"What should change; required when totalScore is below 3.5 (100 characters max)"`
	CharacterVoice       string    `json:"characterVoice" jsonschema:"maxLength=50" jsonschema_description:"What you would really say or do in this episode (50 characters max)"`
	ImportanceAssessment string    `json:"importanceAssessment" jsonschema:"maxLength=30" jsonschema_description:"Whether your importance was treated appropriately (30 characters max)"`
}

// AssessmentSchema is the output schema requested from each persona.
var AssessmentSchema = narrative.SchemaFor[Assessment]("character_evaluation", "An episode evaluation from one character's viewpoint")

// Validate enforces the evaluation contract. A total score within floating
// point noise of a one-decimal value is snapped to it before any check.
func (a *Assessment) Validate() error {
	a.TotalScore = snapScore(a.TotalScore)

	if math.IsNaN(a.TotalScore) || a.TotalScore < MinScore || a.TotalScore > MaxScore {
		return narrative.NewFieldError("totalScore", "must be between 1 and 5")
	}
	if !hasOneDecimal(a.TotalScore) {
		return narrative.NewFieldError("totalScore", "must have at most one decimal place")
	}
	if err := a.Breakdown.Validate(); err != nil {
		return err
	}
	if err := narrative.RequireText("evaluation", a.Evaluation, maxEvaluationLen); err != nil {
		return err
	}
	if err := narrative.RequireText("highlights", a.Highlights, maxHighlightsLen); err != nil {
		return err
	}
	if err := narrative.LimitText("improvements", a.Improvements, maxImprovementsLen); err != nil {
		return err
	}
	if err := narrative.RequireText("characterVoice", a.CharacterVoice, maxCharacterVoiceLen); err != nil {
		return err
	}
	if err := narrative.RequireText("importanceAssessment", a.ImportanceAssessment, maxImportanceAssessmentLen); err != nil {
		return err
	}
	if a.TotalScore < ImprovementsRequiredBelow && !a.HasImprovements() {
		return narrative.NewFieldError("improvements", "is required when totalScore is below 3.5")
	}
	return nil
}

// HasImprovements reports whether improvements were given.
func (a Assessment) HasImprovements() bool {
	return strings.TrimSpace(a.Improvements) != ""
}

// BreakdownMean is the arithmetic mean of the five sub-scores. The total score
// is model-produced and is not required to match it.
func (a Assessment) BreakdownMean() float64 {
	sum := 0
	scores := a.Breakdown.Scores()
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}

// CharacterEvaluation is one character's assessment of an episode.
type CharacterEvaluation struct {
	CharacterName string `json:"characterName"`
	Assessment
}

// FormatScore renders a score with exactly one decimal digit.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 1, 64)
}

func snapScore(v float64) float64 {
	r := math.Round(v*10) / 10
	if math.Abs(v-r) < scoreSnapEpsilon {
		return r
	}
	return v
}

func hasOneDecimal(v float64) bool {
	return math.Round(v*10)/10 == v
}
