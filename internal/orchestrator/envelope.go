package orchestrator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Yates-Labs/talecraft/internal/evaluation"
	"github.com/Yates-Labs/talecraft/internal/notify"
	"github.com/Yates-Labs/talecraft/internal/story"
)

// ErrContractViolation marks an envelope that does not satisfy a stage's
// declared input or output contract. It is fatal to the run.
var ErrContractViolation = errors.New("stage contract violation")

// Field names one slot of the envelope.
type Field int

const (
	FieldStory Field = iota
	FieldEpisode
	FieldCharacters
	FieldContent
	FieldEvaluations
	FieldDecision
	FieldDelivery
)

func (f Field) String() string {
	switch f {
	case FieldStory:
		return "story"
	case FieldEpisode:
		return "episode"
	case FieldCharacters:
		return "characters"
	case FieldContent:
		return "content"
	case FieldEvaluations:
		return "evaluations"
	case FieldDecision:
		return "decision"
	case FieldDelivery:
		return "delivery"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// Envelope is the value threaded between pipeline stages.
type Envelope struct {
	Story       *story.StoryContext
	Episode     *story.EpisodeContext
	Characters  []story.CharacterProfile
	Content     string
	Evaluations []evaluation.CharacterEvaluation
	Decision    *evaluation.Decision
	Revised     bool
	Delivery    *notify.Result
}

// Has reports whether f is populated. An empty character list counts as
// present; a nil one does not.
func (e Envelope) Has(f Field) bool {
	switch f {
	case FieldStory:
		return e.Story != nil
	case FieldEpisode:
		return e.Episode != nil
	case FieldCharacters:
		return e.Characters != nil
	case FieldContent:
		return strings.TrimSpace(e.Content) != ""
	case FieldEvaluations:
		return e.Evaluations != nil
	case FieldDecision:
		return e.Decision != nil
	case FieldDelivery:
		return e.Delivery != nil
	default:
		return false
	}
}

// Contract is the set of fields an envelope must carry.
type Contract []Field

// Check returns an ErrContractViolation listing every missing field.
func (c Contract) Check(e Envelope) error {
	var missing []string
	for _, f := range c {
		if !e.Has(f) {
			missing = append(missing, f.String())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrContractViolation, strings.Join(missing, ", "))
	}
	return nil
}
