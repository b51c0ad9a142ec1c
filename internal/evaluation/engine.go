package evaluation

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/Yates-Labs/talecraft/internal/narrative"
	"github.com/Yates-Labs/talecraft/internal/story"
)

const tracerName = "github.com/Yates-Labs/talecraft/internal/evaluation"

// driftWarning is the gap between totalScore and the breakdown mean above
// which a warning is logged. The total score is never recomputed.
const driftWarning = 1.0

// Engine evaluates an episode from every character's viewpoint.
type Engine struct {
	gen *narrative.Generator
}

// NewEngine creates an engine that issues its calls through gen.
func NewEngine(gen *narrative.Generator) *Engine {
	return &Engine{gen: gen}
}

// EvaluateAll runs one evaluation per character concurrently and waits for
// all of them. The result has one entry per character in input order. If any
// call fails, the whole batch fails with the first error and no partial
// results are returned.
func (e *Engine) EvaluateAll(ctx context.Context, content string, characters []story.CharacterProfile) ([]CharacterEvaluation, error) {
	if e == nil || e.gen == nil {
		return nil, fmt.Errorf("%w: generator is required", ErrEvaluationFailed)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrEvaluationFailed)
	}

	log.Printf("[Evaluation] Evaluating episode with %d characters", len(characters))

	results := make([]CharacterEvaluation, len(characters))
	g, gctx := errgroup.WithContext(ctx)

	for i, character := range characters {
		i := i
		persona := NewPersona(character)
		g.Go(func() error {
			ev, err := e.Evaluate(gctx, content, persona)
			if err != nil {
				return err
			}
			results[i] = ev
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// Evaluate asks a single persona to critique content.
func (e *Engine) Evaluate(ctx context.Context, content string, persona Persona) (CharacterEvaluation, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "evaluation.character")
	defer span.End()
	span.SetAttributes(attribute.String("character.name", persona.Name))

	messages := []narrative.Message{
		narrative.SystemMessage(persona.Instructions()),
		narrative.UserMessage("Please evaluate the following episode:\n\n" + content),
	}

	var assessment Assessment
	if err := e.gen.Generate(ctx, messages, AssessmentSchema, &assessment); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation failed")
		return CharacterEvaluation{}, fmt.Errorf("%w: %s: %w", ErrEvaluationFailed, persona.Name, err)
	}

	if mean := assessment.BreakdownMean(); math.Abs(assessment.TotalScore-mean) > driftWarning {
		log.Printf("[Evaluation] Warning: %s total score %s differs from breakdown mean %.1f",
			persona.Name, FormatScore(assessment.TotalScore), mean)
	}
	span.SetAttributes(attribute.Float64("evaluation.total_score", assessment.TotalScore))

	return CharacterEvaluation{
		CharacterName: persona.Name,
		Assessment:    assessment,
	}, nil
}
