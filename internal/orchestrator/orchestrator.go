// Package orchestrator runs the episode pipeline: compose a prompt, generate
// the episode, evaluate it from every character's viewpoint with at most one
// revision, and deliver the result.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Yates-Labs/talecraft/internal/evaluation"
	"github.com/Yates-Labs/talecraft/internal/narrative"
	"github.com/Yates-Labs/talecraft/internal/notify"
	"github.com/Yates-Labs/talecraft/internal/story"
)

const tracerName = "github.com/Yates-Labs/talecraft/internal/orchestrator"

// Notifier delivers finished content. It reports failures in the result.
type Notifier interface {
	Notify(ctx context.Context, content, recipientID string) notify.Result
}

// Components are the collaborators a pipeline is assembled from. Summarizer
// and Notifier are optional.
type Components struct {
	Composer   *narrative.Composer
	Summarizer *narrative.Summarizer
	Generator  *narrative.Generator
	Evaluator  *evaluation.Engine
	Notifier   Notifier
}

// Pipeline is the fixed four stage state machine
// Compose → Generate → EvaluateAndRevise → Notify.
type Pipeline struct {
	components Components
}

// NewPipeline checks the required components and creates a pipeline.
func NewPipeline(c Components) (*Pipeline, error) {
	if c.Composer == nil {
		c.Composer = narrative.NewComposer("")
	}
	if c.Generator == nil {
		return nil, errors.New("generator is required")
	}
	if c.Evaluator == nil {
		return nil, errors.New("evaluator is required")
	}
	return &Pipeline{components: c}, nil
}

// Request is the input of one pipeline run.
type Request struct {
	Story       story.StoryContext
	Episode     story.EpisodeContext
	Characters  []story.CharacterProfile
	RecipientID string
}

// RequestFromInput builds a request from a decoded input file. A non-empty
// recipient overrides the one in the file.
func RequestFromInput(in *story.Input, recipient string) Request {
	req := Request{
		Story:       in.Story,
		Episode:     in.Episode,
		Characters:  in.Characters,
		RecipientID: in.Recipient,
	}
	if recipient != "" {
		req.RecipientID = recipient
	}
	return req
}

// StageTiming records how long a stage ran.
type StageTiming struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// Result is the terminal state of a run.
type Result struct {
	RunID       string
	Content     string
	Evaluations []evaluation.CharacterEvaluation
	Decision    evaluation.Decision
	Revised     bool
	Delivery    notify.Result
	Timings     []StageTiming
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Run executes every stage in order. It either returns the final content with
// a delivery outcome or fails with the first stage error; there is no partial
// success. Delivery failures do not fail the run.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	runID := newRunID()
	started := time.Now()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("characters.count", len(req.Characters)),
		),
	)
	defer span.End()

	log.Printf("[Pipeline] Run %s: %q episode %q with %d characters",
		runID, req.Story.Title, req.Episode.Title, len(req.Characters))

	// The episode is copied so that summarizing the previous episode never
	// touches the caller's value.
	st := req.Story
	ep := req.Episode
	env := Envelope{
		Story:      &st,
		Episode:    &ep,
		Characters: req.Characters,
	}

	out, timings, err := runStages(ctx, p.stages(req.RecipientID), env)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pipeline failed")
		log.Printf("[Pipeline] Run %s failed: %v", runID, err)
		return nil, err
	}

	result := &Result{
		RunID:       runID,
		Content:     out.Content,
		Evaluations: out.Evaluations,
		Revised:     out.Revised,
		Timings:     timings,
		StartedAt:   started,
		FinishedAt:  time.Now(),
	}
	if out.Decision != nil {
		result.Decision = *out.Decision
	}
	if out.Delivery != nil {
		result.Delivery = *out.Delivery
	}

	span.SetAttributes(
		attribute.Bool("episode.revised", result.Revised),
		attribute.Bool("delivery.success", result.Delivery.Success),
	)
	log.Printf("[Pipeline] Run %s finished in %s (revised: %v, delivered: %v)",
		runID, result.FinishedAt.Sub(started).Round(time.Millisecond), result.Revised, result.Delivery.Success)

	return result, nil
}

// Evaluate runs the fan-out and the decision on existing content without
// revising or delivering it.
func (p *Pipeline) Evaluate(ctx context.Context, content string, characters []story.CharacterProfile) ([]evaluation.CharacterEvaluation, evaluation.Decision, error) {
	evals, err := p.components.Evaluator.EvaluateAll(ctx, content, characters)
	if err != nil {
		return nil, evaluation.Decision{}, err
	}
	decision := evaluation.Decide(evals)
	logDecision(decision)
	return evals, decision, nil
}

func (p *Pipeline) stages(recipientID string) []Stage {
	return []Stage{
		&composeStage{composer: p.components.Composer, summarizer: p.components.Summarizer},
		&generateStage{generator: p.components.Generator},
		&reviewStage{evaluator: p.components.Evaluator, generator: p.components.Generator},
		&notifyStage{notifier: p.components.Notifier, recipientID: recipientID},
	}
}

// runStages checks each stage's input contract against the incoming envelope,
// runs the stage and checks its output contract before handing the envelope on.
func runStages(ctx context.Context, stages []Stage, env Envelope) (Envelope, []StageTiming, error) {
	tracer := otel.Tracer(tracerName)
	timings := make([]StageTiming, 0, len(stages))

	for i, stage := range stages {
		if err := stage.Input().Check(env); err != nil {
			return Envelope{}, timings, fmt.Errorf("stage %d (%s) input: %w", i+1, stage.Name(), err)
		}

		log.Printf("[Pipeline] Stage %d: %s", i+1, stage.Name())
		start := time.Now()

		sctx, span := tracer.Start(ctx, "pipeline."+stage.Name())
		out, err := stage.Run(sctx, env)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "stage failed")
			span.End()
			return Envelope{}, timings, fmt.Errorf("stage %d (%s): %w", i+1, stage.Name(), err)
		}
		span.End()

		if err := stage.Output().Check(out); err != nil {
			return Envelope{}, timings, fmt.Errorf("stage %d (%s) output: %w", i+1, stage.Name(), err)
		}

		timings = append(timings, StageTiming{Stage: stage.Name(), Duration: time.Since(start)})
		env = out
	}

	return env, timings, nil
}

func newRunID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.DefaultEntropy()).String()
}

func logDecision(d evaluation.Decision) {
	low := d.LowScoringSummary()
	if low == "" {
		low = "none"
	}
	log.Printf("[Pipeline] Evaluation: min %s, average %.1f, low-scoring: %s",
		evaluation.FormatScore(d.MinScore), d.AverageScore, low)
}
