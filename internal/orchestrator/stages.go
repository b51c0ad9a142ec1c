package orchestrator

import (
	"context"
	"fmt"
	"log"
	"unicode/utf8"

	"github.com/Yates-Labs/talecraft/internal/evaluation"
	"github.com/Yates-Labs/talecraft/internal/narrative"
	"github.com/Yates-Labs/talecraft/internal/notify"
)

// Stage is one step of the pipeline with declared input and output contracts.
type Stage interface {
	Name() string
	Input() Contract
	Output() Contract
	Run(ctx context.Context, env Envelope) (Envelope, error)
}

// composeStage turns the story inputs into a generation prompt, condensing a
// long previous episode first.
type composeStage struct {
	composer   *narrative.Composer
	summarizer *narrative.Summarizer
}

func (s *composeStage) Name() string { return "compose" }

func (s *composeStage) Input() Contract {
	return Contract{FieldStory, FieldEpisode, FieldCharacters}
}

func (s *composeStage) Output() Contract {
	return Contract{FieldContent, FieldCharacters}
}

func (s *composeStage) Run(ctx context.Context, env Envelope) (Envelope, error) {
	ep := *env.Episode
	if s.summarizer != nil {
		condensed, err := s.summarizer.Condense(ctx, &ep)
		if err != nil {
			return Envelope{}, err
		}
		if condensed {
			log.Printf("[Pipeline] Previous episode summarized to %d characters", utf8.RuneCountInString(ep.PreviousEpisodeContent))
		}
	}

	prompt, err := s.composer.Compose(*env.Story, ep, env.Characters)
	if err != nil {
		return Envelope{}, err
	}
	log.Printf("[Pipeline] Prompt composed (%d characters)", utf8.RuneCountInString(prompt))

	return Envelope{
		Story:      env.Story,
		Episode:    &ep,
		Characters: env.Characters,
		Content:    prompt,
	}, nil
}

// generateStage replaces the prompt in the envelope with the generated episode.
type generateStage struct {
	generator *narrative.Generator
}

func (s *generateStage) Name() string { return "generate" }

func (s *generateStage) Input() Contract {
	return Contract{FieldContent, FieldCharacters}
}

func (s *generateStage) Output() Contract {
	return Contract{FieldContent, FieldCharacters}
}

func (s *generateStage) Run(ctx context.Context, env Envelope) (Envelope, error) {
	content, err := s.generator.GenerateContent(ctx, env.Content)
	if err != nil {
		return Envelope{}, err
	}
	log.Printf("[Pipeline] Episode generated (%d characters)", utf8.RuneCountInString(content))

	return Envelope{
		Characters: env.Characters,
		Content:    content,
	}, nil
}

type reviewState int

const (
	stateEvaluate reviewState = iota
	stateRevise
	stateAccept
)

// reviewStage evaluates the episode and revises it at most once. The revised
// episode is accepted without another evaluation.
type reviewStage struct {
	evaluator *evaluation.Engine
	generator *narrative.Generator
}

func (s *reviewStage) Name() string { return "evaluate-and-revise" }

func (s *reviewStage) Input() Contract {
	return Contract{FieldContent, FieldCharacters}
}

func (s *reviewStage) Output() Contract {
	return Contract{FieldContent, FieldEvaluations, FieldDecision}
}

func (s *reviewStage) Run(ctx context.Context, env Envelope) (Envelope, error) {
	out := Envelope{Content: env.Content}

	state := stateEvaluate
	for state != stateAccept {
		switch state {
		case stateEvaluate:
			evals, err := s.evaluator.EvaluateAll(ctx, env.Content, env.Characters)
			if err != nil {
				return Envelope{}, err
			}
			decision := evaluation.Decide(evals)
			logDecision(decision)

			out.Evaluations = evals
			out.Decision = &decision
			if decision.NeedsRevision {
				state = stateRevise
			} else {
				state = stateAccept
			}

		case stateRevise:
			log.Printf("[Pipeline] Revising episode for %s", out.Decision.LowScoringSummary())
			revised, err := s.generator.GenerateContent(ctx, out.Decision.RevisionPrompt(env.Content))
			if err != nil {
				return Envelope{}, fmt.Errorf("revision: %w", err)
			}
			log.Printf("[Pipeline] Episode revised (%d characters)", utf8.RuneCountInString(revised))

			out.Content = revised
			out.Revised = true
			state = stateAccept
		}
	}

	return out, nil
}

// notifyStage delivers the final content. Delivery failures are recorded in
// the envelope, never returned.
type notifyStage struct {
	notifier    Notifier
	recipientID string
}

func (s *notifyStage) Name() string { return "notify" }

func (s *notifyStage) Input() Contract {
	return Contract{FieldContent}
}

func (s *notifyStage) Output() Contract {
	return Contract{FieldContent, FieldDelivery}
}

func (s *notifyStage) Run(ctx context.Context, env Envelope) (Envelope, error) {
	var res notify.Result
	if s.notifier == nil {
		res = notify.Result{Success: false, Error: "notification dispatcher is not configured"}
		log.Printf("[Pipeline] Skipping delivery: %s", res.Error)
	} else {
		res = s.notifier.Notify(ctx, env.Content, s.recipientID)
	}

	out := env
	out.Delivery = &res
	return out, nil
}
