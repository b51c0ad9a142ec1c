package cmd

import (
	"fmt"

	"github.com/Yates-Labs/talecraft/internal/config"
	"github.com/Yates-Labs/talecraft/internal/evaluation"
	"github.com/Yates-Labs/talecraft/internal/narrative"
	"github.com/Yates-Labs/talecraft/internal/notify"
	"github.com/Yates-Labs/talecraft/internal/orchestrator"
)

// newPipeline wires the pipeline from cfg. Episode writing, evaluations and
// summaries each get their own client so they can use different models. The
// returned cleanup closes the recipient directory.
func newPipeline(cfg config.Config, withNotifier bool) (*orchestrator.Pipeline, func(), error) {
	cleanup := func() {}

	writer, err := narrative.NewOpenAILLM(cfg.LLM())
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to create LLM: %w", err)
	}
	evaluator, err := narrative.NewOpenAILLM(cfg.EvaluatorLLM())
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to create evaluator LLM: %w", err)
	}
	summarizer, err := narrative.NewOpenAILLM(cfg.SummaryLLM())
	if err != nil {
		return nil, cleanup, fmt.Errorf("failed to create summary LLM: %w", err)
	}

	components := orchestrator.Components{
		Composer:   narrative.NewComposer(cfg.Language),
		Summarizer: narrative.NewSummarizer(narrative.NewGenerator(summarizer, cfg.SummaryLLM()), cfg.SummaryThreshold),
		Generator:  narrative.NewGenerator(writer, cfg.LLM()),
		Evaluator:  evaluation.NewEngine(narrative.NewGenerator(evaluator, cfg.EvaluatorLLM())),
	}

	if withNotifier {
		dispatcher, closeDir, err := newDispatcher(cfg)
		if err != nil {
			return nil, cleanup, err
		}
		components.Notifier = dispatcher
		cleanup = closeDir
	}

	pipeline, err := orchestrator.NewPipeline(components)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return pipeline, cleanup, nil
}

// newDispatcher opens the recipient directory and builds the transports whose
// credentials are configured.
func newDispatcher(cfg config.Config) (*notify.Dispatcher, func(), error) {
	directory, err := notify.OpenDirectory(cfg.DirectoryPath)
	if err != nil {
		return nil, func() {}, fmt.Errorf("failed to open recipient directory: %w", err)
	}

	var push notify.Pusher
	if cfg.PushEnabled() {
		line, err := notify.NewLinePusher(cfg.Line())
		if err != nil {
			directory.Close()
			return nil, func() {}, err
		}
		push = line
	}

	var mail notify.Mailer
	if cfg.EmailEnabled() {
		sender, err := notify.NewEmailSender(cfg.Email())
		if err != nil {
			directory.Close()
			return nil, func() {}, err
		}
		mail = sender
	}

	dispatcher := notify.NewDispatcher(directory, push, mail).WithTitle(cfg.NotificationTitle)
	return dispatcher, func() { directory.Close() }, nil
}
