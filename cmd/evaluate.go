package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/talecraft/internal/config"
	"github.com/Yates-Labs/talecraft/internal/story"
	"github.com/Yates-Labs/talecraft/internal/telemetry"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [input] [episode]",
	Short: "Have the cast evaluate an existing episode",
	Long: `Run the character evaluations on an existing episode text and print
each character's score and the resulting revision decision.

Nothing is revised or delivered.

Examples:
  talecraft evaluate episode.yaml chapter3.txt`,
	Args: cobra.ExactArgs(2),
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	shutdown, err := telemetry.Setup(ctx, cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer shutdown(ctx)

	input, err := story.LoadInput(args[0])
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	content, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read episode: %w", err)
	}

	pipeline, cleanup, err := newPipeline(cfg, false)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}
	defer cleanup()

	progress(fmt.Sprintf("Evaluating with %d characters...", len(input.Characters)))
	evals, decision, err := pipeline.Evaluate(ctx, string(content), input.Characters)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	fmt.Println()
	outputEvaluations(evals, decision)
	return nil
}
