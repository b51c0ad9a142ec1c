package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/talecraft/internal/config"
	"github.com/Yates-Labs/talecraft/internal/orchestrator"
	"github.com/Yates-Labs/talecraft/internal/story"
	"github.com/Yates-Labs/talecraft/internal/telemetry"
)

var (
	recipientID string
	exportFile  string
)

var generateCmd = &cobra.Command{
	Use:   "generate [input]",
	Short: "Generate, review and deliver an episode",
	Long: `Generate an episode from a story input file and deliver it.

This command:
1. Composes a prompt from the story, episode and characters
2. Generates the episode with an LLM (OpenAI)
3. Has every character evaluate the episode concurrently
4. Revises the episode once if any character scores it below 4.0
5. Delivers the final episode over LINE or email

Required environment variables:
  OPENAI_API_KEY              - OpenAI API key
  LINE_CHANNEL_ACCESS_TOKEN   - LINE channel token (optional, enables push delivery)
  RESEND_API_KEY              - Email API key (optional, enables email delivery)
  TALECRAFT_EMAIL_FROM        - Email sender address

Examples:
  talecraft generate episode.yaml
  talecraft generate episode.yaml --recipient user-123
  talecraft generate episode.yaml --export run.json --verbose`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVar(&recipientID, "recipient", "", "Deliver to this user ID (overrides the input file)")
	generateCmd.Flags().StringVar(&exportFile, "export", "", "Export the run to JSON file: --export <filename>")
}

func runGenerate(cmd *cobra.Command, args []string) error {
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

	progress("Loading input...")
	input, err := story.LoadInput(args[0])
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	progress("Initializing pipeline...")
	pipeline, cleanup, err := newPipeline(cfg, true)
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}
	defer cleanup()

	progress(fmt.Sprintf("Generating %q with %d characters...", input.Episode.Title, len(input.Characters)))
	result, err := pipeline.Run(ctx, orchestrator.RequestFromInput(input, recipientID))
	if err != nil {
		return fmt.Errorf("%s %w", errorStyle.Render("Error:"), err)
	}

	fmt.Println()
	fmt.Println(headerStyle.Render(input.Episode.Title))
	fmt.Println()
	fmt.Println(textStyle.Render(strings.TrimSpace(result.Content)))
	fmt.Println()

	outputEvaluations(result.Evaluations, result.Decision)
	if result.Revised {
		fmt.Println(summaryStyle.Render("The episode above is the revised version."))
	}
	outputDelivery(result.Delivery)

	if exportFile != "" {
		return handleExport(result, exportFile)
	}
	return nil
}

func handleExport(result *orchestrator.Result, filename string) error {
	// Create output file
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	if err := orchestrator.ExportResult(result, "json", file); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	fmt.Printf("✓ Exported run %s to %s\n", result.RunID, filename)
	return nil
}
