package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/talecraft/internal/narrative"
	"github.com/Yates-Labs/talecraft/internal/story"
)

var language string

var promptCmd = &cobra.Command{
	Use:   "prompt [input]",
	Short: "Print the episode prompt for an input file",
	Long: `Compose and print the prompt that would be sent to the LLM for an
input file. No model is called, so the previous episode is never summarized.

Examples:
  talecraft prompt episode.yaml
  talecraft prompt episode.yaml --language English`,
	Args: cobra.ExactArgs(1),
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVar(&language, "language", narrative.DefaultLanguage, "Language the episode is written in")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	input, err := story.LoadInput(args[0])
	if err != nil {
		return err
	}

	prompt, err := narrative.NewComposer(language).Compose(input.Story, input.Episode, input.Characters)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), prompt)
	return nil
}
