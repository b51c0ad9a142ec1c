package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "talecraft",
	Short: "Talecraft - Character-reviewed episode generation",
	Long: `Talecraft writes story episodes with an LLM and has every character
in the cast review the result from their own point of view.

An episode whose reviews include a low score is revised once using the
characters' feedback, then delivered to the reader over LINE or email.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Show detailed progress")
}

// Execute runs the root command
func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
