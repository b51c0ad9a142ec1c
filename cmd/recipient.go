package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/talecraft/internal/config"
	"github.com/Yates-Labs/talecraft/internal/notify"
)

var (
	recipientEmail string
	recipientLine  string
)

var recipientCmd = &cobra.Command{
	Use:   "recipient",
	Short: "Manage the recipient directory",
}

var recipientAddCmd = &cobra.Command{
	Use:   "add [user-id]",
	Short: "Add or update a recipient",
	Long: `Add a recipient to the directory, or update an existing one.

A recipient with a linked LINE account receives push messages when a LINE
channel token is configured; otherwise the email address is used.

Examples:
  talecraft recipient add user-123 --email reader@example.com
  talecraft recipient add user-123 --line U4af4980629...`,
	Args: cobra.ExactArgs(1),
	RunE: runRecipientAdd,
}

var recipientShowCmd = &cobra.Command{
	Use:   "show [user-id]",
	Short: "Show the channels of a recipient",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecipientShow,
}

func init() {
	rootCmd.AddCommand(recipientCmd)
	recipientCmd.AddCommand(recipientAddCmd, recipientShowCmd)
	recipientAddCmd.Flags().StringVar(&recipientEmail, "email", "", "Email address")
	recipientAddCmd.Flags().StringVar(&recipientLine, "line", "", "Linked LINE user ID")
}

func openDirectory() (*notify.SQLiteDirectory, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return notify.OpenDirectory(cfg.DirectoryPath)
}

func runRecipientAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	userID := args[0]

	directory, err := openDirectory()
	if err != nil {
		return err
	}
	defer directory.Close()

	if err := directory.PutUser(ctx, userID, recipientEmail); err != nil {
		return err
	}
	if recipientLine != "" {
		if err := directory.LinkAccount(ctx, userID, notify.ProviderLine, recipientLine); err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ Saved recipient "+userID))
	return nil
}

func runRecipientShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	userID := args[0]

	directory, err := openDirectory()
	if err != nil {
		return err
	}
	defer directory.Close()

	account, err := directory.PushAccount(ctx, userID)
	if err != nil {
		return err
	}
	email, err := directory.EmailAddress(ctx, userID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headerStyle.Render(userID))
	fmt.Fprintf(out, "  LINE:  %s\n", orNone(account))
	fmt.Fprintf(out, "  Email: %s\n", orNone(email))
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
