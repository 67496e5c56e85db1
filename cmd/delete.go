package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vortexlabs/vortex-chat/internal"
)

// deleteCmd removes one conversation (directory entry and archive).
var deleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete one conversation",
	Long:  `Delete a conversation's directory entry and its message archive.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]

		storage, _, closeFn, err := openStorage()
		if err != nil {
			return err
		}
		defer closeFn()

		if err := storage.DeleteSession(sessionID); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}

		internal.PrintSuccess(fmt.Sprintf("Deleted session %s", sessionID))
		return nil
	},
}

var clearYes bool

// clearCmd wipes every conversation.
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all conversations",
	Long:  `Delete every conversation permanently. The user profile, learning profile and language setting are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearYes {
			return fmt.Errorf("refusing to clear without --yes (this action is irreversible)")
		}

		storage, _, closeFn, err := openStorage()
		if err != nil {
			return err
		}
		defer closeFn()

		if err := storage.ClearChatHistory(); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}

		internal.PrintSuccess("Chat history cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "Confirm deletion of all conversations")
}
