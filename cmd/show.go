package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/vortexlabs/vortex-chat/internal"
)

var showLimit int

var (
	// Styles for show command
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	modelMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	errorBadgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show one conversation",
	Long:  `Display the archived messages of a conversation.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]

		storage, _, closeFn, err := openStorage()
		if err != nil {
			return err
		}
		defer closeFn()

		sessions, err := storage.Sessions()
		if err != nil {
			return fmt.Errorf("failed to load session directory: %w", err)
		}

		var session *internal.ChatSession
		for _, s := range sessions {
			if s.ID == sessionID {
				session = s
				break
			}
		}
		if session == nil {
			return fmt.Errorf("session not found: %s (use 'vortex-chat list' to see available sessions)", sessionID)
		}

		messages, err := storage.Messages(sessionID)
		if err != nil {
			return fmt.Errorf("failed to load archive: %w", err)
		}

		fmt.Println(sessionHeaderStyle.Render(session.Title))
		fmt.Println(sessionMetaStyle.Render(fmt.Sprintf("%s · %d message(s)", session.ID, len(messages))))

		if showLimit > 0 && len(messages) > showLimit {
			messages = messages[len(messages)-showLimit:]
		}

		for _, msg := range messages {
			label := userMessageStyle.Render("You")
			if msg.Role == internal.RoleModel {
				label = modelMessageStyle.Render("VORTEX")
			}
			if msg.IsError {
				label += " " + errorBadgeStyle.Render("[failed]")
			}
			ts := timestampStyle.Render(msg.GetTimestamp().Format("2006-01-02 15:04"))

			fmt.Printf("%s %s\n", label, ts)
			content := msg.Content
			if content == "" && len(msg.Attachments) > 0 {
				content = "(attachments only)"
			}
			fmt.Println(messageContentStyle.Render(content))
			if len(msg.Attachments) > 0 {
				fmt.Println(sessionMetaStyle.Render(fmt.Sprintf("  %d attachment(s)", len(msg.Attachments))))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&showLimit, "limit", "n", 0, "Show only the last N messages")
}
