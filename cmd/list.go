package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/vortexlabs/vortex-chat/internal"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	previewStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations",
	Long:  `List all stored conversations, most recently active first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, _, closeFn, err := openStorage()
		if err != nil {
			return err
		}
		defer closeFn()

		sessions, err := storage.Sessions()
		if err != nil {
			return fmt.Errorf("failed to load session directory: %w", err)
		}

		if len(sessions) == 0 {
			internal.PrintInfo("No conversations yet. Start one with: vortex-chat chat \"hello\"")
			return nil
		}

		fmt.Println(headerStyle.Render(fmt.Sprintf("Conversations (%d)", len(sessions))))

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, session := range sessions {
			title := session.Title
			if title == "" {
				title = "(untitled)"
			}
			preview := session.Preview
			if len(preview) > 40 {
				preview = preview[:40] + "…"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				titleStyle.Render(title),
				idStyle.Render(session.ID),
				dateStyle.Render(formatRelative(session.GetLastMessageAt())),
				previewStyle.Render(preview),
			)
		}
		return w.Flush()
	},
}

// formatRelative renders a timestamp as a human-friendly relative age.
func formatRelative(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	age := time.Since(t)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	case age < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
}
