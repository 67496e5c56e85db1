package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vortexlabs/vortex-chat/internal"
)

var feedbackNegative bool

// feedbackCmd records a preference tag in the learning profile. The profile
// is folded into the system instruction of every future request.
var feedbackCmd = &cobra.Command{
	Use:   "feedback <tag>",
	Short: "Teach the model a preference",
	Long: `Record a free-text preference tag in the learning profile.

Positive tags become adaptation hints ("adapt to these"), negative tags
become avoidance hints. Recording the same tag twice is a no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, _, closeFn, err := openStorage()
		if err != nil {
			return err
		}
		defer closeFn()

		profile, err := storage.RecordFeedback(args[0], !feedbackNegative)
		if err != nil {
			return fmt.Errorf("failed to record feedback: %w", err)
		}

		internal.PrintSuccess(fmt.Sprintf("Learning profile updated (%d preference(s), %d dislike(s))",
			len(profile.Preferences), len(profile.Dislikes)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(feedbackCmd)
	feedbackCmd.Flags().BoolVar(&feedbackNegative, "negative", false, "Record as a dislike instead of a preference")
}
