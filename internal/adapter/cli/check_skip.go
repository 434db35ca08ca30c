package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ErrShouldReview is returned when no skip trigger is found,
// indicating the review should proceed. Use this as a sentinel
// error in CI pipelines.
var ErrShouldReview = errors.New("should review")

// skipTriggers are matched case-insensitively anywhere in the text.
var skipTriggers = []string{
	"[skip review]",
	"[skip-review]",
}

// checkSkipCommand creates the check-skip subcommand.
// It checks commit messages and merge request metadata for skip triggers.
//
// Exit codes:
//   - 0: Skip trigger found, review should be skipped
//   - 1: No skip trigger, review should proceed
func checkSkipCommand() *cobra.Command {
	var commitMessages []string
	var mrTitle string
	var mrDescription string

	cmd := &cobra.Command{
		Use:   "check-skip",
		Short: "Check if the review should be skipped",
		Long: `Check commit messages and merge request metadata for skip triggers.

Supported skip trigger patterns:
  [skip review]
  [skip-review]

Patterns are case-insensitive and can appear anywhere in the text.

Exit codes:
  0 - Skip trigger found, review should be skipped
  1 - No skip trigger, review should proceed

Example usage in GitLab CI:
  if critique check-skip --commit-message "$CI_COMMIT_MESSAGE"; then
    echo "Skipping review"
    exit 0
  fi`,
		RunE: func(cmd *cobra.Command, args []string) error {
			texts := make([]string, 0, len(commitMessages)+2)
			texts = append(texts, commitMessages...)
			texts = append(texts, mrTitle, mrDescription)

			if trigger, found := findSkipTrigger(texts); found {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "skip: found %s\n", trigger)
				return nil // Exit 0
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "review: no skip trigger found")
			return ErrShouldReview // Exit 1
		},
	}

	cmd.Flags().StringArrayVar(&commitMessages, "commit-message", nil, "Commit message(s) to check (can be repeated)")
	cmd.Flags().StringVar(&mrTitle, "mr-title", "", "Merge request title to check")
	cmd.Flags().StringVar(&mrDescription, "mr-description", "", "Merge request description to check")

	return cmd
}

// findSkipTrigger returns the first trigger found in any of the texts.
func findSkipTrigger(texts []string) (string, bool) {
	for _, text := range texts {
		lowered := strings.ToLower(text)
		for _, trigger := range skipTriggers {
			if strings.Contains(lowered, trigger) {
				return trigger, true
			}
		}
	}
	return "", false
}
