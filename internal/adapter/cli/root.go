// Package cli wires the review use cases into Cobra commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tbraack/critique/internal/usecase/review"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// MergeRequestReviewer reviews a merge request on the configured host.
type MergeRequestReviewer interface {
	ReviewMergeRequest(ctx context.Context, req review.MergeRequestRequest) (review.Result, error)
}

// LocalReviewer reviews a local branch against a base reference.
type LocalReviewer interface {
	ReviewLocal(ctx context.Context, req review.LocalRequest) (review.Result, error)
}

// BranchDetector resolves the checked-out branch of the local repository.
type BranchDetector interface {
	CurrentBranch(ctx context.Context) (string, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	MergeRequests  MergeRequestReviewer
	Local          LocalReviewer
	Branches       BranchDetector
	Args           Arguments
	DefaultProject string
	Version        string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "critique",
		Short: "LLM-backed merge request review CLI",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Run a review",
	}
	reviewCmd.AddCommand(mergeRequestCommand(deps.MergeRequests, deps.DefaultProject))
	reviewCmd.AddCommand(localCommand(deps.Local, deps.Branches))
	root.AddCommand(reviewCmd)
	root.AddCommand(checkSkipCommand())

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func mergeRequestCommand(reviewer MergeRequestReviewer, defaultProject string) *cobra.Command {
	var project string
	var mrIID int
	var force bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "mr [iid]",
		Short: "Review a merge request and post the results",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if reviewer == nil {
				return fmt.Errorf("merge request reviewing is not configured")
			}
			if len(args) > 0 {
				parsed, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid merge request iid %q", args[0])
				}
				mrIID = parsed
			}
			if project == "" {
				return fmt.Errorf("project not specified; pass --project or set gitlab.project in the config")
			}
			if mrIID <= 0 {
				return fmt.Errorf("merge request iid not specified; pass as an argument or use --mr")
			}

			result, err := reviewer.ReviewMergeRequest(cmd.Context(), review.MergeRequestRequest{
				Project: project,
				IID:     mrIID,
				Force:   force,
				DryRun:  dryRun,
			})
			if err != nil {
				return err
			}

			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", defaultProject, "GitLab project ID or group/name path")
	cmd.Flags().IntVar(&mrIID, "mr", 0, "Merge request IID (overrides positional)")
	cmd.Flags().BoolVar(&force, "force", false, "Review even if this head commit was already reviewed")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Write the review to a local artifact instead of posting")

	return cmd
}

func localCommand(reviewer LocalReviewer, branches BranchDetector) *cobra.Command {
	var baseRef string
	var targetRef string
	var detectTarget bool

	cmd := &cobra.Command{
		Use:   "local [target]",
		Short: "Review a local branch against a base reference",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if reviewer == nil {
				return fmt.Errorf("local reviewing is not configured")
			}
			if len(args) > 0 {
				targetRef = args[0]
			}
			ctx := cmd.Context()
			if targetRef == "" && detectTarget && branches != nil {
				resolved, err := branches.CurrentBranch(ctx)
				if err != nil {
					return fmt.Errorf("detect target branch: %w", err)
				}
				targetRef = resolved
			}
			if targetRef == "" {
				return fmt.Errorf("target branch not specified; pass as an argument, use --target, or enable --detect-target")
			}

			result, err := reviewer.ReviewLocal(ctx, review.LocalRequest{
				BaseRef:   baseRef,
				TargetRef: targetRef,
			})
			if err != nil {
				return err
			}

			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&baseRef, "base", "main", "Base reference to diff against")
	cmd.Flags().StringVar(&targetRef, "target", "", "Target branch to review (overrides positional)")
	cmd.Flags().BoolVar(&detectTarget, "detect-target", true, "Automatically detect the checked out branch when no target is provided")

	return cmd
}

func printResult(out io.Writer, result review.Result) {
	if result.Skipped {
		_, _ = fmt.Fprintf(out, "skipped: head commit already reviewed (run %s)\n", result.RunID)
		return
	}
	_, _ = fmt.Fprintf(out, "run: %s\n", result.RunID)
	if result.IssueKey != "" {
		_, _ = fmt.Fprintf(out, "issue: %s\n", result.IssueKey)
	}
	if result.NotePosted {
		_, _ = fmt.Fprintln(out, "note: posted")
	}
	if result.ArtifactPath != "" {
		_, _ = fmt.Fprintf(out, "artifact: %s\n", result.ArtifactPath)
	}
	_, _ = fmt.Fprintf(out, "tokens: %d in, %d out\n", result.TokensIn, result.TokensOut)
}
