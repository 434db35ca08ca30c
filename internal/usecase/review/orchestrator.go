package review

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tbraack/critique/internal/diff"
	"github.com/tbraack/critique/internal/domain"
	"github.com/tbraack/critique/internal/markup"
)

// Options configures the pipeline behavior.
type Options struct {
	Instructions string
	Compiler     markup.Options
	IssuePattern string // Regexp for extracting issue keys from MR titles/branches
	OutputDir    string
}

// Dependencies captures the orchestrator's collaborators. Changes,
// Provider, and Logger are required for MR reviews; the rest are
// optional and skipped when nil.
type Dependencies struct {
	Changes   ChangesFetcher
	Notes     NotePoster
	Comments  CommentPoster
	Source    DiffSource
	Provider  Provider
	Store     RunStore
	Artifacts ArtifactWriter
	Logger    Logger
}

// Reviewer runs the annotate-prompt-compile-post pipeline.
type Reviewer struct {
	deps    Dependencies
	opts    Options
	prompts *PromptBuilder
	issueRe *regexp.Regexp
	now     func() time.Time
}

// NewReviewer constructs a Reviewer.
func NewReviewer(deps Dependencies, opts Options) (*Reviewer, error) {
	if deps.Provider == nil {
		return nil, fmt.Errorf("provider is required")
	}

	pattern := opts.IssuePattern
	if pattern == "" {
		pattern = `[A-Z][A-Z0-9]+-\d+`
	}
	issueRe, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile issue pattern %q: %w", pattern, err)
	}

	return &Reviewer{
		deps:    deps,
		opts:    opts,
		prompts: NewPromptBuilder(),
		issueRe: issueRe,
		now:     time.Now,
	}, nil
}

// MergeRequestRequest identifies the MR to review.
type MergeRequestRequest struct {
	Project string
	IID     int
	Force   bool // Review even if the head SHA was already reviewed
	DryRun  bool // Skip posting; write the artifact instead
}

// LocalRequest identifies a local ref range to review.
type LocalRequest struct {
	BaseRef   string
	TargetRef string
}

// Result reports what the pipeline did.
type Result struct {
	RunID        string
	IssueKey     string
	Skipped      bool // Head SHA already reviewed
	NotePosted   bool
	ArtifactPath string
	TokensIn     int
	TokensOut    int
}

// ReviewMergeRequest runs the full pipeline against a hosted MR.
func (r *Reviewer) ReviewMergeRequest(ctx context.Context, req MergeRequestRequest) (Result, error) {
	if r.deps.Changes == nil {
		return Result{}, fmt.Errorf("changes fetcher not configured")
	}

	mr, err := r.deps.Changes.GetMergeRequestChanges(ctx, req.Project, req.IID)
	if err != nil {
		return Result{}, fmt.Errorf("fetch merge request changes: %w", err)
	}

	runID := domain.NewRunID(mr.Project, mr.IID, mr.HeadSHA)
	result := Result{RunID: runID}

	if r.deps.Store != nil && !req.Force {
		existing, err := r.deps.Store.FindRun(ctx, runID)
		if err != nil {
			return Result{}, fmt.Errorf("look up previous run: %w", err)
		}
		if existing != nil {
			r.logInfo(ctx, "head already reviewed, skipping", map[string]interface{}{
				"project": mr.Project,
				"mr":      mr.IID,
				"sha":     mr.HeadSHA,
			})
			result.Skipped = true
			return result, nil
		}
	}

	files := r.annotateFiles(ctx, mr.Files)
	if len(files) == 0 {
		return Result{}, fmt.Errorf("merge request has no reviewable diffs")
	}

	prompt, err := r.prompts.Build(PromptData{
		Instructions: r.opts.Instructions,
		Title:        mr.Title,
		SourceBranch: mr.SourceBranch,
		TargetBranch: mr.TargetBranch,
		Files:        files,
	})
	if err != nil {
		return Result{}, err
	}

	response, err := r.deps.Provider.Generate(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("generate review: %w", err)
	}
	result.TokensIn = response.TokensIn
	result.TokensOut = response.TokensOut

	doc := markup.Compile(response.Text, r.opts.Compiler)

	result.IssueKey = r.extractIssueKey(mr)

	if req.DryRun {
		path, err := r.writeArtifact(ctx, mr.Project, fmt.Sprintf("!%d", mr.IID), files, response)
		if err != nil {
			return Result{}, err
		}
		result.ArtifactPath = path
		return result, nil
	}

	if result.IssueKey != "" && r.deps.Comments != nil {
		if err := r.deps.Comments.AddComment(ctx, result.IssueKey, doc); err != nil {
			return Result{}, fmt.Errorf("post issue comment: %w", err)
		}
	} else {
		r.logWarning(ctx, "no issue key resolved, skipping tracker comment", map[string]interface{}{
			"project": mr.Project,
			"mr":      mr.IID,
			"title":   mr.Title,
		})
	}

	if r.deps.Notes != nil {
		if err := r.deps.Notes.CreateMergeRequestNote(ctx, mr.Project, mr.IID, response.Text); err != nil {
			return Result{}, fmt.Errorf("post merge request note: %w", err)
		}
		result.NotePosted = true
	}

	if r.deps.Store != nil {
		run := domain.ReviewRun{
			RunID:     runID,
			Project:   mr.Project,
			MRIID:     mr.IID,
			HeadSHA:   mr.HeadSHA,
			Provider:  r.deps.Provider.Name(),
			Model:     response.ModelName,
			TokensIn:  response.TokensIn,
			TokensOut: response.TokensOut,
			PostedAt:  r.now(),
		}
		if err := r.deps.Store.SaveRun(ctx, run); err != nil {
			return Result{}, fmt.Errorf("record review run: %w", err)
		}
	}

	return result, nil
}

// ReviewLocal runs the pipeline against a local ref range and writes
// the result as an artifact file instead of posting.
func (r *Reviewer) ReviewLocal(ctx context.Context, req LocalRequest) (Result, error) {
	if r.deps.Source == nil {
		return Result{}, fmt.Errorf("local diff source not configured")
	}

	fileDiffs, err := r.deps.Source.Diff(ctx, req.BaseRef, req.TargetRef)
	if err != nil {
		return Result{}, fmt.Errorf("compute local diff: %w", err)
	}

	files := r.annotateFiles(ctx, fileDiffs)
	if len(files) == 0 {
		return Result{}, fmt.Errorf("no changes between %s and %s", req.BaseRef, req.TargetRef)
	}

	prompt, err := r.prompts.Build(PromptData{
		Instructions: r.opts.Instructions,
		SourceBranch: req.TargetRef,
		TargetBranch: req.BaseRef,
		Files:        files,
	})
	if err != nil {
		return Result{}, err
	}

	response, err := r.deps.Provider.Generate(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("generate review: %w", err)
	}

	reference := fmt.Sprintf("%s..%s", req.BaseRef, req.TargetRef)
	path, err := r.writeArtifact(ctx, "local", reference, files, response)
	if err != nil {
		return Result{}, err
	}

	return Result{
		ArtifactPath: path,
		TokensIn:     response.TokensIn,
		TokensOut:    response.TokensOut,
	}, nil
}

// annotateFiles annotates every file diff, logging hunk-header warnings
// without changing the output (mis-numbered suggestions are worth a
// trace but must not fail the review).
func (r *Reviewer) annotateFiles(ctx context.Context, fileDiffs []domain.FileDiff) []AnnotatedFile {
	var files []AnnotatedFile
	for _, fd := range fileDiffs {
		if fd.Diff == "" || fd.DeletedFile {
			continue
		}
		annotated, warnings := diff.AnnotateVerbose(fd.Diff)
		for _, w := range warnings {
			r.logWarning(ctx, "suspect hunk header", map[string]interface{}{
				"file":    fd.NewPath,
				"warning": w,
			})
		}
		files = append(files, AnnotatedFile{Path: fd.NewPath, Annotated: annotated})
	}
	return files
}

// extractIssueKey resolves the tracker issue from the MR title, falling
// back to the source branch name.
func (r *Reviewer) extractIssueKey(mr domain.MergeRequest) string {
	if key := r.issueRe.FindString(mr.Title); key != "" {
		return key
	}
	// Branch names are commonly lowercase; match case-insensitively and
	// normalize.
	upper := strings.ToUpper(mr.SourceBranch)
	return r.issueRe.FindString(upper)
}

func (r *Reviewer) writeArtifact(ctx context.Context, project, reference string, files []AnnotatedFile, response ProviderResponse) (string, error) {
	if r.deps.Artifacts == nil {
		return "", nil
	}

	var annotated strings.Builder
	for _, f := range files {
		annotated.WriteString("File: " + f.Path + "\n")
		annotated.WriteString(f.Annotated)
		annotated.WriteString("\n\n")
	}

	path, err := r.deps.Artifacts.Write(ctx, domain.ReviewArtifact{
		OutputDir:     r.opts.OutputDir,
		Project:       project,
		Reference:     reference,
		Provider:      r.deps.Provider.Name(),
		Model:         response.ModelName,
		AnnotatedDiff: annotated.String(),
		Response:      response.Text,
	})
	if err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}

func (r *Reviewer) logInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if r.deps.Logger != nil {
		r.deps.Logger.LogInfo(ctx, message, fields)
	}
}

func (r *Reviewer) logWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if r.deps.Logger != nil {
		r.deps.Logger.LogWarning(ctx, message, fields)
	}
}
