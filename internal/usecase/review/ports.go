// Package review orchestrates the pipeline: fetch merge request changes,
// annotate diffs with line numbers, prompt the model, compile the
// response into a document tree, and post the results.
package review

import (
	"context"

	"github.com/tbraack/critique/internal/adf"
	"github.com/tbraack/critique/internal/domain"
)

// ProviderResponse is the raw model output plus usage accounting.
type ProviderResponse struct {
	Text      string
	ModelName string
	TokensIn  int
	TokensOut int
}

// Provider is the LLM port.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (ProviderResponse, error)
}

// ChangesFetcher fetches a merge request with its per-file diffs.
type ChangesFetcher interface {
	GetMergeRequestChanges(ctx context.Context, project string, iid int) (domain.MergeRequest, error)
}

// NotePoster posts a summary note on the merge request.
type NotePoster interface {
	CreateMergeRequestNote(ctx context.Context, project string, iid int, body string) error
}

// CommentPoster posts a compiled document as an issue comment.
type CommentPoster interface {
	AddComment(ctx context.Context, issueKey string, doc adf.Doc) error
}

// DiffSource produces file diffs from a local repository.
type DiffSource interface {
	Diff(ctx context.Context, baseRef, targetRef string) ([]domain.FileDiff, error)
}

// RunStore persists completed review runs for idempotent re-runs.
type RunStore interface {
	FindRun(ctx context.Context, runID string) (*domain.ReviewRun, error)
	SaveRun(ctx context.Context, run domain.ReviewRun) error
}

// ArtifactWriter persists a local review artifact, returning its path.
type ArtifactWriter interface {
	Write(ctx context.Context, artifact domain.ReviewArtifact) (string, error)
}

// Logger is the structured logging port used by the orchestrator.
type Logger interface {
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}
