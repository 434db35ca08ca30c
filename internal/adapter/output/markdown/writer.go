// Package markdown writes local review artifacts for dry runs and
// reviews of local branches.
package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbraack/critique/internal/domain"
)

type clock func() string

// Writer renders review artifacts into Markdown files.
type Writer struct {
	now clock
}

// NewWriter constructs a Markdown writer with a timestamp supplier.
func NewWriter(now clock) *Writer {
	return &Writer{now: now}
}

// Write persists a Markdown artifact to disk and returns its path.
func (w *Writer) Write(ctx context.Context, artifact domain.ReviewArtifact) (string, error) {
	if err := os.MkdirAll(artifact.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s_%s_%s.md",
		sanitise(artifact.Project),
		sanitise(artifact.Reference),
		sanitise(artifact.Provider),
		w.now(),
	)
	path := filepath.Join(artifact.OutputDir, filename)

	content := buildContent(artifact)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}

	return path, nil
}

func buildContent(artifact domain.ReviewArtifact) string {
	var builder strings.Builder
	caser := cases.Title(language.English)
	builder.WriteString("# Review Report\n\n")
	builder.WriteString(fmt.Sprintf("- Project: %s\n", artifact.Project))
	builder.WriteString(fmt.Sprintf("- Reference: %s\n", artifact.Reference))
	builder.WriteString(fmt.Sprintf("- Provider: %s (%s)\n\n", caser.String(artifact.Provider), artifact.Model))

	builder.WriteString("## Review\n\n")
	builder.WriteString(strings.TrimRight(artifact.Response, "\n"))
	builder.WriteString("\n")

	if artifact.AnnotatedDiff != "" {
		builder.WriteString("\n## Annotated Diff\n\n")
		builder.WriteString("```diff\n")
		builder.WriteString(strings.TrimRight(artifact.AnnotatedDiff, "\n"))
		builder.WriteString("\n```\n")
	}

	return builder.String()
}

func sanitise(value string) string {
	if value == "" {
		return "unknown"
	}
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, string(filepath.Separator), "-")
	value = strings.ReplaceAll(value, " ", "-")
	return value
}
