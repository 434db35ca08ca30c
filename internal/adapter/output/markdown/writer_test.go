package markdown_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tbraack/critique/internal/adapter/output/markdown"
	"github.com/tbraack/critique/internal/domain"
)

func TestWriterProducesDeterministicMarkdown(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	writer := markdown.NewWriter(func() string {
		return "2026-01-01T00-00-00Z"
	})

	path, err := writer.Write(ctx, domain.ReviewArtifact{
		OutputDir:     dir,
		Project:       "group/repo",
		Reference:     "mr-42",
		Provider:      "gemini",
		Model:         "gemini-2.0-flash",
		AnnotatedDiff: "@@ -1,2 +1,3 @@\n 1 ctx\n+2 added\n 3 ctx2",
		Response:      "### Review\nLooks solid overall.",
	})
	if err != nil {
		t.Fatalf("writer returned error: %v", err)
	}

	if filepath.Base(path) != "group-repo_mr-42_gemini_2026-01-01T00-00-00Z.md" {
		t.Fatalf("unexpected filename: %s", filepath.Base(path))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}

	text := string(content)
	if !strings.Contains(text, "Looks solid overall.") {
		t.Fatalf("markdown missing review text: %s", text)
	}
	if !strings.Contains(text, "- Provider: Gemini (gemini-2.0-flash)") {
		t.Fatalf("markdown missing provider line: %s", text)
	}
	if !strings.Contains(text, "```diff\n@@ -1,2 +1,3 @@") {
		t.Fatalf("markdown missing annotated diff block: %s", text)
	}
}

func TestWriterOmitsEmptyDiffSection(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	writer := markdown.NewWriter(func() string {
		return "2026-01-01T00-00-00Z"
	})

	path, err := writer.Write(ctx, domain.ReviewArtifact{
		OutputDir: dir,
		Project:   "group/repo",
		Reference: "main..feature",
		Provider:  "gemini",
		Model:     "gemini-2.0-flash",
		Response:  "No changes worth flagging.",
	})
	if err != nil {
		t.Fatalf("writer returned error: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}

	if strings.Contains(string(content), "## Annotated Diff") {
		t.Fatalf("expected no diff section: %s", string(content))
	}
}

func TestWriterSanitisesEmptyFields(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	writer := markdown.NewWriter(func() string {
		return "2026-01-01T00-00-00Z"
	})

	path, err := writer.Write(ctx, domain.ReviewArtifact{
		OutputDir: dir,
		Response:  "text",
	})
	if err != nil {
		t.Fatalf("writer returned error: %v", err)
	}

	if filepath.Base(path) != "unknown_unknown_unknown_2026-01-01T00-00-00Z.md" {
		t.Fatalf("unexpected filename: %s", filepath.Base(path))
	}
}
