// Package git produces per-file diffs from a local repository, backed
// by go-git with a git-CLI fallback for working tree changes.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	formatdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/tbraack/critique/internal/domain"
)

// Source implements the local diff source port.
type Source struct {
	repoDir            string
	includeUncommitted bool
}

// NewSource constructs a diff source for the provided repository
// directory.
func NewSource(repoDir string) *Source {
	return &Source{repoDir: repoDir}
}

// SetIncludeUncommitted makes Diff include working tree changes on top
// of the base ref instead of the committed target ref.
func (s *Source) SetIncludeUncommitted(include bool) {
	s.includeUncommitted = include
}

// Diff computes per-file diffs between the supplied refs.
func (s *Source) Diff(ctx context.Context, baseRef, targetRef string) ([]domain.FileDiff, error) {
	repo, err := goGit.PlainOpenWithOptions(s.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	baseCommit, err := resolveCommit(repo, baseRef)
	if err != nil {
		return nil, fmt.Errorf("resolve base ref: %w", err)
	}

	if s.includeUncommitted {
		return diffWithWorkingTree(ctx, s.repoDir, baseRef)
	}

	targetCommit, err := resolveCommit(repo, targetRef)
	if err != nil {
		return nil, fmt.Errorf("resolve target ref: %w", err)
	}

	patch, err := baseCommit.Patch(targetCommit)
	if err != nil {
		return nil, fmt.Errorf("compute patch: %w", err)
	}

	fileDiffs := make([]domain.FileDiff, 0, len(patch.FilePatches()))
	for _, fp := range patch.FilePatches() {
		fileDiff := filePatchPaths(fp)

		patchText, err := encodeFilePatch(fp)
		if err != nil {
			return nil, fmt.Errorf("encode patch: %w", err)
		}
		if IsBinaryPatch(patchText) {
			continue
		}
		fileDiff.Diff = hunksOnly(patchText)
		fileDiffs = append(fileDiffs, fileDiff)
	}

	return fileDiffs, nil
}

// CurrentBranch returns the name of the checked-out branch.
func (s *Source) CurrentBranch(ctx context.Context) (string, error) {
	repo, err := goGit.PlainOpenWithOptions(s.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repo: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	name := head.Name()
	if name.IsBranch() {
		return name.Short(), nil
	}
	return "", fmt.Errorf("detached HEAD")
}

func resolveCommit(repo *goGit.Repository, ref string) (*object.Commit, error) {
	candidates := []string{
		ref,
		fmt.Sprintf("refs/heads/%s", ref),
		fmt.Sprintf("refs/remotes/origin/%s", ref),
	}

	var lastErr error
	for _, candidate := range candidates {
		name := plumbing.Revision(candidate)
		hash, err := repo.ResolveRevision(name)
		if err != nil {
			lastErr = err
			continue
		}
		return repo.CommitObject(*hash)
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("unable to resolve ref %s", ref)
}

// filePatchPaths maps a go-git file patch to old/new paths and flags.
// For renamed files the new path wins; for deletions the old path is
// carried into both fields so the reviewer can still name the file.
func filePatchPaths(fp formatdiff.FilePatch) domain.FileDiff {
	from, to := fp.Files()

	switch {
	case from == nil && to != nil:
		return domain.FileDiff{OldPath: to.Path(), NewPath: to.Path(), NewFile: true}
	case from != nil && to == nil:
		return domain.FileDiff{OldPath: from.Path(), NewPath: from.Path(), DeletedFile: true}
	case from != nil && to != nil:
		if from.Path() != to.Path() {
			return domain.FileDiff{OldPath: from.Path(), NewPath: to.Path(), RenamedFile: true}
		}
		return domain.FileDiff{OldPath: from.Path(), NewPath: to.Path()}
	default:
		return domain.FileDiff{}
	}
}

// IsBinaryPatch checks if a patch represents a binary file.
// Git uses "Binary files ... differ" or "GIT binary patch" in the patch
// for binary files. Only line-initial markers count, so diffs whose
// content mentions binary files are not misclassified.
func IsBinaryPatch(patchText string) bool {
	for _, line := range strings.Split(patchText, "\n") {
		if strings.HasPrefix(line, "Binary files ") || strings.HasPrefix(line, "GIT binary patch") {
			return true
		}
	}
	return false
}

// hunksOnly strips the file header lines (diff --git, index, ---, +++)
// so only "@@" hunks remain, matching the shape the annotator expects.
func hunksOnly(patchText string) string {
	idx := -1
	if strings.HasPrefix(patchText, "@@") {
		idx = 0
	} else if i := strings.Index(patchText, "\n@@"); i >= 0 {
		idx = i + 1
	}
	if idx < 0 {
		return ""
	}
	return patchText[idx:]
}

func diffWithWorkingTree(ctx context.Context, repoDir, baseRef string) ([]domain.FileDiff, error) {
	statusOut, err := runGitCommand(ctx, repoDir, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("git status: %w", err)
	}

	trimmed := strings.TrimRight(statusOut, "\r\n")
	if trimmed == "" {
		return []domain.FileDiff{}, nil
	}
	lines := strings.Split(trimmed, "\n")
	diffs := make([]domain.FileDiff, 0, len(lines))
	for _, line := range lines {
		if len(line) < 3 {
			continue
		}
		statusChar := selectStatusChar(line)
		path, oldPath := extractPathAndOldPath(line)
		patchOut, err := runGitCommand(ctx, repoDir, "diff", baseRef, "--", path)
		if err != nil {
			return nil, fmt.Errorf("git diff %s: %w", path, err)
		}
		if IsBinaryPatch(patchOut) {
			continue
		}
		fileDiff := domain.FileDiff{
			OldPath: path,
			NewPath: path,
			Diff:    hunksOnly(patchOut),
		}
		switch statusChar {
		case 'A', '?':
			fileDiff.NewFile = true
		case 'D':
			fileDiff.DeletedFile = true
		case 'R':
			fileDiff.RenamedFile = true
			fileDiff.OldPath = oldPath
		}
		diffs = append(diffs, fileDiff)
	}
	return diffs, nil
}

func runGitCommand(ctx context.Context, repoDir string, args ...string) (string, error) {
	fullArgs := append([]string{"-C", repoDir}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("git %v: %w", args, ctx.Err())
		}
		if stderr.Len() > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("git %v: %w", args, err)
	}
	return stdout.String(), nil
}

func selectStatusChar(line string) rune {
	if len(line) < 2 {
		return 'M'
	}
	first := rune(line[0])
	second := rune(line[1])
	switch {
	case second != ' ':
		return second
	case first != ' ':
		return first
	default:
		return 'M'
	}
}

func encodeFilePatch(fp formatdiff.FilePatch) (string, error) {
	var buf bytes.Buffer
	encoder := formatdiff.NewUnifiedEncoder(&buf, formatdiff.DefaultContextLines)
	if err := encoder.Encode(singlePatch{fp: fp}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type singlePatch struct {
	fp formatdiff.FilePatch
}

func (s singlePatch) FilePatches() []formatdiff.FilePatch {
	return []formatdiff.FilePatch{s.fp}
}

func (s singlePatch) Message() string {
	return ""
}

// extractPathAndOldPath extracts the current path and, for renames, the
// previous path from a porcelain status line ("R  old -> new").
func extractPathAndOldPath(line string) (path, oldPath string) {
	if len(line) <= 3 {
		return strings.TrimSpace(line), ""
	}
	pathPart := strings.TrimSpace(line[3:])
	if strings.Contains(pathPart, " -> ") {
		parts := strings.Split(pathPart, " -> ")
		if len(parts) == 2 {
			return strings.TrimSpace(parts[1]), strings.TrimSpace(parts[0])
		}
	}
	return pathPart, ""
}
