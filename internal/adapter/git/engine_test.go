package git_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/tbraack/critique/internal/adapter/git"
)

func TestSourceDiffBetweenBranches(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()

	repo, err := goGit.PlainInit(tmp, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}

	writeFile(t, tmp, "main.go", "package main\n\nfunc main() {\n\tprintln(\"hello\")\n}\n")
	if _, err := worktree.Add("main.go"); err != nil {
		t.Fatalf("add error: %v", err)
	}
	if _, err := worktree.Commit("initial", &goGit.CommitOptions{Author: defaultSignature()}); err != nil {
		t.Fatalf("commit error: %v", err)
	}
	if err := checkoutBranch(worktree, "feature"); err != nil {
		t.Fatalf("checkout error: %v", err)
	}

	writeFile(t, tmp, "main.go", "package main\n\nfunc main() {\n\tprintln(\"feature\")\n}\n")
	if _, err := worktree.Add("main.go"); err != nil {
		t.Fatalf("add error: %v", err)
	}
	if _, err := worktree.Commit("feature change", &goGit.CommitOptions{Author: defaultSignature()}); err != nil {
		t.Fatalf("feature commit error: %v", err)
	}

	source := git.NewSource(tmp)
	files, err := source.Diff(ctx, "master", "feature")
	if err != nil {
		t.Fatalf("Diff returned error: %v", err)
	}

	if len(files) != 1 {
		t.Fatalf("expected 1 file diff, got %d", len(files))
	}
	if files[0].NewPath != "main.go" {
		t.Fatalf("expected main.go, got %s", files[0].NewPath)
	}
	if files[0].NewFile || files[0].DeletedFile || files[0].RenamedFile {
		t.Fatalf("expected plain modification, got %+v", files[0])
	}
	if !strings.HasPrefix(files[0].Diff, "@@") {
		t.Fatalf("expected diff to start with a hunk header, got %q", files[0].Diff)
	}
	if !strings.Contains(files[0].Diff, "feature") {
		t.Fatalf("expected diff to include change: %s", files[0].Diff)
	}
}

func TestSourceDiffReportsNewFile(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()

	repo, err := goGit.PlainInit(tmp, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}

	writeFile(t, tmp, "main.go", "package main\n")
	if _, err := worktree.Add("main.go"); err != nil {
		t.Fatalf("add error: %v", err)
	}
	if _, err := worktree.Commit("initial", &goGit.CommitOptions{Author: defaultSignature()}); err != nil {
		t.Fatalf("commit error: %v", err)
	}
	if err := checkoutBranch(worktree, "feature"); err != nil {
		t.Fatalf("checkout error: %v", err)
	}

	writeFile(t, tmp, "helper.go", "package main\n\nfunc helper() {}\n")
	if _, err := worktree.Add("helper.go"); err != nil {
		t.Fatalf("add error: %v", err)
	}
	if _, err := worktree.Commit("add helper", &goGit.CommitOptions{Author: defaultSignature()}); err != nil {
		t.Fatalf("commit error: %v", err)
	}

	source := git.NewSource(tmp)
	files, err := source.Diff(ctx, "master", "feature")
	if err != nil {
		t.Fatalf("Diff returned error: %v", err)
	}

	if len(files) != 1 {
		t.Fatalf("expected 1 file diff, got %d", len(files))
	}
	if !files[0].NewFile {
		t.Fatalf("expected new file flag, got %+v", files[0])
	}
	if files[0].NewPath != "helper.go" {
		t.Fatalf("expected helper.go, got %s", files[0].NewPath)
	}
}

func TestSourceIncludesUncommittedChanges(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()

	repo, err := goGit.PlainInit(tmp, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}

	writeFile(t, tmp, "main.go", "package main\n\nfunc main() {\n\tprintln(\"hello\")\n}\n")
	if _, err := worktree.Add("main.go"); err != nil {
		t.Fatalf("add error: %v", err)
	}
	if _, err := worktree.Commit("initial", &goGit.CommitOptions{Author: defaultSignature()}); err != nil {
		t.Fatalf("commit error: %v", err)
	}

	// Modify without committing.
	writeFile(t, tmp, "main.go", "package main\n\nfunc main() {\n\tprintln(\"working tree change\")\n}\n")

	source := git.NewSource(tmp)
	source.SetIncludeUncommitted(true)
	files, err := source.Diff(ctx, "master", "master")
	if err != nil {
		t.Fatalf("Diff returned error: %v", err)
	}

	if len(files) != 1 {
		t.Fatalf("expected 1 file diff, got %d", len(files))
	}
	if !strings.Contains(files[0].Diff, "working tree change") {
		t.Fatalf("expected diff to include working tree change, got %s", files[0].Diff)
	}
}

func TestCurrentBranch(t *testing.T) {
	tmp := t.TempDir()

	repo, err := goGit.PlainInit(tmp, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}

	writeFile(t, tmp, "main.go", "package main\n")
	if _, err := worktree.Add("main.go"); err != nil {
		t.Fatalf("add error: %v", err)
	}
	if _, err := worktree.Commit("initial", &goGit.CommitOptions{Author: defaultSignature()}); err != nil {
		t.Fatalf("commit error: %v", err)
	}
	if err := checkoutBranch(worktree, "feature/proj-9"); err != nil {
		t.Fatalf("checkout error: %v", err)
	}

	source := git.NewSource(tmp)
	branch, err := source.CurrentBranch(context.Background())
	if err != nil {
		t.Fatalf("CurrentBranch returned error: %v", err)
	}
	if branch != "feature/proj-9" {
		t.Fatalf("expected feature/proj-9, got %s", branch)
	}
}

func TestIsBinaryPatch(t *testing.T) {
	tests := []struct {
		name     string
		patch    string
		expected bool
	}{
		{
			name:     "binary files differ",
			patch:    "Binary files a/image.png and b/image.png differ\n",
			expected: true,
		},
		{
			name:     "GIT binary patch",
			patch:    "GIT binary patch\nliteral 1234\n...",
			expected: true,
		},
		{
			name:     "normal text diff",
			patch:    "@@ -1,3 +1,4 @@\n context\n+added\n",
			expected: false,
		},
		{
			name:     "empty patch",
			patch:    "",
			expected: false,
		},
		{
			name:     "patch mentioning binary in content",
			patch:    "@@ -1,1 +1,1 @@\n-// Binary files are not supported\n+// Binary files are now supported\n",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := git.IsBinaryPatch(tt.patch)
			if got != tt.expected {
				t.Errorf("IsBinaryPatch(%q) = %v, want %v", tt.patch, got, tt.expected)
			}
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write file error: %v", err)
	}
}

func defaultSignature() *object.Signature {
	return &object.Signature{
		Name:  "Test",
		Email: "test@example.com",
		When:  time.Unix(0, 0),
	}
}

func checkoutBranch(worktree *goGit.Worktree, branch string) error {
	return worktree.Checkout(&goGit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
		Create: true,
	})
}
