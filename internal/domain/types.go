package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// FileDiff is one changed file as returned by the VCS changes endpoint.
// Only Diff is consumed by the annotation core; the paths anchor inline
// notes and artifact headings.
type FileDiff struct {
	OldPath     string
	NewPath     string
	Diff        string
	NewFile     bool
	RenamedFile bool
	DeletedFile bool
}

// MergeRequest captures the reviewed change set.
type MergeRequest struct {
	Project      string
	IID          int
	Title        string
	SourceBranch string
	TargetBranch string
	BaseSHA      string
	HeadSHA      string
	WebURL       string
	Files        []FileDiff
}

// ReviewRun records one completed review, keyed by a deterministic run
// ID so re-running against an unchanged head is detectable.
type ReviewRun struct {
	RunID     string
	Project   string
	MRIID     int
	HeadSHA   string
	Provider  string
	Model     string
	TokensIn  int
	TokensOut int
	PostedAt  time.Time
}

// ReviewArtifact encapsulates the inputs for the local artifact writer:
// the annotated diff that was sent and the raw model response.
type ReviewArtifact struct {
	OutputDir     string
	Project       string
	Reference     string // MR "!12" or "base..target" for local reviews
	Provider      string
	Model         string
	AnnotatedDiff string
	Response      string
}

// NewRunID derives a deterministic run identifier from the review
// coordinates. The same project/MR/head always hashes to the same ID.
func NewRunID(project string, mrIID int, headSHA string) string {
	payload := fmt.Sprintf("%s|%d|%s", project, mrIID, headSHA)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
