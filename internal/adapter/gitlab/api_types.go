package gitlab

import (
	"github.com/tbraack/critique/internal/diff"
	"github.com/tbraack/critique/internal/domain"
)

// mergeRequestChangesResponse mirrors the GitLab
// GET /projects/:id/merge_requests/:iid/changes payload (the fields we
// consume).
type mergeRequestChangesResponse struct {
	IID          int          `json:"iid"`
	Title        string       `json:"title"`
	SourceBranch string       `json:"source_branch"`
	TargetBranch string       `json:"target_branch"`
	WebURL       string       `json:"web_url"`
	DiffRefs     diffRefs     `json:"diff_refs"`
	Changes      []fileChange `json:"changes"`
}

type diffRefs struct {
	BaseSHA  string `json:"base_sha"`
	StartSHA string `json:"start_sha"`
	HeadSHA  string `json:"head_sha"`
}

type fileChange struct {
	OldPath     string `json:"old_path"`
	NewPath     string `json:"new_path"`
	Diff        string `json:"diff"`
	NewFile     bool   `json:"new_file"`
	RenamedFile bool   `json:"renamed_file"`
	DeletedFile bool   `json:"deleted_file"`
}

type noteRequest struct {
	Body string `json:"body"`
}

// Position anchors a discussion to a line of the new file, per GitLab's
// text position type.
type Position struct {
	BaseSHA      string `json:"base_sha"`
	StartSHA     string `json:"start_sha"`
	HeadSHA      string `json:"head_sha"`
	PositionType string `json:"position_type"`
	NewPath      string `json:"new_path"`
	OldPath      string `json:"old_path,omitempty"`
	NewLine      int    `json:"new_line,omitempty"`
	OldLine      int    `json:"old_line,omitempty"`
}

type discussionRequest struct {
	Body     string    `json:"body"`
	Position *Position `json:"position,omitempty"`
}

// PositionForLine builds a discussion position anchored at a new-file
// line, verifying the line is actually visible in the file's diff.
// Context lines need both old and new line numbers; deleted lines (and
// lines outside the hunks) cannot be anchored.
func PositionForLine(mr domain.MergeRequest, file domain.FileDiff, newLine int) (*Position, bool) {
	line, ok := diff.Parse(file.Diff).FindLine(newLine)
	if !ok {
		return nil, false
	}

	pos := &Position{
		BaseSHA:      mr.BaseSHA,
		StartSHA:     mr.BaseSHA,
		HeadSHA:      mr.HeadSHA,
		PositionType: "text",
		NewPath:      file.NewPath,
		OldPath:      file.OldPath,
		NewLine:      line.NewLine,
	}
	if line.Type == diff.LineContext {
		pos.OldLine = line.OldLine
	}
	return pos, true
}
