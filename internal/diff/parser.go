package diff

import (
	"strconv"
	"strings"
)

// LineType represents the type of a line in a diff.
type LineType int

const (
	// LineContext represents an unchanged context line (starts with ' ').
	LineContext LineType = iota
	// LineAddition represents an added line (starts with '+').
	LineAddition
	// LineDeletion represents a deleted line (starts with '-').
	LineDeletion
)

// Line represents a single line in a diff hunk.
type Line struct {
	Type    LineType // The type of change
	Content string   // The line content (without the prefix)
	OldLine int      // Line number in the old file (0 for additions)
	NewLine int      // Line number in the new file (0 for deletions)
}

// Hunk represents a single @@ hunk in a unified diff.
type Hunk struct {
	OldStart int    // Starting line in old file
	OldLines int    // Number of lines from old file
	NewStart int    // Starting line in new file
	NewLines int    // Number of lines in new file
	Lines    []Line // The lines in this hunk
}

// Diff represents the parsed hunks of a single file's diff.
type Diff struct {
	Hunks []Hunk
}

// Parse parses a unified diff string into a Diff.
// It is total over arbitrary input: malformed hunk headers are skipped
// and content before the first valid header is ignored.
func Parse(patch string) Diff {
	result := Diff{}
	if patch == "" {
		return result
	}

	var currentHunk *Hunk
	oldLine := 0
	newLine := 0

	for _, line := range splitLines(patch) {
		if strings.HasPrefix(line, "@@") {
			hunk, ok := parseHunkHeader(line)
			if !ok {
				continue
			}
			if currentHunk != nil {
				result.Hunks = append(result.Hunks, *currentHunk)
			}
			currentHunk = &hunk
			oldLine = hunk.OldStart - 1
			newLine = hunk.NewStart - 1
			continue
		}

		if currentHunk == nil {
			continue
		}

		diffLine := Line{}
		switch {
		case strings.HasPrefix(line, "+"):
			newLine++
			diffLine = Line{Type: LineAddition, Content: line[1:], NewLine: newLine}
		case strings.HasPrefix(line, "-"):
			oldLine++
			diffLine = Line{Type: LineDeletion, Content: line[1:], OldLine: oldLine}
		case strings.HasPrefix(line, " "):
			oldLine++
			newLine++
			diffLine = Line{Type: LineContext, Content: line[1:], OldLine: oldLine, NewLine: newLine}
		default:
			// No prefix at all. Treat as context (handles trimmed blank
			// context lines from some diff sources).
			oldLine++
			newLine++
			diffLine = Line{Type: LineContext, Content: line, OldLine: oldLine, NewLine: newLine}
		}
		currentHunk.Lines = append(currentHunk.Lines, diffLine)
	}

	if currentHunk != nil {
		result.Hunks = append(result.Hunks, *currentHunk)
	}

	return result
}

// FindLine returns the diff line for a given new-file line number.
// It returns false when the line is not present in the diff (deleted
// lines or regions outside the hunks), in which case an inline note
// cannot be anchored to it.
func (d Diff) FindLine(newLineNumber int) (Line, bool) {
	if newLineNumber <= 0 {
		return Line{}, false
	}
	for _, hunk := range d.Hunks {
		for _, line := range hunk.Lines {
			if line.NewLine == newLineNumber && line.Type != LineDeletion {
				return line, true
			}
		}
	}
	return Line{}, false
}

// parseHunkHeader parses a hunk header like "@@ -10,7 +10,8 @@ optional context".
// The second return value is false when the line does not carry both an
// old and a new range.
func parseHunkHeader(line string) (Hunk, bool) {
	parts := strings.Split(line, "@@")
	if len(parts) < 3 {
		return Hunk{}, false
	}

	hunk := Hunk{}
	haveOld := false
	haveNew := false
	for _, field := range strings.Fields(strings.TrimSpace(parts[1])) {
		switch {
		case strings.HasPrefix(field, "-"):
			start, count, ok := parseRange(strings.TrimPrefix(field, "-"))
			if !ok {
				return Hunk{}, false
			}
			hunk.OldStart = start
			hunk.OldLines = count
			haveOld = true
		case strings.HasPrefix(field, "+"):
			start, count, ok := parseRange(strings.TrimPrefix(field, "+"))
			if !ok {
				return Hunk{}, false
			}
			hunk.NewStart = start
			hunk.NewLines = count
			haveNew = true
		}
	}
	if !haveOld || !haveNew {
		return Hunk{}, false
	}
	return hunk, true
}

// parseRange parses "start,count" or "start" format.
func parseRange(s string) (start, count int, ok bool) {
	countPart := ""
	if idx := strings.Index(s, ","); idx >= 0 {
		countPart = s[idx+1:]
		s = s[:idx]
	}

	start, err := strconv.Atoi(s)
	if err != nil {
		return 0, 0, false
	}
	count = 1
	if countPart != "" {
		count, err = strconv.Atoi(countPart)
		if err != nil {
			return 0, 0, false
		}
	}
	return start, count, true
}

// splitLines splits diff text into lines, dropping the empty trailing
// element produced by a final newline.
func splitLines(patch string) []string {
	return strings.Split(strings.TrimSuffix(patch, "\n"), "\n")
}
