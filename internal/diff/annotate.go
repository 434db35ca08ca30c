package diff

import (
	"fmt"
	"strings"
)

// Annotate rewrites raw diff hunks so every line carries its resolved
// line number: "+{new} {content}" for additions, "-{old} {content}" for
// deletions, " {new} {content}" for context. Hunk headers pass through
// unchanged and re-base the counters for the lines that follow.
//
// The function is total: malformed headers pass through with the
// counters left at their prior value, and content before the first
// header is numbered from zero (caller error, not validated).
func Annotate(patch string) string {
	annotated, _ := annotate(patch, false)
	return annotated
}

// AnnotateVerbose behaves exactly like Annotate and additionally reports
// one warning per malformed hunk header, so callers can log suspect
// numbering without changing the output.
func AnnotateVerbose(patch string) (string, []string) {
	return annotate(patch, true)
}

func annotate(patch string, collectWarnings bool) (string, []string) {
	if patch == "" {
		return "", nil
	}

	var out []string
	var warnings []string
	oldLine := 0
	newLine := 0

	for i, line := range splitLines(patch) {
		if strings.HasPrefix(line, "@@") {
			if hunk, ok := parseHunkHeader(line); ok {
				oldLine = hunk.OldStart - 1
				newLine = hunk.NewStart - 1
			} else if collectWarnings {
				warnings = append(warnings, fmt.Sprintf("line %d: malformed hunk header %q", i+1, line))
			}
			out = append(out, line)
			continue
		}

		switch {
		case strings.HasPrefix(line, "+"):
			newLine++
			out = append(out, fmt.Sprintf("+%d %s", newLine, line[1:]))
		case strings.HasPrefix(line, "-"):
			oldLine++
			out = append(out, fmt.Sprintf("-%d %s", oldLine, line[1:]))
		case strings.HasPrefix(line, " "):
			oldLine++
			newLine++
			out = append(out, fmt.Sprintf(" %d %s", newLine, line[1:]))
		default:
			oldLine++
			newLine++
			out = append(out, fmt.Sprintf(" %d %s", newLine, line))
		}
	}

	return strings.Join(out, "\n"), warnings
}
