// Package diff parses unified diff hunks and rewrites them into
// line-number-annotated text for LLM prompts.
//
// The GitLab merge request changes API returns a bare hunk sequence per
// file (no "diff --git" preamble). Annotate prefixes every added, removed,
// and context line with its resolved line number so the model can cite
// exact coordinates, and Parse exposes the same resolution for anchoring
// inline discussion notes back onto the new file.
//
// Added and context lines are numbered against the new file, removed
// lines against the old file. New-file numbering is authoritative for
// context lines because suggestions are anchored to the new file.
package diff
