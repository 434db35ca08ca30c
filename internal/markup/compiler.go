// Package markup compiles the constrained markup dialect emitted by the
// review model into an adf.Doc. The dialect covers headings (#..######),
// whole-line bold (**text**), bullet lists (either flat "•" bullets or
// "*" bullets whose repetition count is the nesting depth), fenced code
// blocks with an optional language tag, and plain paragraphs.
//
// Compile is total over arbitrary text: anything it cannot classify
// degrades to a plain paragraph, so an ill-formed model response never
// breaks the downstream posting step.
package markup

import (
	"strings"

	"github.com/tbraack/critique/internal/adf"
)

// BlankLinePolicy controls what a blank input line produces.
type BlankLinePolicy int

const (
	// BlankSkip drops blank lines entirely.
	BlankSkip BlankLinePolicy = iota
	// BlankEmptyParagraph emits an empty paragraph per blank line.
	BlankEmptyParagraph
)

// BulletDialect selects the bullet marker convention.
type BulletDialect int

const (
	// BulletStar recognizes "*" bullets where the marker count is the
	// nesting depth ("** item" is depth 2).
	BulletStar BulletDialect = iota
	// BulletDot recognizes flat "•" bullets only.
	BulletDot
)

// Options configures per-caller compiler behavior.
type Options struct {
	BlankLines BlankLinePolicy
	Bullets    BulletDialect
}

const fence = "```"

// defaultCodeLanguage is used when a fence carries no language tag.
const defaultCodeLanguage = "text"

// Compile converts markup text into a document tree in a single
// left-to-right scan. It never fails.
func Compile(text string, opts Options) adf.Doc {
	c := compiler{opts: opts}
	if text != "" {
		for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
			c.consume(line)
		}
	}
	return c.finish()
}

// compiler is the scan accumulator: the Normal/InCodeBlock state toggle,
// the code buffer, and the currently open bullet list.
type compiler struct {
	opts Options

	blocks   []adf.BlockNode
	openList *adf.BulletList

	inCodeBlock  bool
	codeLanguage string
	codeBuffer   strings.Builder
}

func (c *compiler) consume(line string) {
	trimmed := strings.TrimSpace(line)

	// Fence markers take priority over everything; inside a code block
	// nothing else is interpreted.
	if c.inCodeBlock {
		if strings.HasPrefix(trimmed, fence) {
			c.closeCodeBlock()
			return
		}
		c.codeBuffer.WriteString(line)
		c.codeBuffer.WriteString("\n")
		return
	}
	if strings.HasPrefix(trimmed, fence) {
		c.codeLanguage = strings.TrimSpace(strings.TrimPrefix(trimmed, fence))
		if c.codeLanguage == "" {
			c.codeLanguage = defaultCodeLanguage
		}
		c.codeBuffer.Reset()
		c.inCodeBlock = true
		return
	}

	if level, text, ok := headingLine(trimmed); ok {
		c.emit(adf.Heading{Level: level, Text: text})
		return
	}

	if text, ok := c.bulletLine(trimmed); ok {
		c.appendListItem(text)
		return
	}

	if inner, ok := wholeLineBold(trimmed); ok {
		c.emit(adf.Paragraph{Inlines: []adf.Text{{Value: inner, Bold: true}}})
		return
	}

	if trimmed == "" {
		if c.opts.BlankLines == BlankEmptyParagraph {
			c.emit(adf.Paragraph{})
		}
		return
	}

	// Plain paragraph. Stray bold markers are stripped but not upgraded
	// to a mark in this dialect.
	text := strings.ReplaceAll(trimmed, "**", "")
	if text == "" {
		c.emit(adf.Paragraph{})
		return
	}
	c.emit(adf.Paragraph{Inlines: []adf.Text{{Value: text}}})
}

// finish flushes the remaining state at end of input: an unclosed fence
// becomes a code block, an open list becomes the final node.
func (c *compiler) finish() adf.Doc {
	if c.inCodeBlock {
		c.closeCodeBlock()
	}
	c.flushList()
	return adf.Doc{Content: c.blocks}
}

// emit closes any open bullet list, then appends the block.
func (c *compiler) emit(block adf.BlockNode) {
	c.flushList()
	c.blocks = append(c.blocks, block)
}

func (c *compiler) flushList() {
	if c.openList != nil {
		c.blocks = append(c.blocks, *c.openList)
		c.openList = nil
	}
}

func (c *compiler) closeCodeBlock() {
	c.emit(adf.CodeBlock{Language: c.codeLanguage, Text: c.codeBuffer.String()})
	c.inCodeBlock = false
	c.codeBuffer.Reset()
}

func (c *compiler) appendListItem(text string) {
	if c.openList == nil {
		c.openList = &adf.BulletList{}
	}
	c.openList.Items = append(c.openList.Items, adf.ListItem{
		Children: []adf.BlockNode{
			adf.Paragraph{Inlines: []adf.Text{{Value: text}}},
		},
	})
}

// bulletLine reports whether the trimmed line is a bullet in the
// configured dialect, returning the item text (depth-indented for the
// star dialect, two spaces per extra level).
func (c *compiler) bulletLine(trimmed string) (string, bool) {
	switch c.opts.Bullets {
	case BulletDot:
		if !strings.HasPrefix(trimmed, "•") {
			return "", false
		}
		return strings.TrimSpace(strings.TrimPrefix(trimmed, "•")), true
	default:
		depth := 0
		for depth < len(trimmed) && trimmed[depth] == '*' {
			depth++
		}
		// Require a space after the markers; this keeps "**Bold**"
		// lines out of the bullet case.
		if depth == 0 || depth >= len(trimmed) || trimmed[depth] != ' ' {
			return "", false
		}
		content := strings.TrimSpace(trimmed[depth:])
		return strings.Repeat("  ", depth-1) + content, true
	}
}

// headingLine reports whether the trimmed line is a heading: one to six
// '#' markers followed by a space (or nothing).
func headingLine(trimmed string) (int, string, bool) {
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, "", false
	}
	rest := trimmed[level:]
	if rest != "" && !strings.HasPrefix(rest, " ") {
		return 0, "", false
	}
	return level, strings.TrimSpace(rest), true
}

// wholeLineBold reports whether the entire trimmed line is wrapped in
// a single pair of ** delimiters, returning the inner text.
func wholeLineBold(trimmed string) (string, bool) {
	if len(trimmed) < 5 || !strings.HasPrefix(trimmed, "**") || !strings.HasSuffix(trimmed, "**") {
		return "", false
	}
	inner := trimmed[2 : len(trimmed)-2]
	if inner == "" || strings.Contains(inner, "**") {
		return "", false
	}
	return inner, true
}
