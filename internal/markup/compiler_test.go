package markup_test

import (
	"strings"
	"testing"

	"github.com/tbraack/critique/internal/adf"
	"github.com/tbraack/critique/internal/markup"
)

func compile(t *testing.T, text string, opts markup.Options) []adf.BlockNode {
	t.Helper()
	return markup.Compile(text, opts).Content
}

func paragraphText(t *testing.T, node adf.BlockNode) string {
	t.Helper()
	p, ok := node.(adf.Paragraph)
	if !ok {
		t.Fatalf("expected Paragraph, got %T", node)
	}
	if len(p.Inlines) == 0 {
		return ""
	}
	return p.Inlines[0].Value
}

func TestCompile_WholeLineBold(t *testing.T) {
	nodes := compile(t, "**Done**", markup.Options{})

	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}
	p, ok := nodes[0].(adf.Paragraph)
	if !ok {
		t.Fatalf("expected Paragraph, got %T", nodes[0])
	}
	if len(p.Inlines) != 1 {
		t.Fatalf("expected 1 inline, got %d", len(p.Inlines))
	}
	if p.Inlines[0].Value != "Done" || !p.Inlines[0].Bold {
		t.Errorf("expected bold %q, got %+v", "Done", p.Inlines[0])
	}
}

func TestCompile_InlineBoldStrippedNotMarked(t *testing.T) {
	nodes := compile(t, "this is **important** stuff", markup.Options{})

	if got := paragraphText(t, nodes[0]); got != "this is important stuff" {
		t.Errorf("got %q", got)
	}
	if nodes[0].(adf.Paragraph).Inlines[0].Bold {
		t.Error("partial bold must not produce a strong mark")
	}
}

func TestCompile_StarBulletsNesting(t *testing.T) {
	nodes := compile(t, "* Top\n** Nested\n* Back\n", markup.Options{Bullets: markup.BulletStar})

	if len(nodes) != 1 {
		t.Fatalf("expected a single bullet list, got %d nodes", len(nodes))
	}
	list, ok := nodes[0].(adf.BulletList)
	if !ok {
		t.Fatalf("expected BulletList, got %T", nodes[0])
	}
	if len(list.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(list.Items))
	}

	want := []string{"Top", "  Nested", "Back"}
	for i, item := range list.Items {
		got := paragraphText(t, item.Children[0])
		if got != want[i] {
			t.Errorf("item %d: got %q, want %q", i, got, want[i])
		}
	}
}

func TestCompile_DotBulletsFlat(t *testing.T) {
	nodes := compile(t, "• first\n• second\n", markup.Options{Bullets: markup.BulletDot})

	list, ok := nodes[0].(adf.BulletList)
	if !ok {
		t.Fatalf("expected BulletList, got %T", nodes[0])
	}
	if len(list.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(list.Items))
	}
	if got := paragraphText(t, list.Items[1].Children[0]); got != "second" {
		t.Errorf("got %q", got)
	}
}

func TestCompile_PlainLineClosesList(t *testing.T) {
	nodes := compile(t, "* one\n* two\nafter\n", markup.Options{})

	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	if _, ok := nodes[0].(adf.BulletList); !ok {
		t.Fatalf("expected BulletList first, got %T", nodes[0])
	}
	if got := paragraphText(t, nodes[1]); got != "after" {
		t.Errorf("got %q", got)
	}
}

func TestCompile_ListStillOpenAtEOF(t *testing.T) {
	nodes := compile(t, "intro\n* a\n* b", markup.Options{})

	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	if _, ok := nodes[1].(adf.BulletList); !ok {
		t.Errorf("expected trailing BulletList, got %T", nodes[1])
	}
}

func TestCompile_CodeBlock(t *testing.T) {
	nodes := compile(t, "```js\nconst x = 1;\n```\n", markup.Options{})

	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}
	cb, ok := nodes[0].(adf.CodeBlock)
	if !ok {
		t.Fatalf("expected CodeBlock, got %T", nodes[0])
	}
	if cb.Language != "js" {
		t.Errorf("expected language js, got %q", cb.Language)
	}
	if cb.Text != "const x = 1;\n" {
		t.Errorf("expected verbatim body, got %q", cb.Text)
	}
}

func TestCompile_CodeBlockNeverInterpreted(t *testing.T) {
	text := "```\n# not a heading\n\n* not a bullet\n**not bold**\n```\n"
	nodes := compile(t, text, markup.Options{BlankLines: markup.BlankEmptyParagraph})

	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}
	cb := nodes[0].(adf.CodeBlock)
	if cb.Language != "text" {
		t.Errorf("expected default language, got %q", cb.Language)
	}
	want := "# not a heading\n\n* not a bullet\n**not bold**\n"
	if cb.Text != want {
		t.Errorf("got %q, want %q", cb.Text, want)
	}
}

func TestCompile_UnclosedFenceFlushedAtEOF(t *testing.T) {
	nodes := compile(t, "```go\npackage main\n", markup.Options{})

	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}
	cb := nodes[0].(adf.CodeBlock)
	if cb.Language != "go" || cb.Text != "package main\n" {
		t.Errorf("unexpected code block: %+v", cb)
	}
}

func TestCompile_BlankLinePolicies(t *testing.T) {
	text := "one\n\ntwo\n"

	skipped := compile(t, text, markup.Options{BlankLines: markup.BlankSkip})
	if len(skipped) != 2 {
		t.Errorf("skip policy: expected 2 nodes, got %d", len(skipped))
	}

	kept := compile(t, text, markup.Options{BlankLines: markup.BlankEmptyParagraph})
	if len(kept) != 3 {
		t.Fatalf("empty-paragraph policy: expected 3 nodes, got %d", len(kept))
	}
	empty, ok := kept[1].(adf.Paragraph)
	if !ok || len(empty.Inlines) != 0 {
		t.Errorf("expected empty paragraph, got %+v", kept[1])
	}
}

func TestCompile_Scenario(t *testing.T) {
	nodes := compile(t, "### Title\n**Bold line**\n\nPlain text\n",
		markup.Options{BlankLines: markup.BlankEmptyParagraph})

	if len(nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(nodes))
	}

	h, ok := nodes[0].(adf.Heading)
	if !ok || h.Level != 3 || h.Text != "Title" {
		t.Errorf("unexpected heading: %+v", nodes[0])
	}

	bold := nodes[1].(adf.Paragraph)
	if !bold.Inlines[0].Bold || bold.Inlines[0].Value != "Bold line" {
		t.Errorf("unexpected bold paragraph: %+v", bold)
	}

	if got := paragraphText(t, nodes[2]); got != "" {
		t.Errorf("expected empty paragraph, got %q", got)
	}
	if got := paragraphText(t, nodes[3]); got != "Plain text" {
		t.Errorf("got %q", got)
	}
}

func TestCompile_HeadingLevels(t *testing.T) {
	nodes := compile(t, "# One\n## Two\n### Three\n", markup.Options{})

	for i, wantLevel := range []int{1, 2, 3} {
		h, ok := nodes[i].(adf.Heading)
		if !ok {
			t.Fatalf("node %d: expected Heading, got %T", i, nodes[i])
		}
		if h.Level != wantLevel {
			t.Errorf("node %d: expected level %d, got %d", i, wantLevel, h.Level)
		}
	}
}

func TestCompile_HashWithoutSpaceIsPlain(t *testing.T) {
	nodes := compile(t, "#hashtag\n", markup.Options{})

	if _, ok := nodes[0].(adf.Heading); ok {
		t.Fatal("expected plain paragraph, got heading")
	}
	if got := paragraphText(t, nodes[0]); got != "#hashtag" {
		t.Errorf("got %q", got)
	}
}

func TestCompile_HeadingClosesList(t *testing.T) {
	nodes := compile(t, "* item\n## Next\n", markup.Options{})

	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	if _, ok := nodes[0].(adf.BulletList); !ok {
		t.Errorf("expected list before heading, got %T", nodes[0])
	}
	if _, ok := nodes[1].(adf.Heading); !ok {
		t.Errorf("expected heading, got %T", nodes[1])
	}
}

func TestCompile_TotalOverArbitraryInput(t *testing.T) {
	inputs := []string{
		"",
		"\n\n\n",
		"****",
		"``",
		"@@ -1,2 +3,4 @@",
		strings.Repeat("*", 40),
	}
	for _, input := range inputs {
		// Must not panic, whatever the input.
		markup.Compile(input, markup.Options{})
		markup.Compile(input, markup.Options{BlankLines: markup.BlankEmptyParagraph, Bullets: markup.BulletDot})
	}
}

func TestCompile_ParagraphRoundTrip(t *testing.T) {
	// Recompiling the plain-text reconstruction of a paragraph-only
	// document yields an equivalent tree.
	text := "first line\nsecond line\nthird line"
	first := compile(t, text, markup.Options{})

	var rebuilt []string
	for _, node := range first {
		rebuilt = append(rebuilt, paragraphText(t, node))
	}
	second := compile(t, strings.Join(rebuilt, "\n"), markup.Options{})

	if len(first) != len(second) {
		t.Fatalf("expected %d nodes, got %d", len(first), len(second))
	}
	for i := range first {
		if paragraphText(t, first[i]) != paragraphText(t, second[i]) {
			t.Errorf("node %d differs after round trip", i)
		}
	}
}
