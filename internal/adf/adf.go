// Package adf models the subset of the Atlassian Document Format used
// for review comments: headings, paragraphs with optional strong marks,
// bullet lists, and code blocks.
//
// Node kinds are an explicit tagged union so the compiler in
// internal/markup gets exhaustiveness over the block cases, and each
// kind marshals to the exact wire shape the Jira comment API expects
// ("type", "attrs.level", "attrs.language", marks of type "strong").
package adf

import "encoding/json"

// BlockNode is a top-level document child: heading, paragraph,
// bullet list, or code block.
type BlockNode interface {
	json.Marshaler
	blockNode()
}

// Doc is the root document node.
type Doc struct {
	Content []BlockNode
}

// Document constructs a Doc from block nodes.
func Document(children ...BlockNode) Doc {
	return Doc{Content: children}
}

// MarshalJSON renders the root node as {"type":"doc","version":1,...}.
func (d Doc) MarshalJSON() ([]byte, error) {
	content := d.Content
	if content == nil {
		content = []BlockNode{}
	}
	return json.Marshal(struct {
		Type    string      `json:"type"`
		Version int         `json:"version"`
		Content []BlockNode `json:"content"`
	}{Type: "doc", Version: 1, Content: content})
}

// Text is an inline text node, optionally marked strong.
type Text struct {
	Value string
	Bold  bool
}

type strongMark struct {
	Type string `json:"type"`
}

func (t Text) MarshalJSON() ([]byte, error) {
	var marks []strongMark
	if t.Bold {
		marks = []strongMark{{Type: "strong"}}
	}
	return json.Marshal(struct {
		Type  string       `json:"type"`
		Text  string       `json:"text"`
		Marks []strongMark `json:"marks,omitempty"`
	}{Type: "text", Text: t.Value, Marks: marks})
}

// Heading is a heading block at a given level (1..6).
type Heading struct {
	Level int
	Text  string
}

func (Heading) blockNode() {}

func (h Heading) MarshalJSON() ([]byte, error) {
	var content []Text
	if h.Text != "" {
		content = []Text{{Value: h.Text}}
	}
	return json.Marshal(struct {
		Type  string `json:"type"`
		Attrs struct {
			Level int `json:"level"`
		} `json:"attrs"`
		Content []Text `json:"content,omitempty"`
	}{
		Type:    "heading",
		Attrs:   struct{ Level int `json:"level"` }{Level: h.Level},
		Content: content,
	})
}

// Paragraph is a paragraph block. An empty inline slice renders as an
// empty paragraph (blank line in Jira).
type Paragraph struct {
	Inlines []Text
}

func (Paragraph) blockNode() {}

func (p Paragraph) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    string `json:"type"`
		Content []Text `json:"content,omitempty"`
	}{Type: "paragraph", Content: p.Inlines})
}

// ListItem is a single bullet list entry, in practice one paragraph.
type ListItem struct {
	Children []BlockNode
}

func (li ListItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    string      `json:"type"`
		Content []BlockNode `json:"content"`
	}{Type: "listItem", Content: li.Children})
}

// BulletList is a flat list of items.
type BulletList struct {
	Items []ListItem
}

func (BulletList) blockNode() {}

func (bl BulletList) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    string     `json:"type"`
		Content []ListItem `json:"content"`
	}{Type: "bulletList", Content: bl.Items})
}

// CodeBlock is a fenced code block with a language attribute.
type CodeBlock struct {
	Language string
	Text     string
}

func (CodeBlock) blockNode() {}

func (cb CodeBlock) MarshalJSON() ([]byte, error) {
	var content []Text
	if cb.Text != "" {
		content = []Text{{Value: cb.Text}}
	}
	return json.Marshal(struct {
		Type  string `json:"type"`
		Attrs struct {
			Language string `json:"language"`
		} `json:"attrs"`
		Content []Text `json:"content,omitempty"`
	}{
		Type:    "codeBlock",
		Attrs:   struct{ Language string `json:"language"` }{Language: cb.Language},
		Content: content,
	})
}
