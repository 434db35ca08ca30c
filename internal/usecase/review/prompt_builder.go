package review

import (
	"bytes"
	"fmt"
	"text/template"
)

// AnnotatedFile is one changed file with its line-number-annotated diff.
type AnnotatedFile struct {
	Path      string
	Annotated string
}

// PromptData holds all data available to the prompt template.
type PromptData struct {
	Instructions string
	Title        string
	SourceBranch string
	TargetBranch string
	Files        []AnnotatedFile
}

// PromptBuilder renders the review prompt from a template.
type PromptBuilder struct {
	templateText string
}

// NewPromptBuilder creates a prompt builder with the default template.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{templateText: defaultPromptTemplate}
}

// SetTemplate replaces the default template.
func (b *PromptBuilder) SetTemplate(templateText string) {
	b.templateText = templateText
}

// Build renders the prompt for the given review data.
func (b *PromptBuilder) Build(data PromptData) (string, error) {
	tmpl, err := template.New("prompt").Parse(b.templateText)
	if err != nil {
		return "", fmt.Errorf("parse prompt template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt template: %w", err)
	}

	return buf.String(), nil
}

// defaultPromptTemplate asks for output in the markup subset the
// compiler understands, and for line references using the annotated
// numbers so suggestions can be anchored back onto the new file.
const defaultPromptTemplate = `You are a senior engineer reviewing a merge request.
{{- if .Title}}

Merge request: {{.Title}}{{end}}
{{- if .SourceBranch}}
Branches: {{.SourceBranch}} -> {{.TargetBranch}}{{end}}
{{- if .Instructions}}

Additional instructions:
{{.Instructions}}{{end}}

Each diff line below is prefixed with its resolved line number:
"+N" marks line N added in the new file, "-N" marks line N removed from
the old file, and " N" marks unchanged context at new-file line N.
Refer to lines by these numbers.

Format your review using only this markup:
- "##" or "###" headings for sections
- "*" bullets, repeat the marker for nesting ("** nested item")
- a whole line wrapped in ** for emphasis
- fenced code blocks with a language tag for code suggestions
- plain paragraphs otherwise

Changes under review:
{{range .Files}}
File: {{.Path}}
{{.Annotated}}
{{end}}`
