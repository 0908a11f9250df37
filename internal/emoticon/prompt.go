package emoticon

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"text/template"

	"github.com/sashabaranov/go-openai"
)

// DefaultPromptTemplate is the instruction shown to the model. Fields: .Names (comma
// joined), .Example (a formatted marker), .Single (one emoticon per reply), .Count.
const DefaultPromptTemplate = `You can use emoticon images in this conversation to express emotions, moods and attitudes. ` +
	`To send one, write its name as {{.Example}}; the user sees the image and the marker is removed from your reply. ` +
	`{{if .Single}}Use at most one emoticon per reply. {{end}}` +
	`Available emoticons: {{.Names}}.`

// PromptBuilder renders the system-role emoticon instruction.
type PromptBuilder struct {
	tmpl   *template.Template
	syntax Syntax
	single bool
}

// NewPromptBuilder parses tmpl, falling back to DefaultPromptTemplate when empty.
func NewPromptBuilder(tmpl string, syntax Syntax, single bool) (*PromptBuilder, error) {
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultPromptTemplate
	}
	t, err := template.New("emoticon_prompt").Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parsing emoticon prompt template: %w", err)
	}
	return &PromptBuilder{tmpl: t, syntax: syntax, single: single}, nil
}

// Instruction builds the system message for catalog.
func (b *PromptBuilder) Instruction(catalog *Catalog) (openai.ChatCompletionMessage, error) {
	names := catalog.Names()
	example := "name"
	if len(names) > 0 {
		example = names[0]
	}
	data := struct {
		Names   string
		Example string
		Single  bool
		Count   int
	}{
		Names:   strings.Join(names, ", "),
		Example: b.syntax.Format(example),
		Single:  b.single,
		Count:   len(names),
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return openai.ChatCompletionMessage{}, fmt.Errorf("rendering emoticon prompt: %w", err)
	}
	return openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: buf.String(),
	}, nil
}

// Augment inserts instruction right after the last user message in prompt, or appends
// it when there is none. The returned slice may share prompt's backing array.
func Augment(prompt []openai.ChatCompletionMessage, instruction openai.ChatCompletionMessage) []openai.ChatCompletionMessage {
	lastUser := -1
	for i, msg := range prompt {
		if msg.Role == openai.ChatMessageRoleUser {
			lastUser = i
		}
	}
	if lastUser == -1 {
		return append(prompt, instruction)
	}
	return slices.Insert(prompt, lastUser+1, instruction)
}
