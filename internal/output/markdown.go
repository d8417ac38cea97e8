package output

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// Markdown renders markdown for the terminal, or returns it unchanged when the
// printer is plain.
func (p *Printer) Markdown(markdown string) (string, error) {
	if !p.IsStylable() {
		return markdown, nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	rendered, err := renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return rendered, nil
}
