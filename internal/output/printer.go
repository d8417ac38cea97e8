// Package output renders recognition activity for the terminal.
// Styling uses lipgloss and falls back to plain text when the terminal has no
// color support or plain output was requested.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

// SemanticType defines the semantic meaning of output for consistent styling.
type SemanticType string

// Semantic types used by the printer.
const (
	SemanticPlain   SemanticType = "plain"
	SemanticInfo    SemanticType = "info"
	SemanticSuccess SemanticType = "success"
	SemanticWarning SemanticType = "warning"
	SemanticError   SemanticType = "error"
	SemanticHeard   SemanticType = "heard"
	SemanticPhrase  SemanticType = "phrase"
)

var styles = map[SemanticType]lipgloss.Style{
	SemanticInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	SemanticSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
	SemanticWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	SemanticError:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	SemanticHeard:   lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245")),
	SemanticPhrase:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
}

// Printer writes recognition output. It is safe for concurrent use.
type Printer struct {
	writer io.Writer
	plain  bool
	prefix string

	mu sync.Mutex
}

// NewPrinter creates a Printer writing to os.Stdout unless configured otherwise.
func NewPrinter(options ...Option) *Printer {
	p := &Printer{writer: os.Stdout}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Println outputs text with a newline.
func (p *Printer) Println(text string) {
	p.output(SemanticPlain, text)
}

// Printf outputs formatted text followed by a newline.
func (p *Printer) Printf(format string, args ...interface{}) {
	p.output(SemanticPlain, fmt.Sprintf(format, args...))
}

// Info outputs informational text.
func (p *Printer) Info(text string) {
	p.output(SemanticInfo, text)
}

// Success outputs success text.
func (p *Printer) Success(text string) {
	p.output(SemanticSuccess, text)
}

// Warning outputs warning text.
func (p *Printer) Warning(text string) {
	p.output(SemanticWarning, text)
}

// Error outputs error text.
func (p *Printer) Error(text string) {
	p.output(SemanticError, text)
}

// Heard shows the alternatives of a recognition result, best first.
func (p *Printer) Heard(alternatives []string) {
	p.output(SemanticHeard, "heard: "+strings.Join(alternatives, " | "))
}

// Matched shows which phrase a recognized sentence matched.
func (p *Printer) Matched(said, phrase string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	line := p.render(SemanticSuccess, "matched ") + p.render(SemanticPhrase, phrase) + " <- " + said
	p.write(line)
}

// NoMatch reports a result that matched no command.
func (p *Printer) NoMatch(alternatives []string) {
	p.output(SemanticWarning, "no command matched: "+strings.Join(alternatives, " | "))
}

// IsStylable reports whether output will carry ANSI styling.
func (p *Printer) IsStylable() bool {
	return !p.plain && lipgloss.ColorProfile() != termenv.Ascii
}

func (p *Printer) output(semantic SemanticType, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.write(p.render(semantic, text))
}

func (p *Printer) render(semantic SemanticType, text string) string {
	style, ok := styles[semantic]
	if !ok || !p.IsStylable() {
		return text
	}
	return style.Render(text)
}

// write strips escape sequences from plain output, including any that arrived
// inside transcripts.
func (p *Printer) write(line string) {
	if !p.IsStylable() {
		line = ansi.Strip(line)
	}
	_, _ = fmt.Fprintln(p.writer, p.prefix+line)
}
