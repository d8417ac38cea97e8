package output

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinter_Plain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(WithWriter(&buf), PlainText())

	p.Heard([]string{"hello", "yellow"})
	p.Matched("hello", "hello (there)")
	p.NoMatch([]string{"jello"})
	p.Info("listening")
	p.Printf("%d commands", 3)

	expected := "heard: hello | yellow\n" +
		"matched hello (there) <- hello\n" +
		"no command matched: jello\n" +
		"listening\n" +
		"3 commands\n"
	assert.Equal(t, expected, buf.String())
	assert.False(t, p.IsStylable())
}

func TestPrinter_PlainStripsEscapes(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(WithWriter(&buf), PlainText())

	p.Heard([]string{"\x1b[31mred\x1b[0m alert"})

	assert.Equal(t, "heard: red alert\n", buf.String())
}

func TestPrinter_Prefix(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(WithWriter(&buf), PlainText(), WithPrefix("» "))

	p.Error("boom")
	p.Warning("careful")
	p.Success("done")
	p.Println("plain")

	assert.Equal(t, "» boom\n» careful\n» done\n» plain\n", buf.String())
}

func TestPrinter_Styled(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI256)
	defer lipgloss.SetColorProfile(termenv.Ascii)

	var buf bytes.Buffer
	p := NewPrinter(WithWriter(&buf))

	require.True(t, p.IsStylable())
	p.Error("boom")

	assert.Contains(t, buf.String(), "boom")
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestPrinter_AsciiProfileIsPlain(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	var buf bytes.Buffer
	p := NewPrinter(WithWriter(&buf))
	p.Error("boom")

	assert.False(t, p.IsStylable())
	assert.Equal(t, "boom\n", buf.String())
}

func TestPrinter_MarkdownPlain(t *testing.T) {
	p := NewPrinter(PlainText())

	out, err := p.Markdown("# Help\n\n- item")

	require.NoError(t, err)
	assert.Equal(t, "# Help\n\n- item", out)
}

func TestCaptureBuffer(t *testing.T) {
	buf := NewCaptureBuffer()
	assert.Equal(t, []string{}, buf.Lines())

	p := NewPrinter(WithWriter(buf), PlainText())
	p.Println("one")
	p.Println("two")

	assert.Equal(t, []string{"one", "two"}, buf.Lines())
	assert.True(t, buf.Contains("two"))

	buf.Reset()
	assert.Empty(t, buf.String())
}

func TestCaptureOutput(t *testing.T) {
	out := CaptureOutput(func(p *Printer) {
		p.Matched("hello", "hello (there)")
	})

	assert.Equal(t, "matched hello (there) <- hello\n", out)
}
