package shell

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/abiosoft/ishell/v2"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hark/internal/engine/textengine"
	"hark/internal/output"
	"hark/internal/testutils"
	"hark/pkg/recognition"
)

func newTestShell(t *testing.T, opts Options) (*Shell, *recognition.Session, *testutils.FakeClock, *output.CaptureBuffer) {
	t.Helper()
	clock := testutils.NewFakeClock()
	session := recognition.New(textengine.Factory,
		recognition.WithClock(clock),
		recognition.WithLogger(log.New(io.Discard)),
		recognition.WithID("test-session"),
	)
	buf := output.NewCaptureBuffer()
	printer := output.NewPrinter(output.WithWriter(buf), output.PlainText())
	return New(session, printer, opts), session, clock, buf
}

func continuous() Options {
	return Options{Start: recognition.StartOptions{Continuous: recognition.Bool(true)}}
}

func TestProcessLine_MatchesCommand(t *testing.T) {
	sh, session, _, buf := newTestShell(t, continuous())
	var got []string
	session.AddCommand("show me *term", func(params []string) { got = params })

	require.NoError(t, sh.ProcessLine(`\start`))
	require.NoError(t, sh.ProcessLine("Show me cute kittens"))

	assert.Equal(t, []string{"cute kittens"}, got)
	assert.Equal(t, "heard: Show me cute kittens\nmatched show me *term <- Show me cute kittens\n", buf.String())
}

func TestProcessLine_Alternatives(t *testing.T) {
	sh, session, _, buf := newTestShell(t, continuous())
	var got []string
	session.AddCommand("show :report report", func(params []string) { got = params })

	require.NoError(t, sh.ProcessLine(`\start`))
	require.NoError(t, sh.ProcessLine("show tipi report | show tps report"))

	assert.Equal(t, []string{"tipi"}, got)
	assert.Contains(t, buf.String(), "heard: show tipi report | show tps report\n")
}

func TestProcessLine_NoMatch(t *testing.T) {
	sh, _, _, buf := newTestShell(t, continuous())

	require.NoError(t, sh.ProcessLine(`\start`))
	require.NoError(t, sh.ProcessLine("jello"))

	assert.Equal(t, "heard: jello\nno command matched: jello\n", buf.String())
}

func TestProcessLine_IgnoresBlankAndComments(t *testing.T) {
	sh, _, _, buf := newTestShell(t, continuous())

	require.NoError(t, sh.ProcessLine("   "))
	require.NoError(t, sh.ProcessLine("# a comment"))
	assert.Empty(t, buf.String())
}

func TestProcessLine_NotListening(t *testing.T) {
	sh, _, _, _ := newTestShell(t, continuous())

	assert.ErrorIs(t, sh.ProcessLine("hello"), ErrNotListening)

	require.NoError(t, sh.ProcessLine(`\start`))
	require.NoError(t, sh.ProcessLine(`\abort`))
	assert.ErrorIs(t, sh.ProcessLine("hello"), ErrNotListening)
}

func TestProcessLine_SingleShotRestartIsThrottled(t *testing.T) {
	sh, session, clock, _ := newTestShell(t, Options{})
	count := 0
	session.AddCommand("hello", func([]string) { count++ })

	require.NoError(t, sh.ProcessLine(`\start`))
	require.NoError(t, sh.ProcessLine("hello"))
	assert.ErrorIs(t, sh.ProcessLine("hello"), ErrNotListening)

	clock.Advance(time.Second)
	require.NoError(t, sh.ProcessLine("hello"))
	assert.Equal(t, 2, count)
}

func TestControl_PauseResume(t *testing.T) {
	sh, session, _, buf := newTestShell(t, continuous())
	count := 0
	session.AddCommand("hello", func([]string) { count++ })

	require.NoError(t, sh.ProcessLine(`\start`))
	require.NoError(t, sh.ProcessLine(`\pause`))
	assert.True(t, session.IsPaused())
	require.NoError(t, sh.ProcessLine("hello"))
	assert.Equal(t, 0, count)
	assert.Empty(t, buf.String())

	require.NoError(t, sh.ProcessLine(`\resume`))
	assert.False(t, session.IsPaused())
	require.NoError(t, sh.ProcessLine("hello"))
	assert.Equal(t, 1, count)
}

func TestControl_StartPausedFromOptions(t *testing.T) {
	opts := continuous()
	opts.Start.Paused = recognition.Bool(true)
	sh, session, _, _ := newTestShell(t, opts)

	require.NoError(t, sh.ProcessLine(`\start`))
	assert.True(t, session.IsPaused())

	require.NoError(t, sh.ProcessLine(`\resume`))
	assert.False(t, session.IsPaused())
}

func TestControl_Error(t *testing.T) {
	sh, session, clock, buf := newTestShell(t, continuous())
	denied := 0
	session.AddCallback(recognition.EventErrorPermissionDenied, func(recognition.Event) { denied++ }, nil)

	assert.ErrorIs(t, sh.ProcessLine(`\error network`), ErrNotListening)

	require.NoError(t, sh.ProcessLine(`\start`))
	require.NoError(t, sh.ProcessLine(`\error not-allowed`))
	assert.Contains(t, buf.String(), "recognition error: not-allowed")
	assert.Contains(t, buf.String(), "microphone access was blocked")
	assert.False(t, session.IsListening(), "permission errors turn auto-restart off")
	assert.Zero(t, clock.Pending())

	clock.Advance(time.Second)
	require.NoError(t, sh.ProcessLine(`\start`))
	clock.Advance(500 * time.Millisecond)
	require.NoError(t, sh.ProcessLine(`\error not-allowed`))
	assert.Equal(t, 1, denied)
	assert.Contains(t, buf.String(), "microphone access was denied")

	assert.Error(t, sh.ProcessLine(`\error`))
}

func TestControl_Stop(t *testing.T) {
	sh, session, clock, _ := newTestShell(t, continuous())

	assert.ErrorIs(t, sh.ProcessLine(`\stop`), ErrNotListening)

	require.NoError(t, sh.ProcessLine(`\start`))
	require.NoError(t, sh.ProcessLine(`\stop`))
	assert.False(t, session.IsListening())

	clock.Advance(time.Second)
	assert.True(t, session.IsListening(), "auto-restart brings the engine back")
}

func TestControl_LanguageAndDebug(t *testing.T) {
	sh, session, _, _ := newTestShell(t, continuous())

	require.NoError(t, sh.ProcessLine(`\lang fr-FR`))
	assert.Equal(t, "fr-FR", session.Engine().Lang())
	assert.Error(t, sh.ProcessLine(`\lang`))

	require.NoError(t, sh.ProcessLine(`\debug`))
	assert.True(t, session.IsDebug())
	require.NoError(t, sh.ProcessLine(`\debug off`))
	assert.False(t, session.IsDebug())
}

func TestControl_StatusAndCommands(t *testing.T) {
	sh, session, _, buf := newTestShell(t, continuous())

	require.NoError(t, sh.ProcessLine(`\commands`))
	assert.Equal(t, "no commands registered\n", buf.String())
	buf.Reset()

	session.AddCommand("hello", func([]string) {})
	session.AddCommand("bye", func([]string) {})
	require.NoError(t, sh.ProcessLine(`\commands`))
	assert.Equal(t, "  hello\n  bye\n", buf.String())
	buf.Reset()

	require.NoError(t, sh.ProcessLine(`\start`))
	require.NoError(t, sh.ProcessLine(`\status`))
	assert.Equal(t, strings.Join([]string{
		"session:   test-session",
		"listening: true",
		"paused:    false",
		"debug:     false",
		"language:  en-US",
		"commands:  2",
	}, "\n")+"\n", buf.String())
}

func TestControl_HelpAndUnknown(t *testing.T) {
	sh, _, _, buf := newTestShell(t, Options{Separator: "//"})

	require.NoError(t, sh.ProcessLine(`\help`))
	assert.Contains(t, buf.String(), "`//`")
	assert.Contains(t, buf.String(), `\start`)

	assert.EqualError(t, sh.ProcessLine(`\teleport`), `unknown command: \teleport`)
	assert.Error(t, sh.ProcessLine(`\`))
	assert.ErrorIs(t, sh.ProcessLine(`\exit`), ErrExit)
	assert.ErrorIs(t, sh.ProcessLine(`\QUIT`), ErrExit)
}

func TestRunBatch(t *testing.T) {
	sh, session, _, buf := newTestShell(t, continuous())
	var said []string
	session.AddCommand("hello (there)", func([]string) { said = append(said, "hello") })

	transcript := strings.Join([]string{
		"# greeting test",
		`\start`,
		"hello there",
		`\bogus`,
		"Hello",
		`\exit`,
		"hello",
	}, "\n")

	err := sh.RunBatch(strings.NewReader(transcript))

	assert.EqualError(t, err, "1 line(s) failed")
	assert.Equal(t, []string{"hello", "hello"}, said)
	assert.Contains(t, buf.String(), `line 4: unknown command: \bogus`)
}

func TestRunBatch_Clean(t *testing.T) {
	sh, _, _, _ := newTestShell(t, continuous())

	assert.NoError(t, sh.RunBatch(strings.NewReader("\\start\nhi\n")))
}

func TestProcessInput_ReportsErrors(t *testing.T) {
	sh, _, _, buf := newTestShell(t, continuous())

	sh.ProcessInput(&ishell.Context{RawArgs: []string{`\teleport`}})
	sh.ProcessInput(&ishell.Context{})

	assert.Equal(t, "Error: unknown command: \\teleport\n", buf.String())
}

func TestAlternatives(t *testing.T) {
	tests := []struct {
		line     string
		sep      string
		expected []string
	}{
		{"hello", "|", []string{"hello"}},
		{" a | b |c ", "|", []string{"a", "b", "c"}},
		{"a || b", "|", []string{"a", "b"}},
		{"a // b", "//", []string{"a", "b"}},
		{" | ", "|", nil},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.expected, Alternatives(tt.line, tt.sep))
		})
	}
}
