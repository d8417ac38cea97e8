// Package shell provides the interactive shell interface and input processing for hark.
// Typed lines are spoken utterances fed to a text engine; lines starting with a
// backslash control the recognition session.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/abiosoft/ishell/v2"

	"hark/internal/engine/textengine"
	"hark/internal/logger"
	"hark/internal/output"
	"hark/pkg/recognition"
	"hark/pkg/speech"
)

// ErrExit is returned by ProcessLine when the user asked to leave the shell.
var ErrExit = errors.New("exit requested")

// ErrNotListening is returned when speech arrives while no engine is running.
var ErrNotListening = errors.New("not listening, use \\start")

// Options configures a Shell.
type Options struct {
	// Separator splits a typed line into alternatives, best first. Default "|".
	Separator string
	// Start is used by \start and \resume.
	Start recognition.StartOptions
}

// Shell routes typed input to a recognition session backed by a text engine.
type Shell struct {
	session   *recognition.Session
	printer   *output.Printer
	separator string
	start     recognition.StartOptions
}

// New creates a shell and subscribes the printer to the session's events.
func New(session *recognition.Session, printer *output.Printer, opts Options) *Shell {
	sep := opts.Separator
	if sep == "" {
		sep = "|"
	}
	sh := &Shell{
		session:   session,
		printer:   printer,
		separator: sep,
		start:     opts.Start,
	}
	Subscribe(session, printer)
	return sh
}

// Subscribe prints the session's results and errors with p.
func Subscribe(s *recognition.Session, p *output.Printer) {
	s.AddCallback(recognition.EventResult, func(e recognition.Event) { p.Heard(e.Alternatives) }, nil)
	s.AddCallback(recognition.EventResultMatch, func(e recognition.Event) { p.Matched(e.Said, e.Phrase) }, nil)
	s.AddCallback(recognition.EventResultNoMatch, func(e recognition.Event) { p.NoMatch(e.Alternatives) }, nil)
	s.AddCallback(recognition.EventError, func(e recognition.Event) {
		if e.Err != nil {
			p.Error("recognition error: " + e.Err.Error())
		}
	}, nil)
	s.AddCallback(recognition.EventErrorPermissionBlocked, func(recognition.Event) {
		p.Warning("microphone access was blocked, auto-restart is off")
	}, nil)
	s.AddCallback(recognition.EventErrorPermissionDenied, func(recognition.Event) {
		p.Warning("microphone access was denied, auto-restart is off")
	}, nil)
}

// ProcessInput handles user input from the interactive shell.
func (sh *Shell) ProcessInput(c *ishell.Context) {
	if len(c.RawArgs) == 0 {
		return
	}

	err := sh.ProcessLine(strings.Join(c.RawArgs, " "))
	switch {
	case errors.Is(err, ErrExit):
		sh.session.Abort()
		c.Stop()
	case err != nil:
		sh.printer.Error("Error: " + err.Error())
	}
}

// ProcessLine handles one line of input. Blank lines and lines starting with
// "#" are ignored.
func (sh *Shell) ProcessLine(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	if strings.HasPrefix(line, `\`) {
		return sh.control(line[1:])
	}
	return sh.hear(line)
}

// RunBatch processes every line of r. Failing lines are reported and skipped;
// \exit stops early.
func (sh *Shell) RunBatch(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	failed := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		err := sh.ProcessLine(scanner.Text())
		if errors.Is(err, ErrExit) {
			break
		}
		if err != nil {
			failed++
			logger.Error("Line failed", "line", lineNo, "error", err)
			sh.printer.Error(fmt.Sprintf("line %d: %s", lineNo, err))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d line(s) failed", failed)
	}
	return nil
}

// Alternatives splits a typed line on sep, dropping empty entries.
func Alternatives(line, sep string) []string {
	var alts []string
	for _, part := range strings.Split(line, sep) {
		if part = strings.TrimSpace(part); part != "" {
			alts = append(alts, part)
		}
	}
	return alts
}

func (sh *Shell) hear(line string) error {
	eng := sh.engine()
	if eng == nil {
		return ErrNotListening
	}
	alts := Alternatives(line, sh.separator)
	if len(alts) == 0 {
		return nil
	}
	if err := eng.Hear(alts...); err != nil {
		if errors.Is(err, speech.ErrNotStarted) {
			return ErrNotListening
		}
		return err
	}
	return nil
}

func (sh *Shell) engine() *textengine.Engine {
	eng, _ := sh.session.Engine().(*textengine.Engine)
	return eng
}
