package shell

import (
	"fmt"
	"strings"

	"hark/pkg/recognition"
	"hark/pkg/speech"
)

const helpMarkdown = `# hark

Type what you would say. Separate alternative transcripts with ` + "`%s`" + `,
best first: ` + "`show me tps | show me tips`" + `.

| Command | Effect |
|---|---|
| ` + "`\\start`" + ` | start listening |
| ` + "`\\abort`" + ` | stop listening, no auto-restart |
| ` + "`\\stop`" + ` | end the current run as if the recognizer timed out |
| ` + "`\\pause`" + ` / ` + "`\\resume`" + ` | stop or resume responding to commands |
| ` + "`\\error <code>`" + ` | simulate a recognizer error |
| ` + "`\\lang <tag>`" + ` | set the recognition language |
| ` + "`\\debug [on\\|off]`" + ` | toggle diagnostic logging |
| ` + "`\\status`" + ` | show session state |
| ` + "`\\commands`" + ` | list registered phrases |
| ` + "`\\exit`" + ` | quit |
`

func (sh *Shell) control(input string) error {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return fmt.Errorf("missing command, try \\help")
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "start":
		sh.session.Start(sh.start)
	case "resume":
		sh.session.Start(sh.resumeOptions())
	case "abort":
		sh.session.Abort()
	case "pause":
		sh.session.Pause()
	case "stop":
		eng := sh.engine()
		if eng == nil || !eng.Running() {
			return ErrNotListening
		}
		eng.Stop()
	case "error":
		return sh.simulateError(args)
	case "lang", "language":
		if len(args) != 1 {
			return fmt.Errorf("usage: \\lang <tag>")
		}
		sh.session.SetLanguage(args[0])
	case "debug":
		on := len(args) == 0 || !strings.EqualFold(args[0], "off")
		sh.session.Debug(on)
	case "status":
		sh.printStatus()
	case "commands":
		sh.printCommands()
	case "help":
		return sh.printHelp()
	case "exit", "quit":
		return ErrExit
	default:
		return fmt.Errorf("unknown command: \\%s", name)
	}
	return nil
}

// resumeOptions keeps the configured auto-restart but never starts paused.
func (sh *Shell) resumeOptions() recognition.StartOptions {
	opts := sh.start
	opts.Paused = nil
	return opts
}

func (sh *Shell) simulateError(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: \\error <code> [message]")
	}
	eng := sh.engine()
	if eng == nil {
		return ErrNotListening
	}
	code := speech.ErrorCode(args[0])
	if err := eng.Fail(code, strings.Join(args[1:], " ")); err != nil {
		return ErrNotListening
	}
	return nil
}

func (sh *Shell) printStatus() {
	lang := ""
	if eng := sh.session.Engine(); eng != nil {
		lang = eng.Lang()
	}
	sh.printer.Printf("session:   %s", sh.session.ID())
	sh.printer.Printf("listening: %t", sh.session.IsListening())
	sh.printer.Printf("paused:    %t", sh.session.IsPaused())
	sh.printer.Printf("debug:     %t", sh.session.IsDebug())
	sh.printer.Printf("language:  %s", lang)
	sh.printer.Printf("commands:  %d", len(sh.session.Commands()))
}

func (sh *Shell) printCommands() {
	phrases := sh.session.Commands()
	if len(phrases) == 0 {
		sh.printer.Info("no commands registered")
		return
	}
	for _, p := range phrases {
		sh.printer.Println("  " + p)
	}
}

func (sh *Shell) printHelp() error {
	rendered, err := sh.printer.Markdown(fmt.Sprintf(helpMarkdown, sh.separator))
	if err != nil {
		return err
	}
	sh.printer.Println(strings.TrimRight(rendered, "\n"))
	return nil
}
