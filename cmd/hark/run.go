package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/abiosoft/ishell/v2"
	"github.com/spf13/cobra"

	"hark/internal/actions"
	"hark/internal/engine/textengine"
	"hark/internal/engine/whisper"
	"hark/internal/logger"
	"hark/internal/output"
	"hark/internal/shell"
	"hark/internal/version"
	"hark/pkg/recognition"
	"hark/pkg/speech"
)

func newPrinter() *output.Printer {
	if plainOutput {
		return output.NewPrinter(output.PlainText())
	}
	return output.NewPrinter()
}

// newSession builds a session and installs the configured command file.
// A partly broken command file only produces warnings.
func newSession(factory speech.Factory, printer *output.Printer) *recognition.Session {
	session := recognition.New(factory, cfg.SessionOptions()...)
	if cfg.CommandsFile == "" {
		return session
	}

	n, err := actions.GlobalRegistry.Install(actions.Context{Session: session, Printer: printer}, cfg.CommandsFile)
	if err != nil {
		logger.Warn("Command file has problems", "file", cfg.CommandsFile, "error", err)
		printer.Warning(err.Error())
	}
	logger.Info("Commands loaded", "file", cfg.CommandsFile, "count", n)
	return session
}

func shellOptions(defaultContinuous bool) shell.Options {
	start := cfg.StartOptions()
	if start.Continuous == nil && defaultContinuous {
		start.Continuous = recognition.Bool(true)
	}
	return shell.Options{Separator: cfg.AlternativesSeparator, Start: start}
}

func runListen(_ *cobra.Command, _ []string) error {
	logger.Info("Starting hark", "version", version.Version)

	printer := newPrinter()
	session := newSession(textengine.Factory, printer)
	opts := shellOptions(false)
	sh := shell.New(session, printer, opts)

	ish := ishell.New()
	ish.SetPrompt("hark> ")

	// Remove built-in commands so every line reaches the session
	ish.DeleteCmd("exit")
	ish.DeleteCmd("help")
	ish.DeleteCmd("clear")

	ish.Println(version.GetFormattedVersion() + " - voice command matcher")
	ish.Println("Type what you would say, '\\help' for shell commands or '\\exit' to quit.")

	ish.NotFound(sh.ProcessInput)
	session.Start(opts.Start)

	ish.Run()
	session.Abort()
	return nil
}

// runBatch processes a transcript. Text input is continuous unless configured
// otherwise, so single-shot restarts do not drop lines.
func runBatch(_ *cobra.Command, args []string) error {
	path := args[0]
	logger.Info("Starting hark batch mode", "version", version.Version, "transcript", path)

	var in io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open transcript: %w", err)
		}
		defer f.Close()
		in = f
	}

	printer := newPrinter()
	session := newSession(textengine.Factory, printer)
	opts := shellOptions(true)
	sh := shell.New(session, printer, opts)

	session.Start(opts.Start)
	defer session.Abort()

	if err := sh.RunBatch(in); err != nil {
		return err
	}
	logger.Info("Transcript processed", "transcript", path)
	return nil
}

// runTranscribe walks the audio queue through auto-restart: each run
// transcribes one file and ends, and the session starts the next one.
func runTranscribe(cmd *cobra.Command, args []string) error {
	if cfg.OpenAIAPIKey == "" {
		return fmt.Errorf("no OpenAI API key: set HARK_OPENAI_API_KEY or OPENAI_API_KEY")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transcriber := whisper.NewOpenAITranscriber(cfg.OpenAIAPIKey, cfg.TranscriptionModel)
	engine := whisper.New(ctx, transcriber, args...)

	printer := newPrinter()
	session := newSession(engine.Factory(), printer)
	shell.Subscribe(session, printer)

	refused := make(chan struct{}, 1)
	session.AddCallbacks(func(recognition.Event) {
		select {
		case refused <- struct{}{}:
		default:
		}
	}, nil, recognition.EventErrorPermissionBlocked, recognition.EventErrorPermissionDenied)

	start := cfg.StartOptions()
	start.AutoRestart = recognition.Bool(true)
	start.Continuous = recognition.Bool(false)
	session.Start(start)
	defer session.Abort()

	select {
	case <-engine.Done():
		logger.Info("All audio transcribed", "files", len(args))
		return nil
	case <-refused:
		return fmt.Errorf("transcription service refused the request, %d file(s) not processed", engine.Remaining())
	case <-ctx.Done():
		return ctx.Err()
	}
}

func runCommands(_ *cobra.Command, _ []string) error {
	printer := newPrinter()
	if cfg.CommandsFile == "" {
		printer.Info("no command file configured, use --commands-file")
		return nil
	}

	f, err := actions.LoadFile(cfg.CommandsFile)
	if err != nil {
		return err
	}
	for _, b := range f.Commands {
		line := fmt.Sprintf("%-30s -> %s", b.Phrase, b.Action)
		if b.Reply != "" {
			line += fmt.Sprintf(" %q", b.Reply)
		}
		printer.Println(line)
	}

	printer.Info("available actions:")
	for _, a := range actions.GlobalRegistry.GetAll() {
		printer.Printf("  %-10s %s", a.Name(), a.Description())
	}
	return nil
}
