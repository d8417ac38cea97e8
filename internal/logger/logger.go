// Package logger provides centralized logging for Hark.
// It configures structured logging through charmbracelet/log and hands out
// styled per-component loggers.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Logger is the global logger instance used throughout Hark.
var Logger *log.Logger

var (
	output   io.Writer = os.Stderr
	outputMu sync.RWMutex
)

func init() {
	Logger = log.New(os.Stderr)
	Logger.SetTimeFormat("")
	Logger.SetLevel(log.InfoLevel)
}

// Configure sets up the logger from CLI flags and environment variables.
// CLI flags take precedence over HARK_LOG_LEVEL.
func Configure(logLevel string, logFile string) error {
	level := logLevel
	if level == "" {
		level = strings.ToLower(os.Getenv("HARK_LOG_LEVEL"))
	}
	if level == "" {
		level = "info"
	}

	var out io.Writer = os.Stderr
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return err
		}
		out = file
	}

	outputMu.Lock()
	output = out
	outputMu.Unlock()

	Logger = log.New(out)
	Logger.SetTimeFormat("")
	Logger.SetLevel(ParseLevel(level))
	return nil
}

// ParseLevel converts a level name to a log level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

// Fatal logs a fatal message with optional key-value pairs and exits.
func Fatal(msg interface{}, keyvals ...interface{}) {
	Logger.Fatal(msg, keyvals...)
}

// NewStyledLogger creates a component logger (e.g. "Recognition", "Shell") that
// writes to the same destination and level as the global logger.
func NewStyledLogger(prefix string) *log.Logger {
	outputMu.RLock()
	out := output
	outputMu.RUnlock()
	return NewStyledLoggerTo(out, prefix)
}

// NewStyledLoggerTo is NewStyledLogger with an explicit destination.
func NewStyledLoggerTo(w io.Writer, prefix string) *log.Logger {
	styles := log.DefaultStyles()

	styles.Levels[log.InfoLevel] = levelStyle("INFO", "33")
	styles.Levels[log.ErrorLevel] = levelStyle("ERROR", "196")
	styles.Levels[log.DebugLevel] = levelStyle("DEBUG", "240")
	styles.Levels[log.WarnLevel] = levelStyle("WARN", "214")
	styles.Levels[log.FatalLevel] = levelStyle("FATAL", "88")

	styles.Keys["phrase"] = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	styles.Keys["said"] = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	styles.Keys["session"] = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	styles.Keys["error"] = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styles.Keys["restarts"] = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	styles.Values["phrase"] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	styles.Values["error"] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	componentLogger := log.NewWithOptions(w, log.Options{
		Prefix: prefix + " ",
	})
	componentLogger.SetStyles(styles)
	componentLogger.SetLevel(Logger.GetLevel())

	return componentLogger
}

func levelStyle(label, background string) lipgloss.Style {
	return lipgloss.NewStyle().
		SetString(label).
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color(background)).
		Foreground(lipgloss.Color("15"))
}
