// Package speech defines the recognition engine capability that Hark depends on.
// Concrete engines (simulated, cloud-backed, browser bridges) live outside the core
// and are selected by the caller through a Factory.
package speech

import "errors"

// Sentinel errors returned by engines.
var (
	// ErrAlreadyStarted is returned by Start when the engine is already running.
	ErrAlreadyStarted = errors.New("recognition has already started")
	// ErrNotStarted is returned when an operation requires a running engine.
	ErrNotStarted = errors.New("recognition has not started")
)

// ErrorCode categorizes errors reported by an engine.
type ErrorCode string

// Error categories reported through Handlers.OnError.
const (
	ErrorNetwork           ErrorCode = "network"
	ErrorNotAllowed        ErrorCode = "not-allowed"
	ErrorServiceNotAllowed ErrorCode = "service-not-allowed"
	ErrorNoSpeech          ErrorCode = "no-speech"
	ErrorAborted           ErrorCode = "aborted"
	ErrorAudioCapture      ErrorCode = "audio-capture"
)

// IsPermission reports whether the code means access to recognition was refused.
func (c ErrorCode) IsPermission() bool {
	return c == ErrorNotAllowed || c == ErrorServiceNotAllowed
}

// ErrorEvent is delivered to Handlers.OnError.
type ErrorEvent struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface so events can be logged and wrapped.
func (e ErrorEvent) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Message
}

// Alternative is one candidate transcription for a result, ordered by confidence.
type Alternative struct {
	Transcript string
	Confidence float64
}

// ResultEvent carries every result the engine produced so far in the current run.
// ResultIndex points at the result that changed.
type ResultEvent struct {
	ResultIndex int
	Results     [][]Alternative
}

// Transcripts returns the alternative transcripts of the current result.
// It returns nil when ResultIndex is out of range.
func (e ResultEvent) Transcripts() []string {
	if e.ResultIndex < 0 || e.ResultIndex >= len(e.Results) {
		return nil
	}
	current := e.Results[e.ResultIndex]
	transcripts := make([]string, 0, len(current))
	for _, alt := range current {
		transcripts = append(transcripts, alt.Transcript)
	}
	return transcripts
}

// Handlers are the native event hooks an engine invokes.
// Any field may be nil.
type Handlers struct {
	OnStart      func()
	OnSoundStart func()
	OnError      func(ErrorEvent)
	OnEnd        func()
	OnResult     func(ResultEvent)
}

// Engine is the recognition capability consumed by the session controller.
type Engine interface {
	// SetMaxAlternatives sets how many alternatives the engine reports per result.
	SetMaxAlternatives(n int)
	// SetContinuous toggles continuous mode. Single-shot engines end after one result.
	SetContinuous(continuous bool)
	Continuous() bool
	// SetLang sets the BCP 47 language tag used for recognition.
	SetLang(lang string)
	Lang() string
	// SetHandlers replaces the engine's event hooks.
	SetHandlers(h Handlers)
	// Start begins recognition. It returns ErrAlreadyStarted if already running.
	Start() error
	// Abort stops recognition immediately and discards pending results.
	Abort()
}

// Factory constructs a new engine instance.
type Factory func() (Engine, error)
