// Package recognition drives a speech.Engine and turns its results into command
// invocations.
//
// A Session owns one engine, an ordered command registry and a callback
// registry. For each result it tries the engine's alternatives, best first,
// against the commands in registration order and runs the first match. When the
// engine stops on its own the session restarts it, never more than once per
// second.
//
//	s := recognition.New(factory)
//	s.AddCommand("show me *tag", func(p []string) { search(p[0]) })
//	s.Start(recognition.StartOptions{})
package recognition

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"hark/internal/logger"
	"hark/pkg/speech"
)

const (
	// DefaultLanguage is used until SetLanguage is called.
	DefaultLanguage = "en-US"
	// MaxAlternatives is the number of alternatives requested from the engine.
	MaxAlternatives = 5

	minRestartInterval = time.Second
	// Permission errors arriving this soon after Start were refused by the platform, not the user.
	permissionBlockedWindow = 200 * time.Millisecond
	restartWarnEvery        = 10
)

// ErrUnsupported is reported when the session has no engine factory.
var ErrUnsupported = errors.New("speech recognition is not supported")

// Clock abstracts time for the restart throttle.
type Clock interface {
	Now() time.Time
	// AfterFunc runs f after d and returns a function that cancels it.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// StartOptions overrides session settings on Start. Nil fields keep their
// current value, except Paused which defaults to false.
type StartOptions struct {
	AutoRestart *bool
	Continuous  *bool
	Paused      *bool
}

// Bool returns a pointer to v, for StartOptions literals.
func Bool(v bool) *bool {
	return &v
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithLogger replaces the session's component logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithSecureContext tells the session whether it runs in a secure context.
// Insecure contexts default to continuous mode to avoid repeated permission
// prompts; secure ones default to single-shot mode for lower latency.
func WithSecureContext(secure bool) Option {
	return func(s *Session) { s.secure = secure }
}

// WithLanguage sets the initial recognition language.
func WithLanguage(lang string) Option {
	return func(s *Session) { s.lang = lang }
}

// WithDebug enables diagnostic logging from the start.
func WithDebug(on bool) Option {
	return func(s *Session) { s.debug = on }
}

// WithID sets the session id instead of generating one.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// Session is the runtime owner of an engine, its commands and its callbacks.
// All methods are safe for concurrent use; callbacks run without the session
// lock held and may call back into the session.
type Session struct {
	mu sync.Mutex
	// initMu serializes engine construction so only one engine is ever built.
	initMu sync.Mutex

	id      string
	factory speech.Factory
	engine  speech.Engine
	clock   Clock
	logger  *log.Logger
	level   log.Level
	secure  bool
	lang    string
	debug   bool

	listening        bool
	paused           bool
	autoRestart      bool
	lastStartedAt    time.Time
	autoRestartCount int
	stopRestart      func() bool

	commands       []*command
	callbacks      map[EventKind][]callbackEntry
	nextCallbackID CallbackID
}

// New creates a session that builds its engine with factory on first use.
// A nil factory yields a session for which IsSupported reports false.
func New(factory speech.Factory, opts ...Option) *Session {
	s := &Session{
		factory:     factory,
		clock:       systemClock{},
		secure:      true,
		lang:        DefaultLanguage,
		autoRestart: true,
		callbacks:   newCallbackRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.New().String()
	}
	if s.logger == nil {
		s.logger = logger.NewStyledLogger("Recognition").With("session", shortID(s.id))
	}
	s.level = s.logger.GetLevel()
	s.applyDebugLevel()
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// IsSupported reports whether the session can construct an engine.
func (s *Session) IsSupported() bool {
	return s.factory != nil
}

// Engine returns the underlying engine, or nil before the first Start.
func (s *Session) Engine() speech.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

// Debug turns diagnostic logging on or off. Diagnostics are logged at debug
// level, and turning them on lowers the session logger to that level.
func (s *Session) Debug(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debug = on
	s.applyDebugLevel()
}

// applyDebugLevel must be called with s.mu held or before s is shared.
func (s *Session) applyDebugLevel() {
	if s.debug && s.level > log.DebugLevel {
		s.logger.SetLevel(log.DebugLevel)
		return
	}
	s.logger.SetLevel(s.level)
}

// IsListening reports whether the engine is running and the session is not paused.
func (s *Session) IsListening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listening && !s.paused
}

// IsPaused reports whether result dispatch is suspended.
func (s *Session) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// SetLanguage sets the recognition language, initializing the engine if needed.
func (s *Session) SetLanguage(lang string) {
	s.mu.Lock()
	s.lang = lang
	s.mu.Unlock()

	eng, err := s.ensureEngine()
	if err != nil {
		s.debugf("Cannot set language", "error", err)
		return
	}
	eng.SetLang(lang)
}

// Start starts listening. It never fails: engine start errors, such as
// starting twice, are only reported through diagnostic logging.
func (s *Session) Start(opts StartOptions) {
	eng, err := s.ensureEngine()
	if err != nil {
		s.debugf("Cannot start speech recognition", "error", err)
		return
	}

	s.mu.Lock()
	s.paused = opts.Paused != nil && *opts.Paused
	if opts.AutoRestart != nil {
		s.autoRestart = *opts.AutoRestart
	}
	s.lastStartedAt = s.clock.Now()
	s.mu.Unlock()

	if opts.Continuous != nil {
		eng.SetContinuous(*opts.Continuous)
	}

	if err := eng.Start(); err != nil {
		s.debugf(err.Error())
	}
}

// Abort stops the engine and turns auto-restart off. A restart that was
// scheduled by the throttle and has not fired yet is cancelled.
func (s *Session) Abort() {
	s.mu.Lock()
	s.autoRestart = false
	s.autoRestartCount = 0
	stop := s.stopRestart
	s.stopRestart = nil
	eng := s.engine
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	if eng != nil {
		eng.Abort()
	}
}

// Pause stops dispatching results without stopping the engine.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

// Resume unpauses the session, starting the engine again if it was aborted.
func (s *Session) Resume() {
	s.Start(StartOptions{})
}

func (s *Session) ensureEngine() (speech.Engine, error) {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	s.mu.Lock()
	eng := s.engine
	s.mu.Unlock()

	if eng != nil {
		return eng, nil
	}
	return s.initialize()
}

// initialize builds and wires the engine. Callers hold s.initMu.
func (s *Session) initialize() (speech.Engine, error) {
	if s.factory == nil {
		return nil, ErrUnsupported
	}

	eng, err := s.factory()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	lang, continuous := s.lang, !s.secure
	s.mu.Unlock()

	eng.SetMaxAlternatives(MaxAlternatives)
	eng.SetContinuous(continuous)
	eng.SetLang(lang)
	eng.SetHandlers(speech.Handlers{
		OnStart:      s.handleStart,
		OnSoundStart: s.handleSoundStart,
		OnError:      s.handleError,
		OnEnd:        s.handleEnd,
		OnResult:     s.handleResult,
	})

	s.mu.Lock()
	s.engine = eng
	s.mu.Unlock()

	return eng, nil
}

func (s *Session) handleStart() {
	s.mu.Lock()
	s.listening = true
	s.mu.Unlock()

	s.invoke(EventStart, Event{})
}

func (s *Session) handleSoundStart() {
	s.invoke(EventSoundStart, Event{})
}

func (s *Session) handleError(ev speech.ErrorEvent) {
	s.invoke(EventError, Event{Err: &ev})

	switch {
	case ev.Code == speech.ErrorNetwork:
		s.invoke(EventErrorNetwork, Event{Err: &ev})
	case ev.Code.IsPermission():
		s.mu.Lock()
		s.autoRestart = false
		blocked := s.clock.Now().Sub(s.lastStartedAt) < permissionBlockedWindow
		s.mu.Unlock()

		if blocked {
			s.invoke(EventErrorPermissionBlocked, Event{Err: &ev})
		} else {
			s.invoke(EventErrorPermissionDenied, Event{Err: &ev})
		}
	}
}

func (s *Session) handleEnd() {
	s.mu.Lock()
	s.listening = false
	s.mu.Unlock()

	s.invoke(EventEnd, Event{})

	s.mu.Lock()
	if !s.autoRestart {
		s.mu.Unlock()
		return
	}
	elapsed := s.clock.Now().Sub(s.lastStartedAt)
	s.autoRestartCount++
	count := s.autoRestartCount
	deferred := elapsed < minRestartInterval
	if deferred {
		s.stopRestart = s.clock.AfterFunc(minRestartInterval-elapsed, s.restart)
	}
	s.mu.Unlock()

	if count%restartWarnEvery == 0 {
		s.debugWarn("Speech recognition is repeatedly stopping and starting", "restarts", count)
	}
	if !deferred {
		s.restart()
	}
}

// restart keeps whatever paused state the session has when it runs. A timer
// that already fired when Abort stopped it finds auto-restart off and does nothing.
func (s *Session) restart() {
	s.mu.Lock()
	s.stopRestart = nil
	if !s.autoRestart {
		s.mu.Unlock()
		return
	}
	paused := s.paused
	s.mu.Unlock()

	s.Start(StartOptions{Paused: &paused})
}

func (s *Session) handleResult(ev speech.ResultEvent) {
	s.mu.Lock()
	paused := s.paused
	s.mu.Unlock()

	if paused {
		s.debugf("Speech heard, but recognition is paused")
		return
	}
	s.dispatch(ev.Transcripts())
}

// IsDebug reports whether diagnostic logging is on.
func (s *Session) IsDebug() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debug
}

func (s *Session) debugf(msg string, keyvals ...interface{}) {
	if s.IsDebug() {
		s.logger.Debug(msg, keyvals...)
	}
}

func (s *Session) debugWarn(msg string, keyvals ...interface{}) {
	if s.IsDebug() {
		s.logger.Warn(msg, keyvals...)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
