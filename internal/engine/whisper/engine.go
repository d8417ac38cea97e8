// Package whisper provides a speech.Engine that recognizes queued audio files
// through a transcription service. Each run transcribes one file and ends, so a
// session with auto-restart enabled walks the whole queue, one file per second
// at most.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"hark/pkg/speech"
)

var (
	// ErrNoInput is returned by Start once the queue is empty.
	ErrNoInput = errors.New("no audio left to transcribe")
	// ErrUnauthorized marks transcription failures caused by rejected credentials.
	ErrUnauthorized = errors.New("transcription service refused the request")
)

// Transcriber turns an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string, lang string) (string, error)
}

// Engine recognizes queued audio files.
type Engine struct {
	mu              sync.Mutex
	transcriber     Transcriber
	handlers        speech.Handlers
	queue           []string
	running         bool
	continuous      bool
	lang            string
	maxAlternatives int
	run             uint64
	cancel          context.CancelFunc

	ctx      context.Context
	done     chan struct{}
	doneOnce sync.Once
}

// New creates an engine that will transcribe files in order.
// Cancelling ctx aborts any transcription in flight.
func New(ctx context.Context, t Transcriber, files ...string) *Engine {
	return &Engine{
		transcriber: t,
		queue:       append([]string(nil), files...),
		ctx:         ctx,
		done:        make(chan struct{}),
	}
}

// Factory returns a speech.Factory handing out e.
func (e *Engine) Factory() speech.Factory {
	return func() (speech.Engine, error) {
		return e, nil
	}
}

// Done is closed once every queued file has been processed.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Remaining returns the number of files not yet started.
func (e *Engine) Remaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// SetMaxAlternatives is recorded only; transcription services return one transcript.
func (e *Engine) SetMaxAlternatives(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.maxAlternatives = n
}

// SetContinuous is recorded only; every run covers exactly one file.
func (e *Engine) SetContinuous(continuous bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.continuous = continuous
}

// Continuous returns the recorded continuous flag.
func (e *Engine) Continuous() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.continuous
}

// SetLang sets the language hint passed to the transcriber.
func (e *Engine) SetLang(lang string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lang = lang
}

// Lang returns the language hint.
func (e *Engine) Lang() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lang
}

// SetHandlers replaces the event hooks.
func (e *Engine) SetHandlers(h speech.Handlers) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = h
}

// Start transcribes the next queued file in the background.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return speech.ErrAlreadyStarted
	}
	if len(e.queue) == 0 {
		e.mu.Unlock()
		e.finish()
		return ErrNoInput
	}
	path := e.queue[0]
	e.queue = e.queue[1:]
	e.running = true
	e.run++
	run := e.run
	ctx, cancel := context.WithCancel(e.ctx)
	e.cancel = cancel
	lang := e.lang
	h := e.handlers
	e.mu.Unlock()

	if h.OnStart != nil {
		h.OnStart()
	}
	go e.transcribe(ctx, run, path, lang)
	return nil
}

// Abort cancels the transcription in flight and ends the run.
func (e *Engine) Abort() {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	run := e.run
	e.mu.Unlock()

	e.end(run)
}

func (e *Engine) transcribe(ctx context.Context, run uint64, path, lang string) {
	text, err := e.transcriber.Transcribe(ctx, path, lang)
	if ctx.Err() != nil {
		return
	}

	e.mu.Lock()
	h := e.handlers
	current := e.running && e.run == run
	e.mu.Unlock()
	if !current {
		return
	}

	if err != nil {
		if h.OnError != nil {
			h.OnError(speech.ErrorEvent{Code: classify(err), Message: fmt.Sprintf("%s: %v", path, err)})
		}
		e.end(run)
		return
	}

	if h.OnSoundStart != nil {
		h.OnSoundStart()
	}
	if h.OnResult != nil {
		h.OnResult(speech.ResultEvent{
			ResultIndex: 0,
			Results:     [][]speech.Alternative{{{Transcript: text, Confidence: 1}}},
		})
	}
	e.end(run)
}

func (e *Engine) end(run uint64) {
	e.mu.Lock()
	if !e.running || e.run != run {
		e.mu.Unlock()
		return
	}
	e.running = false
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	drained := len(e.queue) == 0
	h := e.handlers
	e.mu.Unlock()

	if h.OnEnd != nil {
		h.OnEnd()
	}
	if drained {
		e.finish()
	}
}

func (e *Engine) finish() {
	e.doneOnce.Do(func() { close(e.done) })
}

func classify(err error) speech.ErrorCode {
	if errors.Is(err, ErrUnauthorized) {
		return speech.ErrorServiceNotAllowed
	}
	return speech.ErrorNetwork
}
