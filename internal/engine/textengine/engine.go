// Package textengine provides a speech.Engine driven by text instead of audio.
// The interactive shell and batch mode feed it typed or scripted utterances.
package textengine

import (
	"sync"

	"hark/pkg/speech"
)

// Engine simulates a recognizer. Each Hear call produces one result whose
// alternatives are the given transcripts. In single-shot mode the engine ends
// after the first result, like a browser recognizer does.
type Engine struct {
	mu              sync.Mutex
	handlers        speech.Handlers
	running         bool
	heardSound      bool
	continuous      bool
	lang            string
	maxAlternatives int
	results         [][]speech.Alternative
}

// New creates a stopped engine.
func New() *Engine {
	return &Engine{maxAlternatives: 1}
}

// Factory adapts New to speech.Factory.
func Factory() (speech.Engine, error) {
	return New(), nil
}

// SetMaxAlternatives limits how many transcripts Hear passes on per result.
func (e *Engine) SetMaxAlternatives(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.maxAlternatives = n
}

// MaxAlternatives returns the transcript limit per result.
func (e *Engine) MaxAlternatives() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxAlternatives
}

// SetContinuous toggles continuous mode.
func (e *Engine) SetContinuous(continuous bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.continuous = continuous
}

// Continuous reports whether the engine keeps running after a result.
func (e *Engine) Continuous() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.continuous
}

// SetLang records the language tag. Text input is language-agnostic.
func (e *Engine) SetLang(lang string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lang = lang
}

// Lang returns the language tag.
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

// Running reports whether the engine is started.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Start begins a recognition run.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return speech.ErrAlreadyStarted
	}
	e.running = true
	e.heardSound = false
	e.results = nil
	h := e.handlers
	e.mu.Unlock()

	if h.OnStart != nil {
		h.OnStart()
	}
	return nil
}

// Abort ends the current run.
func (e *Engine) Abort() {
	e.end()
}

// Stop ends the current run as if the recognizer timed out on silence.
func (e *Engine) Stop() {
	e.end()
}

// Hear delivers one utterance. The first transcript is the most likely one.
func (e *Engine) Hear(transcripts ...string) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return speech.ErrNotStarted
	}
	firstSound := !e.heardSound
	e.heardSound = true

	limit := len(transcripts)
	if e.maxAlternatives > 0 && limit > e.maxAlternatives {
		limit = e.maxAlternatives
	}
	alts := make([]speech.Alternative, 0, limit)
	for i, t := range transcripts[:limit] {
		alts = append(alts, speech.Alternative{Transcript: t, Confidence: 1 / float64(i+1)})
	}
	e.results = append(e.results, alts)
	event := speech.ResultEvent{
		ResultIndex: len(e.results) - 1,
		Results:     append([][]speech.Alternative(nil), e.results...),
	}
	singleShot := !e.continuous
	h := e.handlers
	e.mu.Unlock()

	if firstSound && h.OnSoundStart != nil {
		h.OnSoundStart()
	}
	if h.OnResult != nil {
		h.OnResult(event)
	}
	if singleShot {
		e.end()
	}
	return nil
}

// Fail reports an error and ends the run, as browser recognizers do.
func (e *Engine) Fail(code speech.ErrorCode, message string) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return speech.ErrNotStarted
	}
	h := e.handlers
	e.mu.Unlock()

	if h.OnError != nil {
		h.OnError(speech.ErrorEvent{Code: code, Message: message})
	}
	e.end()
	return nil
}

func (e *Engine) end() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	h := e.handlers
	e.mu.Unlock()

	if h.OnEnd != nil {
		h.OnEnd()
	}
}
