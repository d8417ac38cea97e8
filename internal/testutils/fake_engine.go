// Package testutils provides fakes shared by Hark's tests: a scriptable
// recognition engine and a manually advanced clock.
package testutils

import (
	"sync"

	"hark/internal/engine/textengine"
	"hark/pkg/speech"
)

// FakeEngine is a text engine that lets the test emit raw events and counts
// lifecycle calls. Unlike Hear and Fail, the Emit methods never end the run.
type FakeEngine struct {
	*textengine.Engine

	mu       sync.Mutex
	handlers speech.Handlers
	results  [][]speech.Alternative

	// StartErr, when set, is returned by Start before any state changes.
	StartErr error

	Starts int
	Aborts int
}

// NewFakeEngine creates an idle fake engine.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{Engine: textengine.New()}
}

// Factory returns a speech.Factory that always hands out this engine.
func (e *FakeEngine) Factory() speech.Factory {
	return func() (speech.Engine, error) {
		return e, nil
	}
}

// SetHandlers keeps a copy of the hooks for the Emit methods.
func (e *FakeEngine) SetHandlers(h speech.Handlers) {
	e.mu.Lock()
	e.handlers = h
	e.mu.Unlock()
	e.Engine.SetHandlers(h)
}

// Start fails with StartErr when set, otherwise starts the text engine.
func (e *FakeEngine) Start() error {
	e.mu.Lock()
	err := e.StartErr
	e.mu.Unlock()
	if err != nil {
		return err
	}

	if err := e.Engine.Start(); err != nil {
		return err
	}
	e.mu.Lock()
	e.Starts++
	e.results = nil
	e.mu.Unlock()
	return nil
}

// Abort counts the call and ends a running engine.
func (e *FakeEngine) Abort() {
	e.mu.Lock()
	e.Aborts++
	e.mu.Unlock()
	e.Engine.Abort()
}

// EmitSoundStart fires the soundstart event.
func (e *FakeEngine) EmitSoundStart() {
	if h := e.hooks(); h.OnSoundStart != nil {
		h.OnSoundStart()
	}
}

// EmitResult appends a result with the given alternatives and fires the result event.
func (e *FakeEngine) EmitResult(transcripts ...string) {
	alts := make([]speech.Alternative, 0, len(transcripts))
	for i, t := range transcripts {
		alts = append(alts, speech.Alternative{Transcript: t, Confidence: 1 / float64(i+1)})
	}

	e.mu.Lock()
	e.results = append(e.results, alts)
	event := speech.ResultEvent{
		ResultIndex: len(e.results) - 1,
		Results:     append([][]speech.Alternative(nil), e.results...),
	}
	h := e.handlers
	e.mu.Unlock()

	if h.OnResult != nil {
		h.OnResult(event)
	}
}

// EmitError fires the error event with the given code.
func (e *FakeEngine) EmitError(code speech.ErrorCode) {
	if h := e.hooks(); h.OnError != nil {
		h.OnError(speech.ErrorEvent{Code: code})
	}
}

// EmitEnd ends a running engine as if it stopped on its own.
func (e *FakeEngine) EmitEnd() {
	e.Engine.Stop()
}

func (e *FakeEngine) hooks() speech.Handlers {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handlers
}
