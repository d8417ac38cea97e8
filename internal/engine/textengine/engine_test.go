package textengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hark/pkg/speech"
)

type recorder struct {
	events  []string
	results []speech.ResultEvent
	errors  []speech.ErrorEvent
}

func (r *recorder) handlers() speech.Handlers {
	return speech.Handlers{
		OnStart:      func() { r.events = append(r.events, "start") },
		OnSoundStart: func() { r.events = append(r.events, "soundstart") },
		OnEnd:        func() { r.events = append(r.events, "end") },
		OnError: func(ev speech.ErrorEvent) {
			r.events = append(r.events, "error")
			r.errors = append(r.errors, ev)
		},
		OnResult: func(ev speech.ResultEvent) {
			r.events = append(r.events, "result")
			r.results = append(r.results, ev)
		},
	}
}

func TestEngine_StartTwice(t *testing.T) {
	e := New()
	require.NoError(t, e.Start())
	assert.ErrorIs(t, e.Start(), speech.ErrAlreadyStarted)
}

func TestEngine_HearNotStarted(t *testing.T) {
	e := New()
	assert.ErrorIs(t, e.Hear("hello"), speech.ErrNotStarted)
	assert.ErrorIs(t, e.Fail(speech.ErrorNetwork, ""), speech.ErrNotStarted)
}

func TestEngine_SingleShot(t *testing.T) {
	e := New()
	r := &recorder{}
	e.SetHandlers(r.handlers())

	require.NoError(t, e.Start())
	require.NoError(t, e.Hear("hello", "yellow"))

	assert.Equal(t, []string{"start", "soundstart", "result", "end"}, r.events)
	assert.False(t, e.Running())
	assert.Equal(t, []string{"hello"}, r.results[0].Transcripts(), "default max alternatives is 1")
}

func TestEngine_Continuous(t *testing.T) {
	e := New()
	r := &recorder{}
	e.SetHandlers(r.handlers())
	e.SetContinuous(true)
	e.SetMaxAlternatives(5)

	require.NoError(t, e.Start())
	require.NoError(t, e.Hear("first", "fist"))
	require.NoError(t, e.Hear("second"))

	assert.Equal(t, []string{"start", "soundstart", "result", "result"}, r.events)
	assert.True(t, e.Running())
	require.Len(t, r.results, 2)
	assert.Equal(t, 1, r.results[1].ResultIndex)
	assert.Equal(t, []string{"first", "fist"}, r.results[0].Transcripts())
	assert.Equal(t, []string{"second"}, r.results[1].Transcripts())
}

func TestEngine_MaxAlternatives(t *testing.T) {
	e := New()
	r := &recorder{}
	e.SetHandlers(r.handlers())
	e.SetMaxAlternatives(2)

	require.NoError(t, e.Start())
	require.NoError(t, e.Hear("a", "b", "c"))

	assert.Equal(t, []string{"a", "b"}, r.results[0].Transcripts())
}

func TestEngine_Fail(t *testing.T) {
	e := New()
	r := &recorder{}
	e.SetHandlers(r.handlers())

	require.NoError(t, e.Start())
	require.NoError(t, e.Fail(speech.ErrorNetwork, "offline"))

	assert.Equal(t, []string{"start", "error", "end"}, r.events)
	assert.Equal(t, speech.ErrorNetwork, r.errors[0].Code)
	assert.Equal(t, "offline", r.errors[0].Message)
}

func TestEngine_AbortAndStop(t *testing.T) {
	e := New()
	r := &recorder{}
	e.SetHandlers(r.handlers())

	e.Abort()
	assert.Empty(t, r.events, "abort on a stopped engine is silent")

	require.NoError(t, e.Start())
	e.Stop()
	e.Stop()

	assert.Equal(t, []string{"start", "end"}, r.events)
}

func TestEngine_Settings(t *testing.T) {
	e := New()
	e.SetLang("fr-FR")
	e.SetContinuous(true)

	assert.Equal(t, "fr-FR", e.Lang())
	assert.True(t, e.Continuous())

	eng, err := Factory()
	require.NoError(t, err)
	assert.IsType(t, &Engine{}, eng)
}
