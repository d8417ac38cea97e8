package recognition

import "hark/pkg/speech"

// EventKind names a session event that callbacks can subscribe to.
type EventKind string

// Event kinds a callback may be registered for.
const (
	EventStart                  EventKind = "start"
	EventSoundStart             EventKind = "soundstart"
	EventError                  EventKind = "error"
	EventErrorNetwork           EventKind = "errorNetwork"
	EventErrorPermissionBlocked EventKind = "errorPermissionBlocked"
	EventErrorPermissionDenied  EventKind = "errorPermissionDenied"
	EventEnd                    EventKind = "end"
	EventResult                 EventKind = "result"
	EventResultMatch            EventKind = "resultMatch"
	EventResultNoMatch          EventKind = "resultNoMatch"

	// AnyKind selects every kind in RemoveCallback.
	AnyKind EventKind = ""
)

// EventKinds lists every kind in a stable order.
var EventKinds = []EventKind{
	EventStart,
	EventSoundStart,
	EventError,
	EventErrorNetwork,
	EventErrorPermissionBlocked,
	EventErrorPermissionDenied,
	EventEnd,
	EventResult,
	EventResultMatch,
	EventResultNoMatch,
}

// Event is passed to callbacks. Only the fields relevant to Kind are set:
// result kinds carry Alternatives, resultMatch adds Said and Phrase, and
// error kinds carry Err.
type Event struct {
	Kind EventKind
	// Context is the invocation context supplied when the callback was registered.
	Context any

	Alternatives []string
	Said         string
	Phrase       string
	Err          *speech.ErrorEvent
}

// Callback receives session events.
type Callback func(Event)

// CallbackID identifies a registration. The zero value means "no callback".
type CallbackID uint64

type callbackEntry struct {
	id      CallbackID
	fn      Callback
	context any
}

func newCallbackRegistry() map[EventKind][]callbackEntry {
	registry := make(map[EventKind][]callbackEntry, len(EventKinds))
	for _, kind := range EventKinds {
		registry[kind] = nil
	}
	return registry
}

// AddCallback registers fn for kind with an optional invocation context.
// Unknown kinds and nil callbacks are ignored and yield a zero id.
func (s *Session) AddCallback(kind EventKind, fn Callback, context any) CallbackID {
	return s.AddCallbacks(fn, context, kind)
}

// AddCallbacks registers fn under every listed kind with a single shared id, so
// that RemoveCallback(AnyKind, id) detaches it everywhere. Unknown kinds are skipped.
func (s *Session) AddCallbacks(fn Callback, context any, kinds ...EventKind) CallbackID {
	if fn == nil {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var id CallbackID
	for _, kind := range kinds {
		if _, ok := s.callbacks[kind]; !ok {
			continue
		}
		if id == 0 {
			s.nextCallbackID++
			id = s.nextCallbackID
		}
		s.callbacks[kind] = append(s.callbacks[kind], callbackEntry{id: id, fn: fn, context: context})
	}
	return id
}

// RemoveCallback detaches callbacks.
//
//	RemoveCallback(AnyKind, 0)   removes everything
//	RemoveCallback(AnyKind, id)  removes id from every kind
//	RemoveCallback(kind, 0)      clears kind
//	RemoveCallback(kind, id)     removes id from kind
func (s *Session) RemoveCallback(kind EventKind, id CallbackID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, entries := range s.callbacks {
		if kind != AnyKind && kind != k {
			continue
		}
		if id == 0 {
			s.callbacks[k] = nil
			continue
		}
		kept := entries[:0:0]
		for _, e := range entries {
			if e.id != id {
				kept = append(kept, e)
			}
		}
		s.callbacks[k] = kept
	}
}

// CallbackCount returns how many callbacks are registered for kind, or for all kinds with AnyKind.
func (s *Session) CallbackCount(kind EventKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kind != AnyKind {
		return len(s.callbacks[kind])
	}
	n := 0
	for _, entries := range s.callbacks {
		n += len(entries)
	}
	return n
}

// invoke calls every callback registered for kind in registration order.
// The session lock must not be held.
func (s *Session) invoke(kind EventKind, event Event) {
	s.mu.Lock()
	entries := append([]callbackEntry(nil), s.callbacks[kind]...)
	s.mu.Unlock()

	event.Kind = kind
	for _, e := range entries {
		event.Context = e.context
		e.fn(event)
	}
}
