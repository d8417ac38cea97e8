package recognition

import (
	"regexp"
	"strings"

	"hark/pkg/phrase"
)

// CommandFunc is invoked with the values captured by a command's phrase.
type CommandFunc func(params []string)

// Command maps a phrase to a callback. When Pattern is set it replaces the
// phrase grammar and Phrase only serves as the command's name.
type Command struct {
	Phrase   string
	Callback CommandFunc
	Pattern  *regexp.Regexp
}

type command struct {
	pattern  *phrase.Pattern
	callback CommandFunc
}

// AddCommand registers a single phrase.
func (s *Session) AddCommand(text string, fn CommandFunc) {
	s.AddCommands(Command{Phrase: text, Callback: fn})
}

// AddCommands registers commands in order; earlier commands win ambiguous matches.
// Commands without a callback, with an expression that fails to compile, or
// with a phrase that is already registered are skipped.
func (s *Session) AddCommands(cmds ...Command) {
	for _, c := range cmds {
		if c.Callback == nil {
			s.debugf("Can not register command", "phrase", c.Phrase)
			continue
		}

		var (
			p   *phrase.Pattern
			err error
		)
		if c.Pattern != nil {
			p, err = phrase.FromRegexp(c.Phrase, c.Pattern)
		} else {
			p, err = phrase.Compile(c.Phrase)
		}
		if err != nil {
			s.debugf("Can not register command", "phrase", c.Phrase, "error", err)
			continue
		}

		if !s.registerCommand(&command{pattern: p, callback: c.Callback}) {
			s.debugf("Command already registered", "phrase", c.Phrase)
			continue
		}
		s.debugf("Command successfully loaded", "phrase", c.Phrase)
	}
}

// ResetCommands removes every registered command, then adds cmds.
func (s *Session) ResetCommands(cmds ...Command) {
	s.RemoveCommands()
	s.AddCommands(cmds...)
}

// RemoveCommands removes the commands registered under the given phrases.
// Called without arguments it removes every command.
func (s *Session) RemoveCommands(phrases ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(phrases) == 0 {
		s.commands = nil
		return
	}

	remove := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		remove[p] = struct{}{}
	}

	kept := make([]*command, 0, len(s.commands))
	for _, c := range s.commands {
		if _, ok := remove[c.pattern.Phrase()]; !ok {
			kept = append(kept, c)
		}
	}
	s.commands = kept
}

// Commands returns the registered phrases in match priority order.
func (s *Session) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	phrases := make([]string, 0, len(s.commands))
	for _, c := range s.commands {
		phrases = append(phrases, c.pattern.Phrase())
	}
	return phrases
}

func (s *Session) registerCommand(c *command) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.commands {
		if existing.pattern.Phrase() == c.pattern.Phrase() {
			return false
		}
	}
	s.commands = append(s.commands, c)
	return true
}

// Trigger feeds sentences through the same path as engine results, as if they
// were the alternatives of one result. It does nothing unless the session is
// listening and not paused.
func (s *Session) Trigger(sentences ...string) {
	s.mu.Lock()
	listening, paused := s.listening, s.paused
	s.mu.Unlock()

	if !listening {
		s.debugf("Cannot trigger while recognition is aborted")
		return
	}
	if paused {
		s.debugf("Speech heard, but recognition is paused")
		return
	}
	s.dispatch(sentences)
}

// dispatch tries every alternative against every command, in order, and runs
// the first match only.
func (s *Session) dispatch(alternatives []string) {
	s.invoke(EventResult, Event{Alternatives: alternatives})

	s.mu.Lock()
	cmds := append([]*command(nil), s.commands...)
	s.mu.Unlock()

	for _, alt := range alternatives {
		said := strings.TrimSpace(alt)
		s.debugf("Speech recognized", "said", said)

		for _, c := range cmds {
			params, ok := c.pattern.Match(said)
			if !ok {
				continue
			}
			s.debugf("Command matched", "phrase", c.pattern.Phrase())
			if len(params) > 0 {
				s.debugf("With parameters", "params", params)
			}
			c.callback(params)
			s.invoke(EventResultMatch, Event{
				Said:         said,
				Phrase:       c.pattern.Phrase(),
				Alternatives: alternatives,
			})
			return
		}
	}

	s.invoke(EventResultNoMatch, Event{Alternatives: alternatives})
}
