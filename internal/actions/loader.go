package actions

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"hark/internal/logger"
	"hark/internal/version"
	"hark/pkg/recognition"
)

// File is the on-disk layout of a command file.
//
//	requires: ">= 0.3"
//	commands:
//	  - phrase: "hello (there)"
//	    action: echo
//	    reply: "hi!"
//	  - phrase: "set language"
//	    regexp: "^set language to (\\S+)$"
//	    action: language
type File struct {
	// Requires is an optional semantic version constraint on hark itself.
	Requires string    `yaml:"requires,omitempty"`
	Commands []Binding `yaml:"commands"`
}

// Binding ties a phrase to an action.
type Binding struct {
	Phrase string `yaml:"phrase"`
	Action string `yaml:"action"`
	Reply  string `yaml:"reply,omitempty"`
	// Regexp, when set, is matched instead of the phrase grammar.
	Regexp string `yaml:"regexp,omitempty"`
}

// Parse decodes a command file.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse command file: %w", err)
	}
	if err := version.Check(f.Requires); err != nil {
		return nil, err
	}
	for i, b := range f.Commands {
		if strings.TrimSpace(b.Phrase) == "" {
			return nil, fmt.Errorf("command %d: phrase is required", i+1)
		}
		if strings.TrimSpace(b.Action) == "" {
			return nil, fmt.Errorf("command %q: action is required", b.Phrase)
		}
	}
	return &f, nil
}

// LoadFile reads and decodes a command file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read command file: %w", err)
	}
	return Parse(data)
}

// Commands resolves bindings into recognition commands that run their action
// against ctx. Every binding is checked; the returned error joins all problems
// and the returned commands hold only the valid bindings.
func (r *Registry) Commands(ctx Context, bindings []Binding) ([]recognition.Command, error) {
	cmds := make([]recognition.Command, 0, len(bindings))
	var errs []error

	for _, b := range bindings {
		if _, ok := r.Get(b.Action); !ok {
			errs = append(errs, fmt.Errorf("command %q: unknown action: %s", b.Phrase, b.Action))
			continue
		}

		var pattern *regexp.Regexp
		if b.Regexp != "" {
			re, err := regexp.Compile(b.Regexp)
			if err != nil {
				errs = append(errs, fmt.Errorf("command %q: invalid regexp: %w", b.Phrase, err))
				continue
			}
			pattern = re
		}

		binding := b
		cmds = append(cmds, recognition.Command{
			Phrase:  binding.Phrase,
			Pattern: pattern,
			Callback: func(params []string) {
				if err := r.Execute(binding.Action, ctx, binding, params); err != nil {
					logger.Error("Action failed", "phrase", binding.Phrase, "action", binding.Action, "error", err)
				}
			},
		})
	}

	return cmds, errors.Join(errs...)
}

// Install loads the command file at path and registers its commands on the session.
// It returns the number of commands handed to the session.
func (r *Registry) Install(ctx Context, path string) (int, error) {
	f, err := LoadFile(path)
	if err != nil {
		return 0, err
	}
	cmds, err := r.Commands(ctx, f.Commands)
	if ctx.Session != nil {
		ctx.Session.AddCommands(cmds...)
	}
	return len(cmds), err
}
