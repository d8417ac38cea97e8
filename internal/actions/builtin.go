package actions

import (
	"fmt"
	"strconv"
	"strings"
)

// Builtins returns fresh instances of the built-in actions.
func Builtins() []Action {
	return []Action{
		&EchoAction{},
		&PauseAction{},
		&ResumeAction{},
		&AbortAction{},
		&DebugAction{},
		&LanguageAction{},
	}
}

// EchoAction prints the binding's reply with captured values substituted.
type EchoAction struct{}

// Name returns "echo".
func (a *EchoAction) Name() string { return "echo" }

// Description explains the reply placeholders.
func (a *EchoAction) Description() string {
	return "Print the reply; {1}..{n} are captured values and {*} is all of them"
}

// Run prints the expanded reply, or the phrase and captures when no reply is set.
func (a *EchoAction) Run(ctx Context, binding Binding, params []string) error {
	if ctx.Printer == nil {
		return fmt.Errorf("echo requires a printer")
	}
	reply := binding.Reply
	if reply == "" {
		reply = binding.Phrase
		if len(params) > 0 {
			reply += " " + strings.Join(params, " ")
		}
	}
	ctx.Printer.Println(Expand(reply, params))
	return nil
}

// Expand replaces {n} with the n-th capture and {*} with all captures joined by spaces.
// Placeholders without a matching capture expand to nothing.
func Expand(template string, params []string) string {
	var b strings.Builder
	for i := 0; i < len(template); i++ {
		if template[i] != '{' {
			b.WriteByte(template[i])
			continue
		}
		end := strings.IndexByte(template[i:], '}')
		if end < 0 {
			b.WriteString(template[i:])
			break
		}
		key := template[i+1 : i+end]
		switch {
		case key == "*":
			b.WriteString(strings.Join(params, " "))
		default:
			n, err := strconv.Atoi(key)
			if err != nil {
				b.WriteString(template[i : i+end+1])
			} else if n >= 1 && n <= len(params) {
				b.WriteString(params[n-1])
			}
		}
		i += end
	}
	return b.String()
}

// PauseAction pauses command dispatch.
type PauseAction struct{}

// Name returns "pause".
func (a *PauseAction) Name() string { return "pause" }

// Description describes the action.
func (a *PauseAction) Description() string {
	return "Stop responding to commands without stopping recognition"
}

// Run pauses the session.
func (a *PauseAction) Run(ctx Context, _ Binding, _ []string) error {
	if ctx.Session == nil {
		return fmt.Errorf("pause requires a session")
	}
	ctx.Session.Pause()
	return nil
}

// ResumeAction resumes command dispatch.
type ResumeAction struct{}

// Name returns "resume".
func (a *ResumeAction) Name() string { return "resume" }

// Description describes the action.
func (a *ResumeAction) Description() string {
	return "Resume responding to commands"
}

// Run resumes the session.
func (a *ResumeAction) Run(ctx Context, _ Binding, _ []string) error {
	if ctx.Session == nil {
		return fmt.Errorf("resume requires a session")
	}
	ctx.Session.Resume()
	return nil
}

// AbortAction stops recognition.
type AbortAction struct{}

// Name returns "abort".
func (a *AbortAction) Name() string { return "abort" }

// Description describes the action.
func (a *AbortAction) Description() string {
	return "Stop recognition and disable auto-restart"
}

// Run aborts the session.
func (a *AbortAction) Run(ctx Context, _ Binding, _ []string) error {
	if ctx.Session == nil {
		return fmt.Errorf("abort requires a session")
	}
	ctx.Session.Abort()
	return nil
}

// DebugAction toggles diagnostic logging. A reply of "off" disables it.
type DebugAction struct{}

// Name returns "debug".
func (a *DebugAction) Name() string { return "debug" }

// Description describes the action.
func (a *DebugAction) Description() string {
	return "Turn diagnostic logging on, or off when the reply is \"off\""
}

// Run toggles debug mode.
func (a *DebugAction) Run(ctx Context, binding Binding, _ []string) error {
	if ctx.Session == nil {
		return fmt.Errorf("debug requires a session")
	}
	ctx.Session.Debug(!strings.EqualFold(strings.TrimSpace(binding.Reply), "off"))
	return nil
}

// LanguageAction switches the recognition language to the first captured value,
// or to the reply when nothing was captured.
type LanguageAction struct{}

// Name returns "language".
func (a *LanguageAction) Name() string { return "language" }

// Description describes the action.
func (a *LanguageAction) Description() string {
	return "Switch the recognition language to the captured tag or the reply"
}

// Run sets the session language.
func (a *LanguageAction) Run(ctx Context, binding Binding, params []string) error {
	if ctx.Session == nil {
		return fmt.Errorf("language requires a session")
	}
	lang := strings.TrimSpace(binding.Reply)
	if len(params) > 0 && params[0] != "" {
		lang = params[0]
	}
	if lang == "" {
		return fmt.Errorf("no language given")
	}
	ctx.Session.SetLanguage(lang)
	if ctx.Printer != nil {
		ctx.Printer.Info("language set to " + lang)
	}
	return nil
}
