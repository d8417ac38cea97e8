// Package actions binds named actions to spoken phrases. It is the
// name-based layer on top of the recognition session: command files refer to
// actions by name and the registry resolves them to Go code.
package actions

import (
	"fmt"
	"sort"
	"sync"

	"hark/internal/output"
	"hark/pkg/recognition"
)

// Context is what an action can act upon.
type Context struct {
	Session *recognition.Session
	Printer *output.Printer
}

// Action is a named behavior a phrase can be bound to.
type Action interface {
	Name() string
	Description() string
	Run(ctx Context, binding Binding, params []string) error
}

// Registry manages action registration and lookup.
// It provides thread-safe registration and retrieval of actions by name.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]Action),
	}
}

// Register adds an action. Returns an error if the name is empty or taken.
func (r *Registry) Register(action Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if action.Name() == "" {
		return fmt.Errorf("action name cannot be empty")
	}
	if _, exists := r.actions[action.Name()]; exists {
		return fmt.Errorf("action %s already registered", action.Name())
	}

	r.actions[action.Name()] = action
	return nil
}

// Unregister removes an action by name. Unknown names are ignored.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.actions, name)
}

// Get retrieves an action by name.
func (r *Registry) Get(name string) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	action, exists := r.actions[name]
	return action, exists
}

// GetAll returns every registered action sorted by name.
func (r *Registry) GetAll() []Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Action, 0, len(r.actions))
	for _, a := range r.actions {
		all = append(all, a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name() < all[j].Name() })
	return all
}

// Execute runs the named action.
func (r *Registry) Execute(name string, ctx Context, binding Binding, params []string) error {
	action, exists := r.Get(name)
	if !exists {
		return fmt.Errorf("unknown action: %s", name)
	}
	return action.Run(ctx, binding, params)
}

// GlobalRegistry holds the built-in actions.
var GlobalRegistry = NewRegistry()

func init() {
	for _, a := range Builtins() {
		if err := GlobalRegistry.Register(a); err != nil {
			panic(err)
		}
	}
}
