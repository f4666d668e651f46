package registry

import (
	"fmt"
	"log/slog"
)

// RegisteredRunner holds the compiled Go side of a runner: a constructor for
// its typed input struct and the handler invoked when a step runs.
//
// Fn must have the shape
//
//	func(ctx context.Context, exec *StepContext, input *Input) (any, error)
//
// where *Input is the type NewInput returns. The executor invokes it through
// reflection after decoding the step's arguments into the input struct.
type RegisteredRunner struct {
	NewInput func() any
	Fn       any
}

// RegisterRunner registers a Go handler under its lifecycle name. Panics on
// duplicates: two handlers claiming one name is a programmer error.
func (r *Registry) RegisterRunner(name string, handler *RegisteredRunner) {
	if _, exists := r.Handlers[name]; exists {
		panic(fmt.Sprintf("runner handler '%s' already registered", name))
	}
	slog.Debug("Registering runner handler.", "name", name)
	r.Handlers[name] = handler
}

// Handler returns the registered handler with the given name, or nil.
func (r *Registry) Handler(name string) *RegisteredRunner {
	return r.Handlers[name]
}
