package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/forgeci/internal/config"
	"github.com/vk/forgeci/internal/ctxlog"
)

var (
	ctxType     = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType     = reflect.TypeOf((*error)(nil)).Elem()
	stepCtxType = reflect.TypeOf((*StepContext)(nil))
)

// Validate performs a strict parity check between runner manifests and Go
// handlers so that no step can reach a missing or malformed handler at run
// time. It is called once at startup, after all modules registered and all
// definition files were merged.
func (r *Registry) Validate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	var errs []string

	for runnerType, def := range r.Definitions {
		if def.Lifecycle == nil || def.Lifecycle.OnRun == "" {
			errs = append(errs, fmt.Sprintf("runner '%s': manifest declares no on_run handler", runnerType))
			continue
		}
		handler, ok := r.Handlers[def.Lifecycle.OnRun]
		if !ok {
			errs = append(errs, fmt.Sprintf("runner '%s': handler '%s' is not registered", runnerType, def.Lifecycle.OnRun))
			continue
		}
		if err := validateHandler(handler); err != nil {
			errs = append(errs, fmt.Sprintf("runner '%s': %v", runnerType, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	logger.Debug("Registry validation passed.", "definitions", len(r.Definitions), "handlers", len(r.Handlers))
	return nil
}

// validateHandler checks the reflective shape of a handler function against
// the contract documented on RegisteredRunner.
func validateHandler(h *RegisteredRunner) error {
	if h.Fn == nil {
		return fmt.Errorf("handler has no Fn")
	}
	fn := reflect.TypeOf(h.Fn)
	if fn.Kind() != reflect.Func {
		return fmt.Errorf("handler Fn is %s, not a function", fn.Kind())
	}
	if fn.NumIn() != 3 || fn.NumOut() != 2 {
		return fmt.Errorf("handler must be func(context.Context, *registry.StepContext, *Input) (T, error)")
	}
	if !fn.In(0).Implements(ctxType) && fn.In(0) != ctxType {
		return fmt.Errorf("handler's first parameter must be context.Context")
	}
	if fn.In(1) != stepCtxType {
		return fmt.Errorf("handler's second parameter must be *registry.StepContext")
	}
	if !fn.Out(1).Implements(errType) {
		return fmt.Errorf("handler's second return value must be error")
	}
	if h.NewInput != nil {
		inputType := reflect.TypeOf(h.NewInput())
		if inputType != fn.In(2) {
			return fmt.Errorf("handler input parameter %s does not match NewInput's %s", fn.In(2), inputType)
		}
	}
	return nil
}

// ValidateModelSteps checks that every step of every workflow names a known
// runner type. Done at startup so a typo fails fast instead of mid-run.
func (r *Registry) ValidateModelSteps(model *config.Model) error {
	for _, wf := range model.Workflows {
		for _, job := range wf.Jobs {
			for _, step := range job.Steps {
				if _, ok := r.Definitions[step.RunnerType]; !ok {
					return fmt.Errorf("workflow %q job %q step %q: unknown runner type %q",
						wf.Name, job.Name, step.Name, step.RunnerType)
				}
			}
		}
	}
	return nil
}
