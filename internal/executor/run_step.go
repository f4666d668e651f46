package executor

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/forgeci/internal/config"
	"github.com/vk/forgeci/internal/ctxlog"
	"github.com/vk/forgeci/internal/registry"
	"github.com/vk/forgeci/internal/report"
)

// logWriter adapts the structured logger into the io.Writer runners stream
// step output into. Each write is one log record; runners write line-wise.
type logWriter struct {
	ctx  context.Context
	step string
}

func (w *logWriter) Write(p []byte) (int, error) {
	line := string(p)
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	ctxlog.FromContext(w.ctx).Info(line, "step", w.step)
	return len(p), nil
}

// runStep decodes the step's arguments against the evaluation context,
// invokes the registered handler, and records status, conclusion, timing and
// exit code on the step's report entry. The returned value is the step's
// output, exposed to later steps as steps.<name>.output.
func (e *Executor) runStep(ctx context.Context, step *config.Step, result *report.StepResult, workspace string, env []string, evalCtx *hcl.EvalContext) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx).With("step", step.Name, "runner", step.RunnerType)
	started := e.now()
	result.Status = report.StatusRunning
	result.StartedAt = &started
	logger.Info("Starting step.")

	output, err := e.invokeHandler(ctx, step, workspace, env, evalCtx)

	finished := e.now()
	result.Status = report.StatusCompleted
	result.FinishedAt = &finished

	if err != nil {
		result.Error = err.Error()
		var coded interface{ ExitCode() int }
		if errors.As(err, &coded) {
			code := coded.ExitCode()
			result.ExitCode = &code
		}
		if ctx.Err() != nil {
			result.Conclusion = report.ConclusionCancelled
			logger.Warn("Step cancelled.", "error", err)
		} else {
			result.Conclusion = report.ConclusionFailure
			logger.Error("Step failed.", "error", err)
		}
		return cty.NilVal, err
	}

	zero := 0
	result.ExitCode = &zero
	result.Conclusion = report.ConclusionSuccess
	logger.Info("Step finished.")
	return output, nil
}

// invokeHandler resolves the step's runner through the registry, builds the
// typed input struct from the arguments body, and calls the Go handler via
// reflection. Registry validation at startup guarantees both halves exist
// and the handler has the documented shape.
func (e *Executor) invokeHandler(ctx context.Context, step *config.Step, workspace string, env []string, evalCtx *hcl.EvalContext) (cty.Value, error) {
	def := e.registry.Definition(step.RunnerType)
	if def == nil {
		return cty.NilVal, fmt.Errorf("unknown runner type %q", step.RunnerType)
	}
	handler := e.registry.Handler(def.Lifecycle.OnRun)
	if handler == nil {
		return cty.NilVal, fmt.Errorf("handler %q not registered", def.Lifecycle.OnRun)
	}

	var input any
	if handler.NewInput != nil {
		input = handler.NewInput()
	}
	if input != nil {
		if diags := gohcl.DecodeBody(step.Arguments, evalCtx, input); diags.HasErrors() {
			return cty.NilVal, fmt.Errorf("failed to decode arguments for step %q: %w", step.Name, diags)
		}
	}

	stepCtx := &registry.StepContext{
		Workspace: workspace,
		Env:       env,
		Output:    &logWriter{ctx: ctx, step: step.Name},
	}

	fn := reflect.ValueOf(handler.Fn)
	args := []reflect.Value{
		reflect.ValueOf(ctx),
		reflect.ValueOf(stepCtx),
	}
	if input == nil {
		args = append(args, reflect.Zero(fn.Type().In(2)))
	} else {
		args = append(args, reflect.ValueOf(input))
	}

	results := fn.Call(args)
	if errVal := results[1].Interface(); errVal != nil {
		return cty.NilVal, errVal.(error)
	}
	return toCtyValue(results[0].Interface())
}
