package executor

import (
	"context"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/forgeci/internal/config"
	"github.com/vk/forgeci/internal/ctxlog"
	"github.com/vk/forgeci/internal/matrix"
	"github.com/vk/forgeci/internal/report"
)

// runInstance executes one job instance: its steps, strictly in declaration
// order, with fail-fast skip of everything after the first failure (unless
// that step opted into continue_on_error). The instance's conclusion is
// recorded on its report entry; runInstance itself never fails the engine.
func (e *Executor) runInstance(ctx context.Context, wf *config.Workflow, job *config.Job, inst *report.InstanceResult, combo matrix.Combination) {
	logger := ctxlog.FromContext(ctx).With("instance", inst.Name)
	ctx = ctxlog.WithLogger(ctx, logger)
	inst.Status = report.StatusRunning
	logger.Info("Starting job instance.", "steps", len(job.Steps))

	for _, step := range job.Steps {
		inst.Steps = append(inst.Steps, &report.StepResult{
			Name:       step.Name,
			RunnerType: step.RunnerType,
			Status:     report.StatusPending,
		})
	}

	workspace, err := e.workspaceDir(wf, inst)
	if err != nil {
		logger.Error("Workspace setup failed.", "error", err)
		for _, sr := range inst.Steps {
			sr.Status = report.StatusCompleted
			sr.Conclusion = report.ConclusionSkipped
		}
		inst.Conclude()
		inst.Conclusion = report.ConclusionFailure
		return
	}

	// Instance-level env: the feature selection the matrix made for us.
	instanceEnv := map[string]string{}
	if job.Matrix != nil {
		instanceEnv["FEATURES"] = combo.String()
	}

	stepOutputs := make(map[string]cty.Value)
	failed := false

	for i, step := range job.Steps {
		result := inst.Steps[i]
		if failed || ctx.Err() != nil {
			result.Status = report.StatusCompleted
			result.Conclusion = report.ConclusionSkipped
			continue
		}

		env := layerEnv(wf.Env, job.Env, instanceEnv, step.Env)
		evalCtx := buildEvalContext(env, combo, stepOutputs)

		output, stepErr := e.runStep(ctx, step, result, workspace, env, evalCtx)
		if stepErr != nil {
			if !step.ContinueOnError {
				failed = true
			}
			continue
		}
		if output != cty.NilVal {
			stepOutputs[step.Name] = output
		}
	}

	inst.Conclude()
	// continue_on_error failures must not fail the instance.
	if !failed && inst.Conclusion == report.ConclusionFailure {
		inst.Conclusion = report.ConclusionSuccess
	}
	logger.Info("Job instance finished.", "conclusion", inst.Conclusion)
}

// featureList converts a combination into the cty list exposed to step
// expressions as matrix.features.
func featureList(combo matrix.Combination) cty.Value {
	if len(combo.Features) == 0 {
		return cty.ListValEmpty(cty.String)
	}
	vals := make([]cty.Value, 0, len(combo.Features))
	for _, f := range combo.Features {
		vals = append(vals, cty.StringVal(f))
	}
	return cty.ListVal(vals)
}

// envBlock converts the layered env pairs back into the cty map exposed to
// step expressions as env.
func envBlock(env []string) cty.Value {
	if len(env) == 0 {
		return cty.MapValEmpty(cty.String)
	}
	m := make(map[string]cty.Value, len(env))
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = cty.StringVal(v)
		}
	}
	return cty.MapVal(m)
}
