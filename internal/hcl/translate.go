package hcl

import (
	"fmt"

	"github.com/vk/forgeci/internal/config"
	"github.com/vk/forgeci/internal/schema"
)

// translateWorkflow converts a decoded workflow block into the model form.
func translateWorkflow(w *schema.Workflow) (*config.Workflow, error) {
	wf := &config.Workflow{
		Name: w.Name,
		Env:  w.Env,
	}

	if w.On != nil {
		if w.On.Push != nil {
			wf.Triggers = append(wf.Triggers, &config.Trigger{
				Kind:     "push",
				Branches: w.On.Push.Branches,
			})
		}
		if w.On.PullRequest != nil {
			wf.Triggers = append(wf.Triggers, &config.Trigger{
				Kind:     "pull_request",
				Branches: w.On.PullRequest.Branches,
			})
		}
	}

	for _, j := range w.Jobs {
		job, err := translateJob(j)
		if err != nil {
			return nil, fmt.Errorf("workflow %q: %w", w.Name, err)
		}
		wf.Jobs = append(wf.Jobs, job)
	}
	return wf, nil
}

func translateJob(j *schema.Job) (*config.Job, error) {
	job := &config.Job{
		Name:   j.Name,
		RunsOn: j.RunsOn,
		Needs:  j.Needs,
		Env:    j.Env,
	}
	if j.Matrix != nil {
		job.Matrix = &config.Matrix{
			Features:    j.Matrix.Features,
			Always:      j.Matrix.Always,
			Skip:        j.Matrix.Skip,
			MaxParallel: j.Matrix.MaxParallel,
		}
	}
	for _, s := range j.Steps {
		step, err := translateStep(s)
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", j.Name, err)
		}
		job.Steps = append(job.Steps, step)
	}
	return job, nil
}

func translateStep(s *schema.Step) (*config.Step, error) {
	if s.Arguments == nil {
		return nil, fmt.Errorf("step %q (%s) is missing its arguments block", s.Name, s.RunnerType)
	}
	return &config.Step{
		Name:            s.Name,
		RunnerType:      s.RunnerType,
		Arguments:       s.Arguments.Body,
		Env:             s.Env,
		ContinueOnError: s.ContinueOnError,
	}, nil
}

// translateRunner converts a decoded runner manifest into the model form.
func translateRunner(r *schema.Runner) *config.RunnerDefinition {
	def := &config.RunnerDefinition{
		Type:        r.Type,
		Description: r.Description,
		Lifecycle:   &config.Lifecycle{},
		Inputs:      make(map[string]*config.InputDefinition, len(r.Inputs)),
		Outputs:     make(map[string]*config.OutputDefinition, len(r.Outputs)),
	}
	if r.Lifecycle != nil {
		def.Lifecycle.OnRun = r.Lifecycle.OnRun
	}
	for _, in := range r.Inputs {
		def.Inputs[in.Name] = &config.InputDefinition{
			Name:        in.Name,
			Description: in.Description,
			Default:     in.Default,
			Optional:    in.Optional,
		}
	}
	for _, out := range r.Outputs {
		def.Outputs[out.Name] = &config.OutputDefinition{
			Name:        out.Name,
			Description: out.Description,
		}
	}
	return def
}
