package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of everything the
// engine loads: runner manifests plus the user's workflow definitions.
type Model struct {
	Runners   map[string]*RunnerDefinition
	Workflows []*Workflow
}

// Workflow returns the workflow with the given name, or nil.
func (m *Model) Workflow(name string) *Workflow {
	for _, w := range m.Workflows {
		if w.Name == name {
			return w
		}
	}
	return nil
}

// Workflow is the format-agnostic representation of a `workflow` block or an
// imported GitHub Actions document.
type Workflow struct {
	Name     string
	Triggers []*Trigger
	Env      map[string]string
	Jobs     []*Job
}

// Job returns the job with the given name, or nil.
func (w *Workflow) Job(name string) *Job {
	for _, j := range w.Jobs {
		if j.Name == name {
			return j
		}
	}
	return nil
}

// Trigger declares one event kind a workflow reacts to, with optional branch
// filters. An empty Branches slice matches every branch.
type Trigger struct {
	Kind     string // "push" or "pull_request"
	Branches []string
}

// Job is an ordered sequence of steps sharing a workspace. Jobs with a
// Matrix expand into one instance per feature combination at run time.
type Job struct {
	Name   string
	RunsOn string
	Needs  []string
	Env    map[string]string
	Matrix *Matrix
	Steps  []*Step
}

// Matrix declares a feature powerset for a job: every combination of
// Features (plus Always) becomes one job instance, except those in Skip.
type Matrix struct {
	Features    []string
	Always      []string
	Skip        [][]string
	MaxParallel int
}

// Step is a single runner invocation inside a job. Arguments stay as a raw
// HCL body and are decoded against the step's evaluation context just before
// the handler runs.
type Step struct {
	Name            string
	RunnerType      string
	Arguments       hcl.Body
	Env             map[string]string
	ContinueOnError bool
}

// --- Runner manifest models ---

// RunnerDefinition is the format-agnostic representation of a runner's
// manifest: its input/output contract and the Go handler bound to it.
type RunnerDefinition struct {
	Type        string
	Description string
	Lifecycle   *Lifecycle
	Inputs      map[string]*InputDefinition
	Outputs     map[string]*OutputDefinition
}

// Lifecycle maps a runner's events to registered Go handler names.
type Lifecycle struct {
	OnRun string
}

// InputDefinition describes one argument a runner accepts.
type InputDefinition struct {
	Name        string
	Description string
	Default     *cty.Value
	Optional    bool
}

// OutputDefinition describes one value a runner produces.
type OutputDefinition struct {
	Name        string
	Description string
}
