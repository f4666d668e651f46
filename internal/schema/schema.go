// Package schema declares the HCL block structures for workflow files and
// runner manifests. These are the raw decode targets; translation into the
// format-agnostic config model happens in the hcl package.
package schema

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// --- Workflow definition structures ---

// File is the decode target for any top-level definition file. Workflow
// files and runner manifests may live side by side; any file may carry any
// block kind.
type File struct {
	Workflows []*Workflow `hcl:"workflow,block"`
	Runners   []*Runner   `hcl:"runner,block"`
	Remain    hcl.Body    `hcl:",remain"`
}

// Workflow is a `workflow "<name>"` block.
type Workflow struct {
	Name string            `hcl:"name,label"`
	On   *On               `hcl:"on,block"`
	Env  map[string]string `hcl:"env,optional"`
	Jobs []*Job            `hcl:"job,block"`
}

// On groups a workflow's triggers.
type On struct {
	Push        *TriggerFilter `hcl:"push,block"`
	PullRequest *TriggerFilter `hcl:"pull_request,block"`
}

// TriggerFilter narrows one event kind to a set of branch patterns.
type TriggerFilter struct {
	Branches []string `hcl:"branches,optional"`
}

// Job is a `job "<name>"` block: an ordered list of steps plus scheduling
// metadata.
type Job struct {
	Name   string            `hcl:"name,label"`
	RunsOn string            `hcl:"runs_on,optional"`
	Needs  []string          `hcl:"needs,optional"`
	Env    map[string]string `hcl:"env,optional"`
	Matrix *Matrix           `hcl:"matrix,block"`
	Steps  []*Step           `hcl:"step,block"`
}

// Matrix is a `matrix` block declaring the feature powerset of a job.
type Matrix struct {
	Features    []string   `hcl:"features"`
	Always      []string   `hcl:"always,optional"`
	Skip        [][]string `hcl:"skip,optional"`
	MaxParallel int        `hcl:"max_parallel,optional"`
}

// StepArgs holds the raw body of a step's `arguments` block. It is decoded
// against the step's evaluation context when the step actually runs.
type StepArgs struct {
	Body hcl.Body `hcl:",remain"`
}

// Step is a `step "<runner_type>" "<name>"` block inside a job.
type Step struct {
	RunnerType      string            `hcl:"runner_type,label"`
	Name            string            `hcl:"step_name,label"`
	Arguments       *StepArgs         `hcl:"arguments,block"`
	Env             map[string]string `hcl:"env,optional"`
	ContinueOnError bool              `hcl:"continue_on_error,optional"`
}

// --- Runner manifest structures ---

// Runner is a `runner "<type>"` manifest block describing a step runner's
// contract.
type Runner struct {
	Type        string              `hcl:"runner_type,label"`
	Description string              `hcl:"description,optional"`
	Lifecycle   *Lifecycle          `hcl:"lifecycle,block"`
	Inputs      []*InputDefinition  `hcl:"input,block"`
	Outputs     []*OutputDefinition `hcl:"output,block"`
}

// Lifecycle maps a runner's run event to a registered Go handler name.
type Lifecycle struct {
	OnRun string `hcl:"on_run"`
}

// InputDefinition declares one argument a runner accepts.
type InputDefinition struct {
	Name        string     `hcl:"name,label"`
	Description string     `hcl:"description,optional"`
	Default     *cty.Value `hcl:"default,optional"`
	Optional    bool       `hcl:"optional,optional"`
}

// OutputDefinition declares one value a runner produces.
type OutputDefinition struct {
	Name        string `hcl:"name,label"`
	Description string `hcl:"description,optional"`
}
