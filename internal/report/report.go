// Package report models the observable outcome of a run: per-step, per-job
// and per-run statuses and conclusions, folded deterministically from the
// exit codes of the underlying step invocations.
package report

import (
	"time"
)

// Status tracks where a unit of work is in its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
)

// Conclusion is the terminal outcome of a completed unit of work.
type Conclusion string

const (
	ConclusionNone      Conclusion = ""
	ConclusionSuccess   Conclusion = "success"
	ConclusionFailure   Conclusion = "failure"
	ConclusionSkipped   Conclusion = "skipped"
	ConclusionCancelled Conclusion = "cancelled"
)

// StepResult records one step invocation inside a job instance.
type StepResult struct {
	Name       string     `json:"name"`
	RunnerType string     `json:"runner_type"`
	Status     Status     `json:"status"`
	Conclusion Conclusion `json:"conclusion,omitempty"`
	ExitCode   *int       `json:"exit_code,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// InstanceResult records one job instance: the job itself when it has no
// matrix, or one feature combination of it when it does.
type InstanceResult struct {
	Name       string        `json:"name"`
	Features   []string      `json:"features,omitempty"`
	Status     Status        `json:"status"`
	Conclusion Conclusion    `json:"conclusion,omitempty"`
	Steps      []*StepResult `json:"steps"`
}

// JobResult records a job across all of its instances.
type JobResult struct {
	Name       string            `json:"name"`
	Status     Status            `json:"status"`
	Conclusion Conclusion        `json:"conclusion,omitempty"`
	Instances  []*InstanceResult `json:"instances"`
}

// Run records a complete engine invocation.
type Run struct {
	ID         string       `json:"id"`
	Workflow   string       `json:"workflow"`
	EventKind  string       `json:"event"`
	Branch     string       `json:"branch"`
	Status     Status       `json:"status"`
	Conclusion Conclusion   `json:"conclusion,omitempty"`
	Jobs       []*JobResult `json:"jobs"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
}

// Fold combines child conclusions into a parent conclusion. Failure beats
// cancellation beats success; skipped children are ignored unless everything
// was skipped, in which case the parent is skipped too.
func Fold(children []Conclusion) Conclusion {
	if len(children) == 0 {
		return ConclusionSuccess
	}
	folded := ConclusionSkipped
	for _, c := range children {
		switch c {
		case ConclusionFailure:
			return ConclusionFailure
		case ConclusionCancelled:
			folded = ConclusionCancelled
		case ConclusionSuccess:
			if folded != ConclusionCancelled {
				folded = ConclusionSuccess
			}
		}
	}
	return folded
}

// Conclude marks an instance completed with the conclusion folded from its
// steps.
func (ir *InstanceResult) Conclude() {
	concls := make([]Conclusion, 0, len(ir.Steps))
	for _, s := range ir.Steps {
		concls = append(concls, s.Conclusion)
	}
	ir.Status = StatusCompleted
	ir.Conclusion = Fold(concls)
}

// Conclude marks a job completed with the conclusion folded from its
// instances.
func (jr *JobResult) Conclude() {
	concls := make([]Conclusion, 0, len(jr.Instances))
	for _, inst := range jr.Instances {
		concls = append(concls, inst.Conclusion)
	}
	jr.Status = StatusCompleted
	jr.Conclusion = Fold(concls)
}

// Conclude marks the run completed with the conclusion folded from its jobs
// and stamps the finish time.
func (r *Run) Conclude(now time.Time) {
	concls := make([]Conclusion, 0, len(r.Jobs))
	for _, j := range r.Jobs {
		concls = append(concls, j.Conclusion)
	}
	r.Status = StatusCompleted
	r.Conclusion = Fold(concls)
	r.FinishedAt = &now
}

// Failed reports whether the run concluded with a failure.
func (r *Run) Failed() bool {
	return r.Conclusion == ConclusionFailure
}
