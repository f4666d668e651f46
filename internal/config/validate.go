package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/forgeci/internal/matrix"
)

// Validate performs the structural checks every loader must apply before
// handing a model to the engine: name uniqueness, needs references and
// cycles, matrix sanity, and step output ordering. Runner/handler parity is
// checked separately at startup, once Go-registered definitions have been
// merged in.
func Validate(model *Model) error {
	seen := make(map[string]struct{}, len(model.Workflows))
	for _, wf := range model.Workflows {
		if _, dup := seen[wf.Name]; dup {
			return fmt.Errorf("workflow %q defined more than once", wf.Name)
		}
		seen[wf.Name] = struct{}{}

		if err := validateWorkflow(wf); err != nil {
			return fmt.Errorf("workflow %q: %w", wf.Name, err)
		}
	}
	return nil
}

func validateWorkflow(wf *Workflow) error {
	jobs := make(map[string]struct{}, len(wf.Jobs))
	for _, job := range wf.Jobs {
		if _, dup := jobs[job.Name]; dup {
			return fmt.Errorf("job %q defined more than once", job.Name)
		}
		jobs[job.Name] = struct{}{}
	}

	for _, job := range wf.Jobs {
		for _, need := range job.Needs {
			if _, ok := jobs[need]; !ok {
				return fmt.Errorf("job %q needs unknown job %q", job.Name, need)
			}
		}
		if job.Matrix != nil {
			if err := matrix.Validate(job.Matrix.Features, job.Matrix.Always); err != nil {
				return fmt.Errorf("job %q: %w", job.Name, err)
			}
		}
		if err := validateSteps(job); err != nil {
			return fmt.Errorf("job %q: %w", job.Name, err)
		}
	}

	return detectNeedsCycle(wf)
}

// validateSteps checks step name uniqueness and that any steps.<name>
// reference points at an EARLIER step of the same job. Steps run strictly in
// order, so a forward reference could never resolve.
func validateSteps(job *Job) error {
	done := make(map[string]struct{}, len(job.Steps))
	for _, step := range job.Steps {
		if _, dup := done[step.Name]; dup {
			return fmt.Errorf("step %q defined more than once", step.Name)
		}
		for _, ref := range stepReferences(step.Arguments) {
			if _, ok := done[ref]; !ok {
				return fmt.Errorf("step %q references steps.%s before it has run", step.Name, ref)
			}
		}
		done[step.Name] = struct{}{}
	}
	return nil
}

// stepReferences extracts the step names mentioned via steps.<name>.* in an
// arguments body. Bodies with nested blocks are tolerated; only attribute
// expressions are inspected.
func stepReferences(body hcl.Body) []string {
	if body == nil {
		return nil
	}
	attrs, _ := body.JustAttributes() // diagnostics about blocks are irrelevant here
	var refs []string
	for _, attr := range attrs {
		for _, trav := range attr.Expr.Variables() {
			if trav.RootName() != "steps" || len(trav) < 2 {
				continue
			}
			if next, ok := trav[1].(hcl.TraverseAttr); ok {
				refs = append(refs, next.Name)
			}
		}
	}
	return refs
}

// detectNeedsCycle rejects workflows whose needs edges form a cycle.
func detectNeedsCycle(wf *Workflow) error {
	const (
		white = iota // unvisited
		grey         // on the current path
		black        // finished
	)
	color := make(map[string]int, len(wf.Jobs))

	var visit func(name string) error
	visit = func(name string) error {
		switch color[name] {
		case grey:
			return fmt.Errorf("needs cycle involving job %q", name)
		case black:
			return nil
		}
		color[name] = grey
		if job := wf.Job(name); job != nil {
			for _, need := range job.Needs {
				if err := visit(need); err != nil {
					return err
				}
			}
		}
		color[name] = black
		return nil
	}

	for _, job := range wf.Jobs {
		if err := visit(job.Name); err != nil {
			return err
		}
	}
	return nil
}
