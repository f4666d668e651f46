package report

import (
	"fmt"
	"io"
	"strings"
)

// conclusionMark maps a conclusion to its one-character summary marker.
func conclusionMark(c Conclusion) string {
	switch c {
	case ConclusionSuccess:
		return "✔"
	case ConclusionFailure:
		return "✖"
	case ConclusionSkipped:
		return "-"
	case ConclusionCancelled:
		return "!"
	}
	return "?"
}

// Render writes a human-readable summary of the run, one line per step,
// indented by job and instance.
func (r *Run) Render(w io.Writer) {
	fmt.Fprintf(w, "workflow %s (%s on %s): %s\n", r.Workflow, r.EventKind, r.Branch, r.Conclusion)
	for _, job := range r.Jobs {
		fmt.Fprintf(w, "  %s job %s\n", conclusionMark(job.Conclusion), job.Name)
		for _, inst := range job.Instances {
			if len(job.Instances) > 1 || len(inst.Features) > 0 {
				fmt.Fprintf(w, "    %s [%s]\n", conclusionMark(inst.Conclusion), strings.Join(inst.Features, ","))
			}
			for _, step := range inst.Steps {
				line := fmt.Sprintf("      %s %s (%s)", conclusionMark(step.Conclusion), step.Name, step.RunnerType)
				if step.ExitCode != nil && *step.ExitCode != 0 {
					line += fmt.Sprintf(" exit=%d", *step.ExitCode)
				}
				fmt.Fprintln(w, line)
			}
		}
	}
}
