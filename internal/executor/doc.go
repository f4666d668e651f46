// Package executor turns a loaded workflow and an event into a finished run
// report. Jobs are scheduled over a fixed worker pool respecting their needs
// edges; a job's feature matrix fans out into instances with bounded
// parallelism; steps inside an instance run strictly sequentially with
// fail-fast skip. Pass/fail is carried entirely by step exit codes and
// handler errors folded into conclusions; the executor itself only errors on
// engine faults.
package executor
