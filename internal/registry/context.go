package registry

import "io"

// StepContext is what the executor hands every runner invocation: the job
// workspace, the fully layered process environment, and the sink step output
// should stream into. It is deliberately small; anything else a runner needs
// comes through its typed input struct.
type StepContext struct {
	// Workspace is the directory the job's steps share.
	Workspace string

	// Env is the complete process environment for spawned commands, layered
	// engine < workflow < job < matrix instance < step.
	Env []string

	// Output receives the step's combined stdout/stderr, line by line.
	Output io.Writer
}
