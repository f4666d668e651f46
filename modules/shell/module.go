// Package shell provides the runner behind `step "shell"`: it executes a
// command line through the system shell inside the job workspace, with the
// fully layered environment, streaming output as it appears.
package shell

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vk/forgeci/internal/config"
	"github.com/vk/forgeci/internal/ctxlog"
	"github.com/vk/forgeci/internal/proc"
	"github.com/vk/forgeci/internal/registry"
)

// Module implements registry.Module for this package.
type Module struct{}

// Input defines the arguments of the shell runner.
type Input struct {
	Command string `hcl:"command"`
	Dir     string `hcl:"dir,optional"`
}

// OnRunShell executes the command line. A non-zero exit is returned as an
// error carrying the exit code, which fails the step and lands the code in
// the step's report entry. There is no step output: a shell step that
// succeeded has, by definition, exited zero.
func OnRunShell(ctx context.Context, exec *registry.StepContext, input *Input) (any, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Running shell command.", "command", input.Command)

	if input.Dir != "" {
		scoped := *exec
		scoped.Workspace = filepath.Join(exec.Workspace, input.Dir)
		exec = &scoped
	}

	if err := proc.RunShell(ctx, exec, input.Command); err != nil {
		return nil, fmt.Errorf("command %q failed: %w", input.Command, err)
	}
	return nil, nil
}

// Register hooks the runner into the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterDefinition(&config.RunnerDefinition{
		Type:        "shell",
		Description: "Runs a command line through the system shell.",
		Lifecycle:   &config.Lifecycle{OnRun: "OnRunShell"},
		Inputs: map[string]*config.InputDefinition{
			"command": {Name: "command", Description: "The command line to execute."},
			"dir":     {Name: "dir", Description: "Directory relative to the workspace.", Optional: true},
		},
	})
	r.RegisterRunner("OnRunShell", &registry.RegisteredRunner{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunShell,
	})
}
