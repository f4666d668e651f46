// Package envprobe provides the runner behind `step "env_probe"`: it
// snapshots the fully layered environment a step's processes would receive
// and exposes it as the step output, which makes env layering observable
// from workflow expressions.
package envprobe

import (
	"context"
	"strings"

	"github.com/vk/forgeci/internal/config"
	"github.com/vk/forgeci/internal/registry"
)

// Module implements registry.Module for this package.
type Module struct{}

// Output is what later steps see as steps.<name>.output.
type Output struct {
	All map[string]string `cty:"all"`
}

// OnRunEnvProbe snapshots the step's process environment.
func OnRunEnvProbe(ctx context.Context, exec *registry.StepContext, input any) (*Output, error) {
	all := make(map[string]string, len(exec.Env))
	for _, kv := range exec.Env {
		if k, v, ok := strings.Cut(kv, "="); ok {
			all[k] = v
		}
	}
	return &Output{All: all}, nil
}

// Register hooks the runner into the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterDefinition(&config.RunnerDefinition{
		Type:        "env_probe",
		Description: "Snapshots the layered step environment.",
		Lifecycle:   &config.Lifecycle{OnRun: "OnRunEnvProbe"},
		Outputs: map[string]*config.OutputDefinition{
			"all": {Name: "all", Description: "Every environment variable the step sees."},
		},
	})
	r.RegisterRunner("OnRunEnvProbe", &registry.RegisteredRunner{
		Fn: OnRunEnvProbe,
	})
}
