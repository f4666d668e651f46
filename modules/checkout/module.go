// Package checkout provides the runner behind `step "checkout"`: it places a
// git working tree, optionally including submodules, into the job workspace.
package checkout

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vk/forgeci/internal/config"
	"github.com/vk/forgeci/internal/ctxlog"
	"github.com/vk/forgeci/internal/proc"
	"github.com/vk/forgeci/internal/registry"
)

// Module implements registry.Module for this package.
type Module struct{}

// Input defines the arguments of the checkout runner.
type Input struct {
	Repository string `hcl:"repository"`
	Ref        string `hcl:"ref,optional"`
	Submodules bool   `hcl:"submodules,optional"`
	Depth      int    `hcl:"depth,optional"`
}

// Output is what later steps see as steps.<name>.output.
type Output struct {
	Path string `cty:"path"`
}

// OnRunCheckout clones the repository into the workspace, or fetches when a
// previous run already cloned it, then updates submodules when asked.
func OnRunCheckout(ctx context.Context, exec *registry.StepContext, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx)
	depth := input.Depth
	if depth <= 0 {
		depth = 1
	}

	if _, err := os.Stat(filepath.Join(exec.Workspace, ".git")); err == nil {
		logger.Debug("Workspace already holds a clone, fetching instead.", "repository", input.Repository)
		if err := proc.Run(ctx, exec, "git", "fetch", "--depth", strconv.Itoa(depth), "origin"); err != nil {
			return nil, fmt.Errorf("fetch of %s failed: %w", input.Repository, err)
		}
		if input.Ref != "" {
			if err := proc.Run(ctx, exec, "git", "checkout", input.Ref); err != nil {
				return nil, fmt.Errorf("checkout of ref %q failed: %w", input.Ref, err)
			}
		}
	} else {
		args := []string{"clone", "--depth", strconv.Itoa(depth)}
		if input.Ref != "" {
			args = append(args, "--branch", input.Ref)
		}
		args = append(args, input.Repository, ".")
		logger.Debug("Cloning repository.", "repository", input.Repository, "ref", input.Ref)
		if err := proc.Run(ctx, exec, "git", args...); err != nil {
			return nil, fmt.Errorf("clone of %s failed: %w", input.Repository, err)
		}
	}

	if input.Submodules {
		logger.Debug("Updating submodules recursively.")
		if err := proc.Run(ctx, exec, "git", "submodule", "update", "--init", "--recursive", "--depth", strconv.Itoa(depth)); err != nil {
			return nil, fmt.Errorf("submodule update failed: %w", err)
		}
	}

	return &Output{Path: exec.Workspace}, nil
}

// Register hooks the runner into the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterDefinition(&config.RunnerDefinition{
		Type:        "checkout",
		Description: "Checks out a git repository, optionally with submodules.",
		Lifecycle:   &config.Lifecycle{OnRun: "OnRunCheckout"},
		Inputs: map[string]*config.InputDefinition{
			"repository": {Name: "repository", Description: "Clone URL or local path."},
			"ref":        {Name: "ref", Description: "Branch or tag to check out.", Optional: true},
			"submodules": {Name: "submodules", Description: "Recursively update submodules.", Optional: true},
			"depth":      {Name: "depth", Description: "History depth, default 1.", Optional: true},
		},
		Outputs: map[string]*config.OutputDefinition{
			"path": {Name: "path", Description: "Absolute path of the working tree."},
		},
	})
	r.RegisterRunner("OnRunCheckout", &registry.RegisteredRunner{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunCheckout,
	})
}
