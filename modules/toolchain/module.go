// Package toolchain provides the runner behind `step "toolchain"`: it
// installs a named toolchain channel through the platform's installer and
// then any helper tools, skipping the whole step when a probe command
// reports the toolchain is already present.
package toolchain

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/forgeci/internal/config"
	"github.com/vk/forgeci/internal/ctxlog"
	"github.com/vk/forgeci/internal/proc"
	"github.com/vk/forgeci/internal/registry"
)

// Module implements registry.Module for this package.
type Module struct{}

// Input defines the arguments of the toolchain runner.
type Input struct {
	// Installer is the toolchain manager binary, e.g. "rustup".
	Installer string `hcl:"installer,optional"`
	// Channel names the toolchain to install, e.g. "nightly".
	Channel string `hcl:"channel"`
	// Tools are extra command lines run after the install, one per helper
	// tool, e.g. "cargo install cargo-all-features".
	Tools []string `hcl:"tools,optional"`
	// Probe is a command line whose zero exit means the toolchain is
	// already installed and the install can be skipped.
	Probe string `hcl:"probe,optional"`
}

// Output is what later steps see as steps.<name>.output.
type Output struct {
	Channel   string `cty:"channel"`
	Installed bool   `cty:"installed"`
}

// OnRunToolchain ensures the toolchain and helper tools are present.
func OnRunToolchain(ctx context.Context, exec *registry.StepContext, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx)
	installer := input.Installer
	if installer == "" {
		installer = "rustup"
	}

	installed := false
	if input.Probe != "" && proc.RunShell(ctx, exec, input.Probe) == nil {
		logger.Info("Toolchain already present, skipping install.", "channel", input.Channel)
	} else {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Info("Installing toolchain.", "installer", installer, "channel", input.Channel)
		if err := proc.Run(ctx, exec, installer, "toolchain", "install", input.Channel); err != nil {
			return nil, fmt.Errorf("install of %s %s failed: %w", installer, input.Channel, err)
		}
		installed = true
	}

	for _, tool := range input.Tools {
		logger.Info("Installing helper tool.", "command", tool)
		if err := proc.RunShell(ctx, exec, tool); err != nil {
			return nil, fmt.Errorf("helper tool %q failed: %w", firstWord(tool), err)
		}
	}

	return &Output{Channel: input.Channel, Installed: installed}, nil
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i > 0 {
		return s[:i]
	}
	return s
}

// Register hooks the runner into the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterDefinition(&config.RunnerDefinition{
		Type:        "toolchain",
		Description: "Installs a toolchain channel and helper tools.",
		Lifecycle:   &config.Lifecycle{OnRun: "OnRunToolchain"},
		Inputs: map[string]*config.InputDefinition{
			"installer": {Name: "installer", Description: "Toolchain manager binary, default rustup.", Optional: true},
			"channel":   {Name: "channel", Description: "Toolchain channel to install."},
			"tools":     {Name: "tools", Description: "Helper tool install command lines.", Optional: true},
			"probe":     {Name: "probe", Description: "Command whose zero exit skips the install.", Optional: true},
		},
		Outputs: map[string]*config.OutputDefinition{
			"channel":   {Name: "channel", Description: "The channel that was ensured."},
			"installed": {Name: "installed", Description: "Whether an install actually ran."},
		},
	})
	r.RegisterRunner("OnRunToolchain", &registry.RegisteredRunner{
		NewInput: func() any { return new(Input) },
		Fn:       OnRunToolchain,
	})
}
