// Package hcl implements the native HCL workflow loader: discovery, parsing,
// translation into the config model, and structural validation.
package hcl

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/forgeci/internal/config"
	"github.com/vk/forgeci/internal/ctxlog"
	"github.com/vk/forgeci/internal/fsutil"
	"github.com/vk/forgeci/internal/schema"
)

// Loader is the HCL implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new HCL workflow loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load discovers every .hcl file under the given paths, decodes workflow and
// runner blocks from each, merges them into one model, and validates the
// result. Missing paths are skipped silently so optional directories (e.g. a
// modules path that does not exist) are not an error.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := &config.Model{
		Runners: make(map[string]*config.RunnerDefinition),
	}

	var files []string
	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			logger.Debug("Skipping missing definition path.", "path", path)
			continue
		}
		found, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s for definitions: %w", path, err)
		}
		files = append(files, found...)
	}
	logger.Debug("Discovered definition files.", "count", len(files))

	parser := hclparse.NewParser()
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %s: %w", file, diags)
		}

		var root schema.File
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode %s: %w", file, diags)
		}

		for _, r := range root.Runners {
			def := translateRunner(r)
			if _, dup := model.Runners[def.Type]; dup {
				return nil, fmt.Errorf("%s: runner %q defined more than once", file, def.Type)
			}
			model.Runners[def.Type] = def
		}
		for _, w := range root.Workflows {
			wf, err := translateWorkflow(w)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			model.Workflows = append(model.Workflows, wf)
		}
		logger.Debug("Loaded definition file.", "file", file)
	}

	if err := config.Validate(model); err != nil {
		return nil, err
	}

	logger.Debug("HCL loading complete.",
		"runners", len(model.Runners), "workflows", len(model.Workflows))
	return model, nil
}
