package actions

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/forgeci/internal/config"
	"github.com/vk/forgeci/internal/ctxlog"
	"github.com/vk/forgeci/internal/fsutil"
)

// Loader adapts the Importer to the config.Loader interface, discovering
// .yml and .yaml documents under the given paths.
type Loader struct {
	Importer *Importer
}

// NewLoader creates an Actions YAML loader that points checkout steps at
// repository.
func NewLoader(repository string) *Loader {
	return &Loader{Importer: &Importer{Repository: repository}}
}

// Load implements config.Loader.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	model := &config.Model{Runners: make(map[string]*config.RunnerDefinition)}

	var files []string
	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		for _, ext := range []string{".yml", ".yaml"} {
			found, err := fsutil.FindFilesByExtension(path, ext)
			if err != nil {
				return nil, fmt.Errorf("failed to scan %s for workflows: %w", path, err)
			}
			files = append(files, found...)
		}
	}
	logger.Debug("Discovered Actions documents.", "count", len(files))

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		wf, err := l.Importer.Import(ctx, data, file)
		if err != nil {
			return nil, err
		}
		model.Workflows = append(model.Workflows, wf)
	}

	if err := config.Validate(model); err != nil {
		return nil, err
	}
	return model, nil
}
