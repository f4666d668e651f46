package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/forgeci/internal/actions"
	"github.com/vk/forgeci/internal/config"
	"github.com/vk/forgeci/internal/ctxlog"
	"github.com/vk/forgeci/internal/fsutil"
	"github.com/vk/forgeci/internal/hcl"
	"github.com/vk/forgeci/internal/registry"
	"github.com/vk/forgeci/internal/runstore"
)

// App encapsulates the engine's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	cfg      *Config
	registry *registry.Registry
	model    *config.Model
	store    *runstore.Store
}

// NewApp is the constructor for the engine. It returns a fully initialized
// App instance with its own isolated logger, registry and run store. A nil
// loader selects one from the workflow path's file extensions; passing no
// modules registers the built-in set. Startup configuration errors panic:
// the CLI entrypoint recovers them into an exit code.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) *App {
	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	if err != nil {
		panic(fmt.Errorf("failed to configure logging: %w", err))
	}
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if loader == nil {
		loader = selectLoader(cfg)
	}

	paths := []string{cfg.WorkflowPath}
	if cfg.ModulesPath != "" {
		paths = append(paths, cfg.ModulesPath)
	}

	model, err := loader.Load(ctx, paths...)
	if err != nil {
		// A failure to load config is a fatal startup error.
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded into unified model.",
		"workflows", len(model.Workflows))

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	reg.MergeDefinitionsFromModel(model)

	if err := reg.Validate(ctx); err != nil {
		// Mismatch between manifests and handlers is a programmer error.
		panic(err)
	}
	if err := reg.ValidateModelSteps(model); err != nil {
		panic(fmt.Errorf("workflow validation failed: %w", err))
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		cfg:      cfg,
		registry: reg,
		model:    model,
		store:    runstore.New(runstore.DefaultCapacity),
	}
}

// selectLoader inspects the workflow path and picks the native HCL loader or
// the GitHub Actions importer based on which definition files it finds.
func selectLoader(cfg *Config) config.Loader {
	for _, ext := range []string{".yml", ".yaml"} {
		files, err := fsutil.FindFilesByExtension(cfg.WorkflowPath, ext)
		if err == nil && len(files) > 0 {
			return actions.NewLoader(cfg.Repository)
		}
	}
	return hcl.NewLoader()
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded configuration model. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}

// Store returns the application's run store.
func (a *App) Store() *runstore.Store {
	return a.store
}
