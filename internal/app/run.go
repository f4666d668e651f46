package app

import (
	"context"
	"fmt"

	"github.com/vk/forgeci/internal/api"
	"github.com/vk/forgeci/internal/config"
	"github.com/vk/forgeci/internal/ctxlog"
	"github.com/vk/forgeci/internal/event"
	"github.com/vk/forgeci/internal/executor"
)

// Run executes every loaded workflow against the configured event and
// renders a summary per run. It returns an error when any run concludes
// with failure, so callers can map the outcome to an exit code.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	kind, err := event.ParseKind(a.cfg.EventKind)
	if err != nil {
		return err
	}
	ev := &event.Event{
		Kind:   kind,
		Branch: a.cfg.Branch,
		Target: a.cfg.TargetBranch,
	}

	var server *api.Server
	if a.cfg.StatusPort > 0 {
		server = api.NewServer(a.store, a.cfg.StatusPort)
		server.Start(ctx)
		defer func() {
			if err := server.Shutdown(context.Background()); err != nil {
				a.logger.Warn("Status server shutdown failed.", "error", err)
			}
		}()
	}

	workflows := a.model.Workflows
	if a.cfg.Workflow != "" {
		wf := a.model.Workflow(a.cfg.Workflow)
		if wf == nil {
			return fmt.Errorf("workflow %q not found", a.cfg.Workflow)
		}
		workflows = []*config.Workflow{wf}
	}
	if len(workflows) == 0 {
		a.logger.Warn("No workflows loaded, execution not required.")
		return nil
	}

	exec := executor.New(a.registry, a.cfg.Workspace, a.cfg.Workers)

	var failed []string
	for _, wf := range workflows {
		run, err := exec.Run(ctx, wf, ev)
		if err != nil {
			return fmt.Errorf("execution of workflow %q failed: %w", wf.Name, err)
		}
		a.store.Add(run)
		run.Render(a.outW)
		if run.Failed() {
			failed = append(failed, wf.Name)
		}
	}

	a.logger.Debug("App.Run method finished.")
	if len(failed) > 0 {
		return fmt.Errorf("workflow run concluded with failure: %v", failed)
	}
	return nil
}
