package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vk/forgeci/internal/config"
	"github.com/vk/forgeci/internal/ctxlog"
	"github.com/vk/forgeci/internal/matrix"
	"github.com/vk/forgeci/internal/report"
)

// defaultMatrixParallel bounds concurrent matrix instances when the job does
// not set max_parallel.
const defaultMatrixParallel = 4

// runJob expands the job's matrix (if any) into instances and runs them with
// bounded parallelism. Matrix execution is fail-fast: the first failing
// instance cancels its in-flight siblings, matching the behavior users
// expect from hosted CI matrices. A job without a matrix is a single
// instance with no features.
func (e *Executor) runJob(ctx context.Context, wf *config.Workflow, n *jobNode) {
	logger := ctxlog.FromContext(ctx).With("job", n.job.Name)
	n.result.Status = report.StatusRunning

	combos := []matrix.Combination{{}}
	parallel := 1
	if n.job.Matrix != nil {
		combos = matrix.Expand(n.job.Matrix.Features, n.job.Matrix.Always, n.job.Matrix.Skip)
		parallel = n.job.Matrix.MaxParallel
		if parallel <= 0 {
			parallel = defaultMatrixParallel
		}
		logger.Info("Expanded feature matrix.", "instances", len(combos))
	}

	for _, combo := range combos {
		n.result.Instances = append(n.result.Instances, &report.InstanceResult{
			Name:     instanceName(n.job.Name, n.job.Matrix != nil, combo),
			Features: combo.Features,
			Status:   report.StatusPending,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, combo := range combos {
		inst := n.result.Instances[i]
		combo := combo
		g.Go(func() error {
			e.runInstance(gctx, wf, n.job, inst, combo)
			if inst.Conclusion == report.ConclusionFailure {
				return fmt.Errorf("instance %s failed", inst.Name)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		n.failed = true
	}

	n.result.Conclude()
	if n.result.Conclusion == report.ConclusionFailure {
		n.failed = true
	}
	logger.Info("Job finished.", "conclusion", n.result.Conclusion)
}

// instanceName renders "job" for matrix-less jobs and "job[f1,f2]" for
// matrix instances, the empty combination being "job[]".
func instanceName(job string, hasMatrix bool, combo matrix.Combination) string {
	if !hasMatrix {
		return job
	}
	return fmt.Sprintf("%s[%s]", job, combo)
}

// workspaceDir builds and creates the directory an instance's steps share.
func (e *Executor) workspaceDir(wf *config.Workflow, inst *report.InstanceResult) (string, error) {
	dir := filepath.Join(e.workspace, sanitizePath(wf.Name), sanitizePath(inst.Name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create workspace %s: %w", dir, err)
	}
	return dir, nil
}

// sanitizePath replaces characters that would escape or upset a path
// component.
func sanitizePath(s string) string {
	r := strings.NewReplacer("/", "_", string(filepath.Separator), "_", " ", "_", ",", "-", "[", "", "]", "")
	out := r.Replace(s)
	if out == "" {
		out = "default"
	}
	return out
}
