package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vk/forgeci/internal/config"
	"github.com/vk/forgeci/internal/ctxlog"
	"github.com/vk/forgeci/internal/event"
	"github.com/vk/forgeci/internal/registry"
	"github.com/vk/forgeci/internal/report"
)

// Executor orchestrates one engine invocation: trigger evaluation, matrix
// expansion, job scheduling over a worker pool, and sequential step
// execution inside each job instance.
type Executor struct {
	registry  *registry.Registry
	workers   int
	workspace string
	now       func() time.Time
}

// Option mutates an Executor during construction.
type Option func(*Executor)

// WithClock overrides the executor's time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// New creates an Executor. workspace is the base directory job instances get
// their working directories under; workers bounds how many jobs run at once.
func New(reg *registry.Registry, workspace string, workers int, opts ...Option) *Executor {
	if workers <= 0 {
		workers = 1
	}
	e := &Executor{
		registry:  reg,
		workers:   workers,
		workspace: workspace,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run evaluates the event against the workflow's triggers and, if they
// match, executes every job. The returned report is complete in either case;
// a non-matching workflow yields a successful run with zero jobs. The error
// is non-nil only for engine faults, not for step failures; those are
// expressed through the report's conclusions.
func (e *Executor) Run(ctx context.Context, wf *config.Workflow, ev *event.Event) (*report.Run, error) {
	logger := ctxlog.FromContext(ctx).With("workflow", wf.Name)
	started := e.now()

	run := &report.Run{
		ID:        fmt.Sprintf("%s-%d", wf.Name, started.UnixNano()),
		Workflow:  wf.Name,
		EventKind: string(ev.Kind),
		Branch:    ev.Branch,
		Status:    report.StatusRunning,
		StartedAt: started,
	}

	if !event.Match(wf, ev) {
		logger.Info("Workflow does not match event, nothing to run.",
			"event", ev.Kind, "branch", ev.Branch)
		run.Conclude(e.now())
		return run, nil
	}

	nodes := buildJobNodes(wf, run)
	if len(nodes) == 0 {
		logger.Warn("Workflow matched but declares no jobs.")
		run.Conclude(e.now())
		return run, nil
	}

	logger.Info("Starting run.", "run_id", run.ID, "jobs", len(nodes), "workers", e.workers)
	e.schedule(ctx, wf, nodes)

	run.Conclude(e.now())
	logger.Info("Run finished.", "run_id", run.ID, "conclusion", run.Conclusion)
	return run, nil
}

// jobState tracks a node through the scheduler. Transitions are guarded by
// the scheduler mutex.
type jobState int

const (
	statePending jobState = iota
	stateQueued
	stateDone
	stateSkipped
)

// jobNode is one job of the workflow plus its scheduling bookkeeping.
type jobNode struct {
	job        *config.Job
	result     *report.JobResult
	state      jobState
	pendingDep int
	dependents []*jobNode
	failed     bool
}

// buildJobNodes creates the scheduling nodes and wires the needs edges. The
// model was validated at load time, so unknown needs cannot occur here.
func buildJobNodes(wf *config.Workflow, run *report.Run) map[string]*jobNode {
	nodes := make(map[string]*jobNode, len(wf.Jobs))
	for _, job := range wf.Jobs {
		result := &report.JobResult{Name: job.Name, Status: report.StatusPending}
		run.Jobs = append(run.Jobs, result)
		nodes[job.Name] = &jobNode{
			job:        job,
			result:     result,
			pendingDep: len(job.Needs),
		}
	}
	for _, n := range nodes {
		for _, need := range n.job.Needs {
			nodes[need].dependents = append(nodes[need].dependents, n)
		}
	}
	return nodes
}

// schedule runs the job DAG over a fixed worker pool. A failed job marks its
// transitive dependents skipped; unrelated jobs keep running. The run
// context is not cancelled on failure, only on external cancellation.
func (e *Executor) schedule(ctx context.Context, wf *config.Workflow, nodes map[string]*jobNode) {
	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		ready = make(chan *jobNode, len(nodes))
	)
	wg.Add(len(nodes))

	// skipLocked marks a node and its transitive dependents skipped. Caller
	// holds mu.
	var skipLocked func(n *jobNode)
	skipLocked = func(n *jobNode) {
		if n.state == stateDone || n.state == stateSkipped {
			return
		}
		n.state = stateSkipped
		n.result.Status = report.StatusCompleted
		n.result.Conclusion = report.ConclusionSkipped
		wg.Done()
		for _, d := range n.dependents {
			skipLocked(d)
		}
	}

	// finish records a job's outcome and schedules or skips its dependents.
	finish := func(n *jobNode) {
		mu.Lock()
		defer mu.Unlock()
		n.state = stateDone
		wg.Done()
		for _, d := range n.dependents {
			if n.failed {
				skipLocked(d)
				continue
			}
			if d.state != statePending {
				continue
			}
			d.pendingDep--
			if d.pendingDep == 0 {
				d.state = stateQueued
				ready <- d
			}
		}
	}

	for i := 0; i < e.workers; i++ {
		go func(workerID int) {
			logger := ctxlog.FromContext(ctx).With("workerID", workerID)
			for n := range ready {
				logger.Debug("Worker picked up job.", "job", n.job.Name)
				e.runJob(ctx, wf, n)
				finish(n)
			}
		}(i)
	}

	mu.Lock()
	for _, n := range nodes {
		if n.pendingDep == 0 {
			n.state = stateQueued
			ready <- n
		}
	}
	mu.Unlock()

	wg.Wait()
	close(ready)
}
