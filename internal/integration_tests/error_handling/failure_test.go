package integration_tests

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/forgeci/internal/registry"
	"github.com/vk/forgeci/internal/report"
	"github.com/vk/forgeci/internal/testutil"
)

const mockManifests = `
	runner "boom" {
		lifecycle { on_run = "OnRunBoom" }
	}

	runner "track" {
		lifecycle { on_run = "OnRunTrack" }
	}
`

// exitErr mimics the error a spawned process produces on a non-zero exit.
type exitErr struct{ code int }

func (e *exitErr) Error() string { return "command failed" }
func (e *exitErr) ExitCode() int { return e.code }

// failingModule registers a handler that always fails with exit code 42 and
// a tracking handler that records which jobs actually ran.
type failingModule struct {
	mu   sync.Mutex
	runs []string
}

func (m *failingModule) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunBoom", &registry.RegisteredRunner{
		Fn: func(ctx context.Context, exec *registry.StepContext, input any) (any, error) {
			return nil, &exitErr{code: 42}
		},
	})
	r.RegisterRunner("OnRunTrack", &registry.RegisteredRunner{
		Fn: func(ctx context.Context, exec *registry.StepContext, input any) (any, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.runs = append(m.runs, exec.Workspace)
			return nil, nil
		},
	})
}

// Test for: a failing step skips the rest of its instance and fails the run,
// preserving the handler's exit code in the report.
func TestErrorHandling_FailingStepSkipsRest(t *testing.T) {
	workflowHCL := `
		workflow "ci" {
			on {
				push { branches = ["main"] }
			}

			job "build" {
				step "boom" "explode" {
					arguments {}
				}
				step "track" "after" {
					arguments {}
				}
			}
		}
	`

	mod := &failingModule{}
	res := testutil.RunIntegrationTest(t, map[string]string{
		"workflows/ci.hcl":          workflowHCL,
		"modules/mock/manifest.hcl": mockManifests,
	}, mod)

	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "concluded with failure")
	assert.Empty(t, mod.runs, "the step after the failure must not run")

	runs := res.App.Store().List()
	require.Len(t, runs, 1)
	run := runs[0]
	assert.True(t, run.Failed())

	steps := run.Jobs[0].Instances[0].Steps
	require.Len(t, steps, 2)
	assert.Equal(t, report.ConclusionFailure, steps[0].Conclusion)
	require.NotNil(t, steps[0].ExitCode)
	assert.Equal(t, 42, *steps[0].ExitCode)
	assert.Equal(t, report.ConclusionSkipped, steps[1].Conclusion)
}

// Test for: continue_on_error keeps the instance going and the run green.
func TestErrorHandling_ContinueOnError(t *testing.T) {
	workflowHCL := `
		workflow "ci" {
			on {
				push { branches = ["main"] }
			}

			job "build" {
				step "boom" "explode" {
					arguments {}
					continue_on_error = true
				}
				step "track" "after" {
					arguments {}
				}
			}
		}
	`

	mod := &failingModule{}
	res := testutil.RunIntegrationTest(t, map[string]string{
		"workflows/ci.hcl":          workflowHCL,
		"modules/mock/manifest.hcl": mockManifests,
	}, mod)

	require.NoError(t, res.Err)
	require.Len(t, mod.runs, 1, "the step after a tolerated failure must run")

	run := res.App.Store().List()[0]
	assert.Equal(t, report.ConclusionSuccess, run.Conclusion)
	steps := run.Jobs[0].Instances[0].Steps
	assert.Equal(t, report.ConclusionFailure, steps[0].Conclusion)
	assert.Equal(t, report.ConclusionSuccess, steps[1].Conclusion)
}

// Test for: a failed job skips its transitive dependents while unrelated
// jobs still run to completion.
func TestErrorHandling_FailedJobSkipsDependents(t *testing.T) {
	workflowHCL := `
		workflow "ci" {
			on {
				push { branches = ["main"] }
			}

			job "broken" {
				step "boom" "explode" {
					arguments {}
				}
			}

			job "dependent" {
				needs = ["broken"]
				step "track" "never" {
					arguments {}
				}
			}

			job "grandchild" {
				needs = ["dependent"]
				step "track" "never_either" {
					arguments {}
				}
			}

			job "independent" {
				step "track" "still_runs" {
					arguments {}
				}
			}
		}
	`

	mod := &failingModule{}
	res := testutil.RunIntegrationTest(t, map[string]string{
		"workflows/ci.hcl":          workflowHCL,
		"modules/mock/manifest.hcl": mockManifests,
	}, mod)

	require.Error(t, res.Err)
	require.Len(t, mod.runs, 1, "only the independent job's step should run")

	run := res.App.Store().List()[0]
	byName := map[string]*report.JobResult{}
	for _, jr := range run.Jobs {
		byName[jr.Name] = jr
	}
	assert.Equal(t, report.ConclusionFailure, byName["broken"].Conclusion)
	assert.Equal(t, report.ConclusionSkipped, byName["dependent"].Conclusion)
	assert.Equal(t, report.ConclusionSkipped, byName["grandchild"].Conclusion)
	assert.Equal(t, report.ConclusionSuccess, byName["independent"].Conclusion)
	assert.Equal(t, report.ConclusionFailure, run.Conclusion)
}

// Test for: a workflow naming an unknown runner type fails at startup, not
// mid-run.
func TestErrorHandling_UnknownRunnerFailsStartup(t *testing.T) {
	workflowHCL := `
		workflow "ci" {
			on {
				push { branches = ["main"] }
			}

			job "build" {
				step "ghost" "spooky" {
					arguments {}
				}
			}
		}
	`

	res := testutil.RunIntegrationTest(t, map[string]string{
		"workflows/ci.hcl": workflowHCL,
	}, &testutil.NoOpModule{})

	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "application startup panicked")
	assert.Contains(t, res.Err.Error(), "unknown runner type")
}
