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

const trackManifest = `
	runner "track" {
		lifecycle { on_run = "OnRunTrack" }
	}
`

// trackModule records the order step invocations happen in.
type trackModule struct {
	mu    sync.Mutex
	calls []string
}

func (m *trackModule) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunTrack", &registry.RegisteredRunner{
		Fn: func(ctx context.Context, exec *registry.StepContext, input any) (any, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.calls = append(m.calls, currentStep(exec))
			return nil, nil
		},
	})
}

// currentStep reads the STEP env var the fixtures set per step.
func currentStep(exec *registry.StepContext) string {
	for _, kv := range exec.Env {
		if len(kv) > 5 && kv[:5] == "STEP=" {
			return kv[5:]
		}
	}
	return "?"
}

// Test for: steps inside a job run strictly in declaration order.
func TestCoreExecution_StepsRunSequentially(t *testing.T) {
	workflowHCL := `
		workflow "ci" {
			on {
				push { branches = ["main"] }
			}

			job "build" {
				step "track" "one" {
					arguments {}
					env = { STEP = "one" }
				}
				step "track" "two" {
					arguments {}
					env = { STEP = "two" }
				}
				step "track" "three" {
					arguments {}
					env = { STEP = "three" }
				}
			}
		}
	`

	mod := &trackModule{}
	res := testutil.RunIntegrationTest(t, map[string]string{
		"workflows/ci.hcl":           workflowHCL,
		"modules/track/manifest.hcl": trackManifest,
	}, mod)

	require.NoError(t, res.Err)
	assert.Equal(t, []string{"one", "two", "three"}, mod.calls)

	runs := res.App.Store().List()
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, report.ConclusionSuccess, run.Conclusion)
	require.Len(t, run.Jobs, 1)
	require.Len(t, run.Jobs[0].Instances, 1)
	for _, sr := range run.Jobs[0].Instances[0].Steps {
		assert.Equal(t, report.ConclusionSuccess, sr.Conclusion)
	}
}

// Test for: a workflow-level env var reaches every spawned step.
func TestCoreExecution_WorkflowEnvReachesSteps(t *testing.T) {
	workflowHCL := `
		workflow "ci" {
			on {
				push { branches = ["main"] }
			}

			env = {
				CARGO_TERM_COLOR = "always"
			}

			job "build" {
				step "track" "probe" {
					arguments {}
					env = { STEP = "probe" }
				}
			}
		}
	`

	var captured []string
	mod := &testutil.SimpleModule{
		RunnerName: "OnRunTrack",
		Runner: &registry.RegisteredRunner{
			Fn: func(ctx context.Context, exec *registry.StepContext, input any) (any, error) {
				captured = append([]string(nil), exec.Env...)
				return nil, nil
			},
		},
	}

	res := testutil.RunIntegrationTest(t, map[string]string{
		"workflows/ci.hcl":           workflowHCL,
		"modules/track/manifest.hcl": trackManifest,
	}, mod)

	require.NoError(t, res.Err)
	assert.Contains(t, captured, "CI=true")
	assert.Contains(t, captured, "CARGO_TERM_COLOR=always")
	assert.Contains(t, captured, "STEP=probe")
}
