package integration_tests

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/forgeci/internal/registry"
	"github.com/vk/forgeci/internal/report"
	"github.com/vk/forgeci/internal/testutil"
)

const captureManifest = `
	runner "capture" {
		lifecycle { on_run = "OnRunCapture" }
	}
`

// captureModule records the FEATURES env var of every instance that ran.
type captureModule struct {
	mu       sync.Mutex
	features []string
}

func (m *captureModule) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunCapture", &registry.RegisteredRunner{
		Fn: func(ctx context.Context, exec *registry.StepContext, input any) (any, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			for _, kv := range exec.Env {
				if v, ok := strings.CutPrefix(kv, "FEATURES="); ok {
					m.features = append(m.features, v)
				}
			}
			return nil, nil
		},
	})
}

// Test for: a feature matrix expands into the full powerset, empty set
// first, with always-on features appended to every instance.
func TestMatrix_ExpandsFeaturePowerset(t *testing.T) {
	workflowHCL := `
		workflow "ci" {
			on {
				push { branches = ["main"] }
			}

			job "build" {
				matrix {
					features     = ["serde", "alloc"]
					always       = ["std"]
					max_parallel = 1
				}

				step "capture" "peek" {
					arguments {}
				}
			}
		}
	`

	mod := &captureModule{}
	res := testutil.RunIntegrationTest(t, map[string]string{
		"workflows/ci.hcl":             workflowHCL,
		"modules/capture/manifest.hcl": captureManifest,
	}, mod)

	require.NoError(t, res.Err)
	assert.Equal(t, []string{"std", "serde,std", "alloc,std", "serde,alloc,std"}, mod.features)

	run := res.App.Store().List()[0]
	require.Len(t, run.Jobs, 1)
	instances := run.Jobs[0].Instances
	require.Len(t, instances, 4)
	assert.Equal(t, "build[std]", instances[0].Name)
	assert.Equal(t, "build[serde,std]", instances[1].Name)
	assert.Equal(t, "build[alloc,std]", instances[2].Name)
	assert.Equal(t, "build[serde,alloc,std]", instances[3].Name)
	for _, inst := range instances {
		assert.Equal(t, report.ConclusionSuccess, inst.Conclusion)
	}
}

// Test for: skip entries drop matching combinations, compared as unordered
// sets against the selected optional features.
func TestMatrix_SkipDropsCombination(t *testing.T) {
	workflowHCL := `
		workflow "ci" {
			on {
				push { branches = ["main"] }
			}

			job "build" {
				matrix {
					features     = ["serde", "alloc"]
					skip         = [["alloc", "serde"]]
					max_parallel = 1
				}

				step "capture" "peek" {
					arguments {}
				}
			}
		}
	`

	mod := &captureModule{}
	res := testutil.RunIntegrationTest(t, map[string]string{
		"workflows/ci.hcl":             workflowHCL,
		"modules/capture/manifest.hcl": captureManifest,
	}, mod)

	require.NoError(t, res.Err)
	assert.Equal(t, []string{"", "serde", "alloc"}, mod.features)
}

// Test for: one failing instance fails the whole job, and the report keeps
// every instance's individual conclusion.
func TestMatrix_FailingInstanceFailsJob(t *testing.T) {
	workflowHCL := `
		workflow "ci" {
			on {
				push { branches = ["main"] }
			}

			job "build" {
				matrix {
					features     = ["bad"]
					max_parallel = 1
				}

				step "picky" "check" {
					arguments {}
				}
			}
		}
	`
	manifest := `
		runner "picky" {
			lifecycle { on_run = "OnRunPicky" }
		}
	`

	// Fails only when the instance selected the "bad" feature.
	mod := &testutil.SimpleModule{
		RunnerName: "OnRunPicky",
		Runner: &registry.RegisteredRunner{
			Fn: func(ctx context.Context, exec *registry.StepContext, input any) (any, error) {
				for _, kv := range exec.Env {
					if kv == "FEATURES=bad" {
						return nil, assert.AnError
					}
				}
				return nil, nil
			},
		},
	}

	res := testutil.RunIntegrationTest(t, map[string]string{
		"workflows/ci.hcl":           workflowHCL,
		"modules/picky/manifest.hcl": manifest,
	}, mod)

	require.Error(t, res.Err)
	run := res.App.Store().List()[0]
	job := run.Jobs[0]
	assert.Equal(t, report.ConclusionFailure, job.Conclusion)
	require.Len(t, job.Instances, 2)
	assert.Equal(t, report.ConclusionSuccess, job.Instances[0].Conclusion)
	assert.Equal(t, report.ConclusionFailure, job.Instances[1].Conclusion)
}
