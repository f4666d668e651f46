package integration_tests

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/forgeci/internal/registry"
	"github.com/vk/forgeci/internal/report"
	"github.com/vk/forgeci/internal/testutil"
)

const pingManifest = `
	runner "ping" {
		lifecycle { on_run = "OnRunPing" }
	}
`

// countingModule counts handler invocations across a run.
type countingModule struct {
	calls atomic.Int64
}

func (m *countingModule) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunPing", &registry.RegisteredRunner{
		Fn: func(ctx context.Context, exec *registry.StepContext, input any) (any, error) {
			m.calls.Add(1)
			return nil, nil
		},
	})
}

const mainOnlyWorkflow = `
	workflow "ci" {
		on {
			push { branches = ["main"] }
			pull_request { branches = ["main"] }
		}

		job "build" {
			step "ping" "hit" {
				arguments {}
			}
		}
	}
`

// Test for: a push to a non-matching branch yields a successful run with
// zero jobs and no handler invocations.
func TestTrigger_NonMatchingPushIsNoOp(t *testing.T) {
	mod := &countingModule{}
	res := testutil.RunIntegrationTestWithEvent(t,
		map[string]string{
			"workflows/ci.hcl":          mainOnlyWorkflow,
			"modules/ping/manifest.hcl": pingManifest,
		},
		testutil.HarnessEvent{Kind: "push", Branch: "feature/shiny"},
		mod,
	)

	require.NoError(t, res.Err)
	assert.Equal(t, int64(0), mod.calls.Load())

	run := res.App.Store().List()[0]
	assert.Empty(t, run.Jobs)
	assert.Equal(t, report.ConclusionSuccess, run.Conclusion)
}

// Test for: pull_request filters match the TARGET branch, not the source.
func TestTrigger_PullRequestMatchesTargetBranch(t *testing.T) {
	mod := &countingModule{}
	res := testutil.RunIntegrationTestWithEvent(t,
		map[string]string{
			"workflows/ci.hcl":          mainOnlyWorkflow,
			"modules/ping/manifest.hcl": pingManifest,
		},
		testutil.HarnessEvent{Kind: "pull_request", Branch: "feature/shiny", TargetBranch: "main"},
		mod,
	)

	require.NoError(t, res.Err)
	assert.Equal(t, int64(1), mod.calls.Load())
}

// Test for: a pull_request whose source branch happens to match the filter
// still does not fire when its target differs.
func TestTrigger_PullRequestIgnoresSourceBranch(t *testing.T) {
	mod := &countingModule{}
	res := testutil.RunIntegrationTestWithEvent(t,
		map[string]string{
			"workflows/ci.hcl":          mainOnlyWorkflow,
			"modules/ping/manifest.hcl": pingManifest,
		},
		testutil.HarnessEvent{Kind: "pull_request", Branch: "main", TargetBranch: "develop"},
		mod,
	)

	require.NoError(t, res.Err)
	assert.Equal(t, int64(0), mod.calls.Load())
}

// Test for: glob branch filters, "*" within one segment and "**" across.
func TestTrigger_GlobBranchFilters(t *testing.T) {
	globWorkflow := `
		workflow "release" {
			on {
				push { branches = ["release/*"] }
			}

			job "build" {
				step "ping" "hit" {
					arguments {}
				}
			}
		}
	`

	testCases := []struct {
		name   string
		branch string
		fires  bool
	}{
		{"one segment matches", "release/1.2", true},
		{"nested segment does not", "release/1.2/hotfix", false},
		{"other branch does not", "main", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mod := &countingModule{}
			res := testutil.RunIntegrationTestWithEvent(t,
				map[string]string{
					"workflows/ci.hcl":          globWorkflow,
					"modules/ping/manifest.hcl": pingManifest,
				},
				testutil.HarnessEvent{Kind: "push", Branch: tc.branch},
				mod,
			)

			require.NoError(t, res.Err)
			want := int64(0)
			if tc.fires {
				want = 1
			}
			assert.Equal(t, want, mod.calls.Load())
		})
	}
}

// Test for: a workflow with no push trigger ignores push events entirely.
func TestTrigger_KindMustMatch(t *testing.T) {
	prOnlyWorkflow := `
		workflow "review" {
			on {
				pull_request { branches = ["main"] }
			}

			job "build" {
				step "ping" "hit" {
					arguments {}
				}
			}
		}
	`

	mod := &countingModule{}
	res := testutil.RunIntegrationTestWithEvent(t,
		map[string]string{
			"workflows/ci.hcl":          prOnlyWorkflow,
			"modules/ping/manifest.hcl": pingManifest,
		},
		testutil.HarnessEvent{Kind: "push", Branch: "main"},
		mod,
	)

	require.NoError(t, res.Err)
	assert.Equal(t, int64(0), mod.calls.Load())
}
