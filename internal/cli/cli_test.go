package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_PositionalPath(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse([]string{"ci.hcl"}, &out)
	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, "ci.hcl", cfg.WorkflowPath)
	assert.Equal(t, "push", cfg.EventKind)
	assert.Equal(t, "main", cfg.Branch)
	assert.Equal(t, 4, cfg.Workers)
}

func TestParse_PathFlagWinsOverPositional(t *testing.T) {
	var out bytes.Buffer
	cfg, _, err := Parse([]string{"-path", "a.hcl", "b.hcl"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "a.hcl", cfg.WorkflowPath)
}

func TestParse_NoPathPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse(nil, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParse_PullRequestNeedsTargetBranch(t *testing.T) {
	var out bytes.Buffer
	_, _, err := Parse([]string{"-event", "pull_request", "ci.hcl"}, &out)
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "target-branch")
}

func TestParse_PullRequestEvent(t *testing.T) {
	var out bytes.Buffer
	cfg, _, err := Parse([]string{
		"-event", "pull_request",
		"-branch", "feature/x",
		"-target-branch", "main",
		"ci.hcl",
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "pull_request", cfg.EventKind)
	assert.Equal(t, "feature/x", cfg.Branch)
	assert.Equal(t, "main", cfg.TargetBranch)
}

func TestParse_InvalidValues(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{"bad event", []string{"-event", "tag", "ci.hcl"}, "invalid event"},
		{"bad log format", []string{"-log-format", "xml", "ci.hcl"}, "invalid log-format"},
		{"bad log level", []string{"-log-level", "loud", "ci.hcl"}, "invalid log-level"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			_, _, err := Parse(tc.args, &out)
			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr))
			assert.Equal(t, 2, exitErr.Code)
			assert.True(t, strings.Contains(exitErr.Message, tc.want), exitErr.Message)
		})
	}
}

func TestParse_Help(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse([]string{"-h"}, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
}
