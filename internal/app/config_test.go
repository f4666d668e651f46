package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_AppliesDefaults(t *testing.T) {
	cfg, err := NewConfig(Config{WorkflowPath: "ci.hcl"})
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "push", cfg.EventKind)
	assert.Equal(t, "main", cfg.Branch)
	assert.Equal(t, ".forgeci", cfg.Workspace)
	assert.Equal(t, ".", cfg.Repository)
}

func TestNewConfig_RequiresWorkflowPath(t *testing.T) {
	_, err := NewConfig(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WorkflowPath")
}
