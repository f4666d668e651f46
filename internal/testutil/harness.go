package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/forgeci/internal/app"
	"github.com/vk/forgeci/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
}

// HarnessEvent describes the repository event a harness run presents to the
// loaded workflows. The zero value means a push to main.
type HarnessEvent struct {
	Kind         string
	Branch       string
	TargetBranch string
}

// RunIntegrationTest provides a standardized harness for running integration
// tests: it writes the given definition files into a temp directory, builds
// an App around them with the provided modules, runs it against a push to
// main, and captures logs and the resulting error.
func RunIntegrationTest(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithEvent(t, files, HarnessEvent{}, modules...)
}

// RunIntegrationTestWithEvent is RunIntegrationTest with a caller-chosen
// event.
func RunIntegrationTestWithEvent(t *testing.T, files map[string]string, ev HarnessEvent, modules ...registry.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()

	workflowDir := filepath.Join(tmpDir, "workflows")
	workspaceDir := filepath.Join(tmpDir, "workspace")
	require.NoError(t, os.Mkdir(workflowDir, 0755))
	require.NoError(t, os.Mkdir(workspaceDir, 0755))

	// The test provides relative paths (e.g. "workflows/ci.hcl" or
	// "modules/x/manifest.hcl"), which creates the subdirectory structure
	// within the temp root.
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}

	if ev.Kind == "" {
		ev.Kind = "push"
	}
	if ev.Branch == "" {
		ev.Branch = "main"
	}

	appConfig, err := app.NewConfig(app.Config{
		WorkflowPath: workflowDir,
		ModulesPath:  modulesPathIfPresent(tmpDir),
		EventKind:    ev.Kind,
		Branch:       ev.Branch,
		TargetBranch: ev.TargetBranch,
		Workspace:    workspaceDir,
		LogLevel:     "debug",
		LogFormat:    "text",
		Workers:      4,
	})
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				if os.Getenv("FORGECI_TEST_LOGS") == "true" {
					t.Logf("--- HARNESS RECOVERED PANIC ---\n%q", fmt.Sprintf("%v", r))
				}
				panicErr = r
			}
		}()
		testApp = app.NewApp(logBuffer, appConfig, nil, modules...)
	}()

	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
			App:       nil,
		}
	}

	runErr := testApp.Run(context.Background())

	if os.Getenv("FORGECI_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
	}
}

// modulesPathIfPresent returns tmpDir/modules when the test wrote manifest
// files there, and "" otherwise so the loader does not stat a missing path.
func modulesPathIfPresent(tmpDir string) string {
	dir := filepath.Join(tmpDir, "modules")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return ""
}
