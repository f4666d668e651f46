// Package proc spawns step subprocesses: working directory and environment
// come from the step context, combined output is streamed line-wise into the
// step's output sink, and cancellation kills the spawned process. Children
// the process itself forks are not chased; runaway grandchildren are the
// step command's responsibility.
package proc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/vk/forgeci/internal/registry"
)

// Run executes name with args inside the step's workspace and environment,
// streaming combined output to exec.Output. The returned error wraps the
// *exec.ExitError on non-zero exit, so callers (and the report) can recover
// the exit code via an ExitCode() int errors.As target.
func Run(ctx context.Context, stepCtx *registry.StepContext, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = stepCtx.Workspace
	cmd.Env = stepCtx.Env

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open stdout pipe for %s: %w", name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to open stderr pipe for %s: %w", name, err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go stream(&wg, stdout, stepCtx.Output)
	go stream(&wg, stderr, stepCtx.Output)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s exited abnormally: %w", name, err)
	}
	return nil
}

// RunShell executes a command line through the system shell.
func RunShell(ctx context.Context, stepCtx *registry.StepContext, command string) error {
	return Run(ctx, stepCtx, "/bin/sh", "-c", command)
}

// stream copies r into w line by line so each line becomes one log record.
func stream(wg *sync.WaitGroup, r io.Reader, w io.Writer) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fmt.Fprintln(w, scanner.Text())
	}
}
