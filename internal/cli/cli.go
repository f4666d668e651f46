package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/forgeci/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("forgeci", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
ForgeCI - a workflow engine for repository events.

Usage:
  forgeci [options] [WORKFLOW_PATH]

Arguments:
  WORKFLOW_PATH
    Path to a workflow file or a directory of them. Native .hcl
    definitions and GitHub Actions .yml/.yaml documents are accepted.

Options:
`)
		flagSet.PrintDefaults()
	}

	pathFlag := flagSet.String("path", "", "Path to the workflow file or directory.")
	pFlag := flagSet.String("p", "", "Path to the workflow file or directory (shorthand).")
	workflowFlag := flagSet.String("workflow", "", "Run only the named workflow.")
	eventFlag := flagSet.String("event", "push", "Event kind to present to workflows. Options: 'push' or 'pull_request'.")
	branchFlag := flagSet.String("branch", "main", "Branch the event happened on (source branch for pull_request).")
	targetBranchFlag := flagSet.String("target-branch", "", "Target branch of a pull_request event.")
	repoFlag := flagSet.String("repo", "", "Repository URL or path for imported checkout steps.")
	workspaceFlag := flagSet.String("workspace", "", "Base directory job instances work under.")
	modulesPathFlag := flagSet.String("modules-path", "", "Path to a directory with extra runner manifests.")
	workersFlag := flagSet.Int("workers", 4, "Number of jobs the executor runs concurrently.")
	statusPortFlag := flagSet.Int("status-port", 0, "Port for the HTTP status server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *pathFlag != "" {
		path = *pathFlag
	} else if *pFlag != "" {
		path = *pFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	eventKind := strings.ToLower(*eventFlag)
	if eventKind != "push" && eventKind != "pull_request" {
		return nil, false, &ExitError{Code: 2, Message: "invalid event: must be 'push' or 'pull_request'"}
	}
	if eventKind == "pull_request" && *targetBranchFlag == "" {
		return nil, false, &ExitError{Code: 2, Message: "pull_request events require -target-branch"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		WorkflowPath: path,
		ModulesPath:  *modulesPathFlag,
		Repository:   *repoFlag,
		Workflow:     *workflowFlag,
		EventKind:    eventKind,
		Branch:       *branchFlag,
		TargetBranch: *targetBranchFlag,
		Workspace:    *workspaceFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
		Workers:      *workersFlag,
		StatusPort:   *statusPortFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
