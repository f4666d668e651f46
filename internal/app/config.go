package app

import "errors"

// Config holds everything an App instance needs to run.
type Config struct {
	// WorkflowPath points at a definition file or a directory of them.
	// Native .hcl files and GitHub Actions .yml/.yaml documents are both
	// accepted.
	WorkflowPath string
	// ModulesPath optionally holds extra runner manifests.
	ModulesPath string
	// Repository is what imported checkout steps clone.
	Repository string
	// Workflow optionally restricts execution to one workflow by name.
	Workflow string

	// EventKind, Branch and TargetBranch describe the event presented to
	// every loaded workflow.
	EventKind    string
	Branch       string
	TargetBranch string

	// Workspace is the base directory job instances work under.
	Workspace string

	LogFormat  string
	LogLevel   string
	Workers    int
	StatusPort int
}

// NewConfig validates a Config and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkflowPath == "" {
		return nil, errors.New("WorkflowPath is a required configuration field and cannot be empty")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.EventKind == "" {
		cfg.EventKind = "push"
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.Workspace == "" {
		cfg.Workspace = ".forgeci"
	}
	if cfg.Repository == "" {
		cfg.Repository = "."
	}
	return &cfg, nil
}
