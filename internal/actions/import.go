// Package actions imports GitHub Actions workflow YAML into the native
// model, so a repository's existing .github/workflows files run on this
// engine unchanged. Only the surface the engine executes is translated:
// push/pull_request triggers with branch filters, workflow and job env,
// linear steps of the checkout / toolchain / run forms, needs edges, and a
// feature matrix declared through the engine's `x-features` extension key.
package actions

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/vk/forgeci/internal/config"
	"github.com/vk/forgeci/internal/ctxlog"
)

// Importer translates GitHub Actions documents into the config model.
type Importer struct {
	// Repository is what checkout steps should clone; Actions YAML leaves
	// it implicit (the repository the workflow lives in).
	Repository string
}

// --- YAML document structures ---

type document struct {
	Name string             `yaml:"name"`
	On   onSection          `yaml:"on"`
	Env  map[string]string  `yaml:"env"`
	Jobs map[string]yamlJob `yaml:"jobs"`
}

type onSection struct {
	Push        *eventFilter `yaml:"push"`
	PullRequest *eventFilter `yaml:"pull_request"`
}

type eventFilter struct {
	Branches []string `yaml:"branches"`
}

type yamlJob struct {
	RunsOn   string            `yaml:"runs-on"`
	Needs    stringList        `yaml:"needs"`
	Env      map[string]string `yaml:"env"`
	Steps    []yamlStep        `yaml:"steps"`
	Features *yamlMatrix       `yaml:"x-features"`
}

type yamlMatrix struct {
	Features    []string   `yaml:"features"`
	Always      []string   `yaml:"always"`
	Skip        [][]string `yaml:"skip"`
	MaxParallel int        `yaml:"max-parallel"`
}

type yamlStep struct {
	Name             string            `yaml:"name"`
	Uses             string            `yaml:"uses"`
	With             map[string]any    `yaml:"with"`
	Run              string            `yaml:"run"`
	WorkingDirectory string            `yaml:"working-directory"`
	Env              map[string]string `yaml:"env"`
	ContinueOnError  bool              `yaml:"continue-on-error"`
}

// stringList accepts both `needs: build` and `needs: [build, docs]`.
type stringList []string

func (s *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var one string
		if err := node.Decode(&one); err != nil {
			return err
		}
		*s = []string{one}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := node.Decode(&many); err != nil {
			return err
		}
		*s = many
		return nil
	}
	return fmt.Errorf("needs must be a string or a list of strings")
}

// Import translates one YAML document into a workflow.
func (i *Importer) Import(ctx context.Context, data []byte, source string) (*config.Workflow, error) {
	logger := ctxlog.FromContext(ctx)

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("%s: workflow has no name", source)
	}

	wf := &config.Workflow{Name: doc.Name, Env: doc.Env}
	if doc.On.Push != nil {
		wf.Triggers = append(wf.Triggers, &config.Trigger{Kind: "push", Branches: doc.On.Push.Branches})
	}
	if doc.On.PullRequest != nil {
		wf.Triggers = append(wf.Triggers, &config.Trigger{Kind: "pull_request", Branches: doc.On.PullRequest.Branches})
	}

	// YAML maps are unordered; sort job names so imports are stable.
	names := make([]string, 0, len(doc.Jobs))
	for name := range doc.Jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		job, err := i.importJob(name, doc.Jobs[name])
		if err != nil {
			return nil, fmt.Errorf("%s: job %q: %w", source, name, err)
		}
		wf.Jobs = append(wf.Jobs, job)
	}

	logger.Debug("Imported Actions workflow.", "source", source, "name", wf.Name, "jobs", len(wf.Jobs))
	return wf, nil
}

func (i *Importer) importJob(name string, yj yamlJob) (*config.Job, error) {
	job := &config.Job{
		Name:   name,
		RunsOn: yj.RunsOn,
		Needs:  yj.Needs,
		Env:    yj.Env,
	}
	if yj.Features != nil {
		job.Matrix = &config.Matrix{
			Features:    yj.Features.Features,
			Always:      yj.Features.Always,
			Skip:        yj.Features.Skip,
			MaxParallel: yj.Features.MaxParallel,
		}
	}

	for n, ys := range yj.Steps {
		step, err := i.importStep(n, ys)
		if err != nil {
			return nil, err
		}
		job.Steps = append(job.Steps, step)
	}
	return job, nil
}

// importStep maps the three supported step forms onto native runners.
func (i *Importer) importStep(n int, ys yamlStep) (*config.Step, error) {
	name := ys.Name
	args := map[string]cty.Value{}
	var runnerType string

	switch {
	case ys.Run != "":
		runnerType = "shell"
		args["command"] = cty.StringVal(ys.Run)
		if ys.WorkingDirectory != "" {
			args["dir"] = cty.StringVal(ys.WorkingDirectory)
		}
		if name == "" {
			name = fmt.Sprintf("run-%d", n+1)
		}

	case strings.Contains(ys.Uses, "checkout@"):
		runnerType = "checkout"
		args["repository"] = cty.StringVal(i.Repository)
		if sub, ok := ys.With["submodules"]; ok {
			args["submodules"] = cty.BoolVal(sub == true || sub == "true" || sub == "recursive")
		}
		if name == "" {
			name = "checkout"
		}

	case strings.Contains(ys.Uses, "toolchain@"):
		runnerType = "toolchain"
		channel := ys.Uses[strings.LastIndexByte(ys.Uses, '@')+1:]
		if c, ok := ys.With["toolchain"].(string); ok {
			channel = c
		}
		args["channel"] = cty.StringVal(channel)
		if name == "" {
			name = "toolchain"
		}

	default:
		return nil, fmt.Errorf("step %d: unsupported action %q", n+1, ys.Uses)
	}

	body, err := argumentsBody(args)
	if err != nil {
		return nil, fmt.Errorf("step %q: %w", name, err)
	}
	return &config.Step{
		Name:            name,
		RunnerType:      runnerType,
		Arguments:       body,
		Env:             ys.Env,
		ContinueOnError: ys.ContinueOnError,
	}, nil
}

// argumentsBody synthesizes the hcl.Body a native arguments block would
// have produced, so imported steps flow through the executor identically.
func argumentsBody(attrs map[string]cty.Value) (hcl.Body, error) {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		body.SetAttributeValue(k, attrs[k])
	}

	parsed, diags := hclparse.NewParser().ParseHCL(f.Bytes(), "imported.hcl")
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to synthesize arguments: %w", diags)
	}
	return parsed.Body, nil
}
