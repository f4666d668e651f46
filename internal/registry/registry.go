package registry

import (
	"github.com/vk/forgeci/internal/config"
)

// Module is the interface every runner module implements to hook itself into
// an engine instance: it registers its manifest and its Go handler.
type Module interface {
	Register(r *Registry)
}

// Registry holds the runner definitions and Go handlers for a single engine
// instance. It is assembled once at startup and read-only afterwards.
type Registry struct {
	Definitions map[string]*config.RunnerDefinition
	Handlers    map[string]*RegisteredRunner
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		Definitions: make(map[string]*config.RunnerDefinition),
		Handlers:    make(map[string]*RegisteredRunner),
	}
}

// RegisterDefinition adds a Go-declared runner manifest. Panics on duplicate
// types: two modules claiming one runner type is a programmer error.
func (r *Registry) RegisterDefinition(def *config.RunnerDefinition) {
	if _, exists := r.Definitions[def.Type]; exists {
		panic("runner definition '" + def.Type + "' already registered")
	}
	r.Definitions[def.Type] = def
}

// MergeDefinitionsFromModel copies runner manifests loaded from definition
// files into the registry. File-loaded manifests may not shadow Go-declared
// ones.
func (r *Registry) MergeDefinitionsFromModel(model *config.Model) {
	for key, def := range model.Runners {
		if _, exists := r.Definitions[key]; exists {
			panic("runner definition '" + key + "' already registered")
		}
		r.Definitions[key] = def
	}
}

// Definition returns the manifest for a runner type, or nil.
func (r *Registry) Definition(runnerType string) *config.RunnerDefinition {
	return r.Definitions[runnerType]
}
