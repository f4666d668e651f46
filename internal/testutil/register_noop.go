package testutil

import (
	"context"

	"github.com/vk/forgeci/internal/registry"
)

// NoOpModule satisfies the registry.Module interface and registers a single
// "OnRunNoOp" handler. It's useful for tests that should fail before
// execution begins but still need a definition that can pass registry
// validation.
type NoOpModule struct{}

// Register registers a single "OnRunNoOp" handler that takes no input and
// does nothing.
func (m *NoOpModule) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunNoOp", &registry.RegisteredRunner{
		Fn: func(ctx context.Context, exec *registry.StepContext, input any) (any, error) {
			// No operation
			return nil, nil
		},
	})
}
