package config

import "context"

// Loader is the interface for a format-specific workflow loader. The HCL
// loader handles native definitions; the actions importer handles GitHub
// Actions YAML. Both translate into the same Model.
type Loader interface {
	// Load reads every definition file reachable from the given paths and
	// merges them into a single format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
