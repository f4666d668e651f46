// Package config defines the format-agnostic model every loader translates
// into and every downstream component (registry, executor, report) consumes.
// Nothing in this package knows about HCL syntax or YAML syntax; only the
// loaders do.
package config
