// Package registry wires runner manifests to their compiled Go handlers.
//
// A runner exists in two halves: a declarative manifest (its type name and
// input/output contract, declared in Go by core modules or loaded from
// manifest files) and a registered handler function. The registry joins the
// two and validates the pairing at startup, which keeps the executor free of
// "handler not found" paths at run time.
package registry
