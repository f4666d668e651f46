// Package event models the repository events that can fire a workflow and
// the matching rules between an event and a workflow's triggers.
package event

import (
	"fmt"
	"strings"

	"github.com/vk/forgeci/internal/config"
)

// Kind enumerates the supported event kinds.
type Kind string

const (
	Push        Kind = "push"
	PullRequest Kind = "pull_request"
)

// ParseKind validates a user-supplied event kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Push, PullRequest:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown event kind %q (want %q or %q)", s, Push, PullRequest)
}

// Event is a single repository event presented to the engine.
type Event struct {
	Kind   Kind
	Branch string // pushed branch for Push, source branch for PullRequest
	Target string // target branch, PullRequest only
}

// matchBranch reports whether a branch filter pattern matches name. Patterns
// are exact names or globs: "*" matches within one path segment, a trailing
// "**" matches one or more remaining segments, and the bare pattern "**"
// matches every branch. E.g. "release/*", "release/**".
func matchBranch(pattern, name string) bool {
	if pattern == name || pattern == "**" {
		return true
	}
	pSeg := strings.Split(pattern, "/")
	nSeg := strings.Split(name, "/")
	if pSeg[len(pSeg)-1] == "**" {
		pSeg = pSeg[:len(pSeg)-1]
		if len(nSeg) <= len(pSeg) {
			return false
		}
		nSeg = nSeg[:len(pSeg)]
	} else if len(pSeg) != len(nSeg) {
		return false
	}
	for i := range pSeg {
		if pSeg[i] != "*" && pSeg[i] != nSeg[i] {
			return false
		}
	}
	return true
}

// branchFor picks the branch a trigger filters on. Pull request triggers
// filter on the TARGET branch: a workflow fires for PRs aimed at the
// branches it watches, regardless of where the PR comes from.
func (e *Event) branchFor(kind Kind) string {
	if kind == PullRequest {
		return e.Target
	}
	return e.Branch
}

// Match reports whether the workflow's triggers fire for the event. A
// trigger with no branch filters matches every branch.
func Match(w *config.Workflow, e *Event) bool {
	for _, trig := range w.Triggers {
		if Kind(trig.Kind) != e.Kind {
			continue
		}
		if len(trig.Branches) == 0 {
			return true
		}
		branch := e.branchFor(e.Kind)
		for _, pattern := range trig.Branches {
			if matchBranch(pattern, branch) {
				return true
			}
		}
	}
	return false
}
