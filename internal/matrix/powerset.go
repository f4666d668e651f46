// Package matrix expands a job's feature declaration into the full powerset
// of feature combinations, mirroring the "build and test every combination
// of optional compile-time features" strategy.
package matrix

import (
	"fmt"
	"strings"
)

// MaxFeatures caps the powerset size. 2^16 instances is already far beyond
// anything a single runner should fan out to.
const MaxFeatures = 16

// Combination is one selected set of features for a single job instance.
type Combination struct {
	// Features holds the selected optional features in declaration order,
	// with any always-on features appended.
	Features []string
}

// String renders the combination the way instance names embed it, e.g.
// "serde,alloc". The empty combination renders as "".
func (c Combination) String() string {
	return strings.Join(c.Features, ",")
}

// Powerset returns every subset of features in binary-counting order: the
// empty set first, then each feature alone, then pairs, and so on up to the
// full set. The order is deterministic, bit i selecting features[i].
func Powerset(features []string) [][]string {
	n := len(features)
	combos := make([][]string, 0, 1<<n)
	for mask := 0; mask < 1<<n; mask++ {
		var combo []string
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				combo = append(combo, features[i])
			}
		}
		combos = append(combos, combo)
	}
	return combos
}

// Validate rejects feature declarations the expansion cannot honor.
func Validate(features, always []string) error {
	if len(features) > MaxFeatures {
		return fmt.Errorf("matrix declares %d features, maximum is %d", len(features), MaxFeatures)
	}
	seen := make(map[string]struct{}, len(features))
	for _, f := range features {
		if _, dup := seen[f]; dup {
			return fmt.Errorf("matrix declares feature %q more than once", f)
		}
		seen[f] = struct{}{}
	}
	for _, f := range always {
		if _, dup := seen[f]; dup {
			return fmt.Errorf("feature %q listed in both features and always", f)
		}
	}
	return nil
}

// Expand produces the job instances for a feature declaration: the powerset
// of features, minus combinations listed in skipCombos, each with always
// appended. Skip entries are compared as unordered sets against the
// selected optional features only.
func Expand(features, always []string, skipCombos [][]string) []Combination {
	skip := make([]map[string]struct{}, 0, len(skipCombos))
	for _, s := range skipCombos {
		set := make(map[string]struct{}, len(s))
		for _, f := range s {
			set[f] = struct{}{}
		}
		skip = append(skip, set)
	}

	var out []Combination
	for _, combo := range Powerset(features) {
		if skipped(combo, skip) {
			continue
		}
		selected := make([]string, 0, len(combo)+len(always))
		selected = append(selected, combo...)
		selected = append(selected, always...)
		out = append(out, Combination{Features: selected})
	}
	return out
}

// skipped reports whether combo equals any of the skip sets.
func skipped(combo []string, skip []map[string]struct{}) bool {
outer:
	for _, set := range skip {
		if len(set) != len(combo) {
			continue
		}
		for _, f := range combo {
			if _, ok := set[f]; !ok {
				continue outer
			}
		}
		return true
	}
	return false
}
