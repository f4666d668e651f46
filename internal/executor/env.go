package executor

import (
	"os"
	"sort"
	"strings"
)

// layerEnv builds a spawned process environment from the inherited one plus
// the given overlays, later overlays winning. Overlay keys are applied in
// sorted order inside each layer so the result is deterministic.
func layerEnv(layers ...map[string]string) []string {
	merged := make(map[string]string)
	var order []string

	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			if _, seen := merged[k]; !seen {
				order = append(order, k)
			}
			merged[k] = v
		}
	}
	// Every run advertises itself the way hosted CI providers do.
	if _, seen := merged["CI"]; !seen {
		order = append(order, "CI")
	}
	merged["CI"] = "true"

	for _, layer := range layers {
		keys := make([]string, 0, len(layer))
		for k := range layer {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if _, seen := merged[k]; !seen {
				order = append(order, k)
			}
			merged[k] = layer[k]
		}
	}

	env := make([]string, 0, len(order))
	for _, k := range order {
		env = append(env, k+"="+merged[k])
	}
	return env
}
