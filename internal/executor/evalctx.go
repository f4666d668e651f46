package executor

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/forgeci/internal/matrix"
)

// buildEvalContext assembles the variables step argument expressions can
// reference:
//
//	env.<NAME>            the layered process environment
//	matrix.features       the instance's selected features
//	steps.<name>.output   outputs of earlier steps in the same instance
func buildEvalContext(env []string, combo matrix.Combination, stepOutputs map[string]cty.Value) *hcl.EvalContext {
	steps := make(map[string]cty.Value, len(stepOutputs))
	for name, out := range stepOutputs {
		steps[name] = cty.ObjectVal(map[string]cty.Value{"output": out})
	}
	stepsVal := cty.EmptyObjectVal
	if len(steps) > 0 {
		stepsVal = cty.ObjectVal(steps)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": envBlock(env),
			"matrix": cty.ObjectVal(map[string]cty.Value{
				"features": featureList(combo),
			}),
			"steps": stepsVal,
		},
	}
}
