package executor

import (
	"fmt"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// toCtyValue converts a handler's native Go return value into the cty value
// later steps see. Handlers may also return cty.Value directly, or nil for
// no output.
func toCtyValue(v any) (cty.Value, error) {
	switch val := v.(type) {
	case nil:
		return cty.NilVal, nil
	case cty.Value:
		return val, nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return cty.NilVal, nil
	}

	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("cannot derive a cty type for handler output %T: %w", v, err)
	}
	out, err := gocty.ToCtyValue(v, ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("cannot convert handler output %T: %w", v, err)
	}
	return out, nil
}
