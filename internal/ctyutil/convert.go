// Package ctyutil converts between cty values and their native Go
// counterparts. The evaluator's snapshots and the tracker writers all speak
// native Go (YAML, JSON lines, SQL parameters), while the resolution core
// speaks cty.
package ctyutil

import (
	"fmt"
	"math/big"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ToNative recursively converts a cty.Value to its most natural Go
// counterpart. Whole numbers come back as int64, everything else numeric as
// float64. Null and unknown values become nil.
func ToNative(v cty.Value) (any, error) {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()

	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert cty.Number to float64: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		slice := make([]any, 0)
		it := v.ElementIterator()
		for it.Next() {
			_, val := it.Element()
			nativeVal, err := ToNative(val)
			if err != nil {
				return nil, err
			}
			slice = append(slice, nativeVal)
		}
		return slice, nil

	case ty.IsObjectType() || ty.IsMapType():
		goMap := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			key, val := it.Element()
			keyStr := key.AsString()
			nativeVal, err := ToNative(val)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", keyStr, err)
			}
			goMap[keyStr] = nativeVal
		}
		return goMap, nil

	default:
		return nil, fmt.Errorf("unsupported cty type for native conversion: %s", ty.FriendlyName())
	}
}

// ToCty converts a native Go value into its corresponding cty.Value.
func ToCty(v any) (cty.Value, error) {
	if v == nil {
		return cty.NilVal, nil
	}
	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type: %w", err)
	}
	return gocty.ToCtyValue(v, ty)
}
