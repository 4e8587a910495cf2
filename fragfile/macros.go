// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package fragfile

import (
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/gogpu/shadergraph/shader"
)

// Macros converts an HCL object or map into a macro set sorted by name.
// Booleans become "1" and "0"; null defines the macro with no value;
// other values must convert to strings.
func Macros(v cty.Value) (shader.MacroSet, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() {
		return nil, fmt.Errorf("macros must be known values")
	}
	ty := v.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("macros must be an object, got %s", ty.FriendlyName())
	}

	vals := v.AsValueMap()
	names := make([]string, 0, len(vals))
	for name := range vals {
		names = append(names, name)
	}
	sort.Strings(names)

	set := make(shader.MacroSet, 0, len(names))
	for _, name := range names {
		value, err := macroValue(vals[name])
		if err != nil {
			return nil, fmt.Errorf("macro %q: %w", name, err)
		}
		set = append(set, shader.Macro{Name: name, Value: value})
	}
	return set, nil
}

func macroValue(v cty.Value) (string, error) {
	switch {
	case v.IsNull():
		return "", nil
	case !v.IsKnown():
		return "", fmt.Errorf("value is not known")
	case v.Type() == cty.Bool:
		if v.True() {
			return "1", nil
		}
		return "0", nil
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", err
	}
	return s.AsString(), nil
}
