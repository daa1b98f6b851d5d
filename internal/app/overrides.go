package app

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// parseOverrides turns raw --set pairs into typed attribute overrides.
func parseOverrides(pairs []string) (map[string]cty.Value, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]cty.Value, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("override %q must have the form name=value", pair)
		}
		out[name] = literalValue(strings.TrimSpace(raw))
	}
	return out, nil
}

// literalValue types a raw override: booleans and numbers keep their type,
// everything else stays a string.
func literalValue(raw string) cty.Value {
	switch raw {
	case "true":
		return cty.True
	case "false":
		return cty.False
	}
	if v, err := cty.ParseNumberVal(raw); err == nil {
		return v
	}
	return cty.StringVal(raw)
}
