package env

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/labrig/internal/configs"
	"github.com/vk/labrig/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// onEnvVars captures the process environment as a map of strings.
func onEnvVars(_ context.Context, _ *configs.Scope) (cty.Value, error) {
	vars := map[string]cty.Value{}
	for _, entry := range os.Environ() {
		pair := strings.SplitN(entry, "=", 2)
		if len(pair) == 2 && pair[0] != "" {
			vars[pair[0]] = cty.StringVal(pair[1])
		}
	}
	if len(vars) == 0 {
		return cty.MapValEmpty(cty.String), nil
	}
	return cty.MapVal(vars), nil
}

// onEnvPrefixed captures environment variables sharing the prefix read from
// the env_prefix attribute, with the prefix stripped from the keys.
func onEnvPrefixed(_ context.Context, scope *configs.Scope) (cty.Value, error) {
	prefixVal, err := scope.Get("env_prefix")
	if err != nil {
		return cty.NilVal, err
	}
	if prefixVal.Type() != cty.String || prefixVal.IsNull() {
		return cty.NilVal, fmt.Errorf("env_prefix must be a string")
	}
	prefix := prefixVal.AsString()

	vars := map[string]cty.Value{}
	for _, entry := range os.Environ() {
		pair := strings.SplitN(entry, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], prefix) {
			continue
		}
		name := strings.TrimPrefix(pair[0], prefix)
		if name != "" {
			vars[name] = cty.StringVal(pair[1])
		}
	}
	if len(vars) == 0 {
		return cty.MapValEmpty(cty.String), nil
	}
	return cty.MapVal(vars), nil
}

// Register registers the handlers with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler("EnvVars", &configs.FuncBody{Fn: onEnvVars})
	r.RegisterHandler("EnvPrefixed", &configs.FuncBody{
		Deps: []string{"env_prefix"},
		Fn:   onEnvPrefixed,
	})
}
