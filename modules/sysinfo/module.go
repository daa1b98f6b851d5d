package sysinfo

import (
	"context"
	"os"
	"runtime"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/labrig/internal/configs"
	"github.com/vk/labrig/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}

// onHostname reports the machine hostname.
func onHostname(_ context.Context, _ *configs.Scope) (cty.Value, error) {
	return cty.StringVal(hostname()), nil
}

// onNumCPU reports the number of logical CPUs.
func onNumCPU(_ context.Context, _ *configs.Scope) (cty.Value, error) {
	return cty.NumberIntVal(int64(runtime.NumCPU())), nil
}

// onSysInfo reports host facts as one object.
func onSysInfo(_ context.Context, _ *configs.Scope) (cty.Value, error) {
	return cty.ObjectVal(map[string]cty.Value{
		"hostname": cty.StringVal(hostname()),
		"cpus":     cty.NumberIntVal(int64(runtime.NumCPU())),
		"os":       cty.StringVal(runtime.GOOS),
		"arch":     cty.StringVal(runtime.GOARCH),
	}), nil
}

// Register registers the handlers with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler("Hostname", &configs.FuncBody{Fn: onHostname})
	r.RegisterHandler("NumCPU", &configs.FuncBody{Fn: onNumCPU})
	r.RegisterHandler("SysInfo", &configs.FuncBody{Fn: onSysInfo})
}
