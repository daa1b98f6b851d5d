package testutil

import (
	"github.com/vk/labrig/internal/configs"
	"github.com/vk/labrig/internal/registry"
)

// HandlerModule is a test helper for easily creating a mock module that
// registers a single named calculator body.
type HandlerModule struct {
	Name string
	Body configs.Body
}

// Register implements the registry.Module interface.
func (m *HandlerModule) Register(r *registry.Registry) {
	if m.Name != "" && m.Body != nil {
		r.RegisterHandler(m.Name, m.Body)
	}
}
