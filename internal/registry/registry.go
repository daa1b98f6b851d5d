package registry

import (
	"fmt"
	"log/slog"

	"github.com/vk/labrig/internal/configs"
)

// Module is the interface that all built-in modules implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the named Go calculator bodies available to manifests for
// a single application instance.
type Registry struct {
	handlers map[string]configs.Body
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		handlers: make(map[string]configs.Body),
	}
}

// RegisterHandler registers a Go calculator body under a manifest-visible
// name.
func (r *Registry) RegisterHandler(name string, body configs.Body) {
	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("handler with name '%s' already registered", name))
	}
	if body == nil {
		panic(fmt.Sprintf("handler '%s' registered with a nil body", name))
	}
	slog.Debug("Registering handler.", "name", name)
	r.handlers[name] = body
}

// Handler returns the body registered under the given name.
func (r *Registry) Handler(name string) (configs.Body, bool) {
	body, ok := r.handlers[name]
	return body, ok
}
