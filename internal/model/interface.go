package model

import "context"

// Loader is the interface for a format-specific declaration loader.
type Loader interface {
	// Load reads declarations from the given paths, translates them into the
	// format-agnostic model and returns it.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
