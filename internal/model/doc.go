// Package model defines the format-agnostic declaration model for the
// application, along with the Loader interface for reading declarations
// from various sources.
//
// The `model.Model` is the single source of truth for the `registry` and
// `app` packages. Concrete implementations of the Loader, such as for HCL,
// are provided in separate packages.
package model
