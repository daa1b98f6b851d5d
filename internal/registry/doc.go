// Package registry provides the central "glue" between declaration files
// and compiled Go code.
//
// The Registry stores mappings between the handler names used in manifests
// (e.g., "FromEnv") and the actual compiled Go calculator bodies that
// implement them. It also assembles the loaded, format-agnostic model into
// schema fragments the resolution engine understands.
//
// During application startup, the registry is populated by modules and then
// validated against the model to ensure that declarations and Go code are in
// sync, preventing a wide class of runtime errors.
package registry
