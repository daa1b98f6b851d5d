// Package hcl_adapter provides the concrete HCL implementation of the
// model.Loader interface. It is responsible for all file parsing,
// HCL-to-model translation, type expression parsing and the binding of
// inline HCL expressions as calculator bodies.
package hcl_adapter
