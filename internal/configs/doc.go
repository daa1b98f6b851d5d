// Package configs implements the configuration resolution core: composable
// schema fragments, the lineage walk that orders them, and the attribute
// registry that merges declarations, values and calculators into a resolved
// table ready for evaluation.
//
// The package performs no I/O and evaluates nothing itself. Calculator
// bodies are opaque computations behind the Body interface; running them is
// the evaluator package's job. Declaration surfaces (the Go builder here,
// HCL manifests elsewhere) all funnel into Schema values, so resolution
// semantics are identical no matter where a schema came from.
package configs
