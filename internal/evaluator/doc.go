// Package evaluator runs a resolved attribute registry to final values.
//
// Each evaluation pass builds one graph node per attribute, wires edges from
// calculator dependencies and the optional explicit run order, rejects
// cycles, then executes the nodes on a worker pool. Literal values
// materialize up front and are readable from every calculator scope; computed
// attributes only see their declared dependencies. The registry itself is
// never mutated, so one registry can back any number of passes.
package evaluator
