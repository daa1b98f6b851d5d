// Package dag provides a minimal directed acyclic graph keyed by string IDs.
// The evaluator builds one graph per evaluation to order attribute
// computations, detect dependency cycles up front, and query dependents when
// unlocking downstream work.
package dag
