// Package tracker fans run lifecycle events, resolved hyper-parameters, and
// scalar metrics out to a set of writers.
//
// Writers are intentionally fire-and-forget: a broken writer (full disk,
// unreachable endpoint) is logged as a warning and never interrupts the run
// that produced the data. Close is the one exception and reports every
// writer that failed to shut down cleanly.
package tracker
