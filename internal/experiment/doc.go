// Package experiment keeps the on-disk record of training runs.
//
// Every run owns a directory under <runs>/<experiment>/<uuid>/ holding the
// run info (run.yaml), the resolved configuration snapshot (configs.yaml),
// the uncommitted source diff (source.diff), the tracker event log
// (events.jsonl, run.db), the status log (run.log), and checkpoints
// (checkpoints/<step>/).
package experiment
