package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Paths are the manifest files or directories to load declarations from.
	Paths []string

	// Experiment selects a single experiment to run. Empty runs all of them.
	Experiment string

	// Overrides are raw name=value pairs applied on top of resolved configs.
	Overrides []string

	// Order replaces the declared evaluation order of every selected
	// experiment. Each element is one group; group members run unordered.
	Order [][]string

	// RunsDir is the root directory run records are written under.
	RunsDir string

	// RepoDir is the repository whose git state is captured for each run.
	RepoDir string

	// CheckRepoDirty refuses to start a run when the repository has
	// uncommitted changes.
	CheckRepoDirty bool

	// DryRun resolves and prints every experiment without recording runs.
	DryRun bool

	LogFormat   string
	LogLevel    string
	WorkerCount int
}

// NewConfig validates a Config and fills in defaults for optional fields.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Paths) == 0 {
		return nil, errors.New("at least one manifest path is required")
	}
	if cfg.RunsDir == "" {
		cfg.RunsDir = "runs"
	}
	if cfg.RepoDir == "" {
		cfg.RepoDir = "."
	}
	return &cfg, nil
}
