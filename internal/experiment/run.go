package experiment

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vk/labrig/internal/gitinfo"
)

// Run is the bookkeeping record of a single execution of an experiment.
type Run struct {
	UUID       string
	Experiment string
	Comment    string
	Tags       []string
	StartedAt  time.Time
	StartStep  int
	Git        *gitinfo.Info

	dir string
}

// Dir returns the run directory.
func (r *Run) Dir() string { return r.dir }

// InfoPath returns the path of the run info file.
func (r *Run) InfoPath() string { return filepath.Join(r.dir, "run.yaml") }

// ConfigsPath returns the path of the resolved configuration snapshot.
func (r *Run) ConfigsPath() string { return filepath.Join(r.dir, "configs.yaml") }

// DiffPath returns the path of the uncommitted source diff.
func (r *Run) DiffPath() string { return filepath.Join(r.dir, "source.diff") }

// EventsPath returns the path of the JSON-lines event log.
func (r *Run) EventsPath() string { return filepath.Join(r.dir, "events.jsonl") }

// DatabasePath returns the path of the metrics database.
func (r *Run) DatabasePath() string { return filepath.Join(r.dir, "run.db") }

// LogPath returns the path of the status log.
func (r *Run) LogPath() string { return filepath.Join(r.dir, "run.log") }

// CheckpointsDir returns the directory holding per-step checkpoints.
func (r *Run) CheckpointsDir() string { return filepath.Join(r.dir, "checkpoints") }

type runInfo struct {
	Name          string   `yaml:"name"`
	UUID          string   `yaml:"uuid"`
	Comment       string   `yaml:"comment"`
	StartTime     string   `yaml:"start_time"`
	Commit        string   `yaml:"commit"`
	CommitMessage string   `yaml:"commit_message"`
	Dirty         bool     `yaml:"dirty"`
	StartStep     int      `yaml:"start_step"`
	Tags          []string `yaml:"tags"`
}

// saveInfo writes run.yaml. The git snapshot must be captured first.
func (r *Run) saveInfo() error {
	info := runInfo{
		Name:      r.Experiment,
		UUID:      r.UUID,
		Comment:   r.Comment,
		StartTime: r.StartedAt.UTC().Format(time.RFC3339),
		StartStep: r.StartStep,
		Tags:      r.Tags,
	}
	if r.Git != nil {
		info.Commit = r.Git.Commit
		info.CommitMessage = r.Git.Message
		info.Dirty = r.Git.Dirty
	}

	data, err := yaml.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to encode run info: %w", err)
	}
	if err := os.WriteFile(r.InfoPath(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write run info: %w", err)
	}
	return nil
}
