package experiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vk/labrig/internal/ctxlog"
	"github.com/vk/labrig/internal/evaluator"
	"github.com/vk/labrig/internal/fsutil"
	"github.com/vk/labrig/internal/gitinfo"
	"github.com/vk/labrig/internal/tracker"
)

// Experiment owns the lifecycle of one run: git capture, directory layout,
// tracker notification, and checkpointing.
type Experiment struct {
	name           string
	comment        string
	tags           []string
	runsDir        string
	repoDir        string
	checkRepoDirty bool
	startStep      int

	tracker *tracker.Tracker
	run     *Run
	saver   *CheckpointSaver
	started bool
}

// Option adjusts experiment construction.
type Option func(*Experiment)

// WithComment attaches a short description to the run.
func WithComment(comment string) Option {
	return func(e *Experiment) { e.comment = comment }
}

// WithTags replaces the default tags derived from the experiment name.
func WithTags(tags ...string) Option {
	return func(e *Experiment) { e.tags = tags }
}

// WithRunsDir sets the root directory runs are recorded under.
// Default is "runs".
func WithRunsDir(dir string) Option {
	return func(e *Experiment) { e.runsDir = dir }
}

// WithRepoDir sets the directory whose git state is captured.
// Default is the working directory.
func WithRepoDir(dir string) Option {
	return func(e *Experiment) { e.repoDir = dir }
}

// WithCheckRepoDirty makes Start refuse to run with uncommitted changes.
func WithCheckRepoDirty(enabled bool) Option {
	return func(e *Experiment) { e.checkRepoDirty = enabled }
}

// WithStartStep records the step a resumed run continues from.
func WithStartStep(step int) Option {
	return func(e *Experiment) { e.startStep = step }
}

// WithTracker attaches the tracker notified of run events.
func WithTracker(t *tracker.Tracker) Option {
	return func(e *Experiment) { e.tracker = t }
}

// New prepares an experiment run. The run directory is allocated here but
// nothing touches the disk until Start.
func New(name string, opts ...Option) *Experiment {
	e := &Experiment{
		name:    name,
		runsDir: "runs",
		repoDir: ".",
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tags == nil {
		e.tags = strings.Split(name, "_")
	}
	if e.tracker == nil {
		e.tracker = tracker.New()
	}

	e.run = &Run{
		UUID:       uuid.New().String(),
		Experiment: name,
		Comment:    e.comment,
		Tags:       e.tags,
		StartStep:  e.startStep,
	}
	e.run.dir = filepath.Join(e.runsDir, name, e.run.UUID)
	e.saver = NewCheckpointSaver(e.run.CheckpointsDir())

	return e
}

// Run returns the run record. Before Start only the identity fields are
// populated.
func (e *Experiment) Run() *Run { return e.run }

// Tracker returns the tracker attached to this experiment.
func (e *Experiment) Tracker() *tracker.Tracker { return e.tracker }

// SetTracker replaces the tracker. Writers that record into the run
// directory can only be built once the run paths are known, so the tracker
// may be swapped in any time before Start.
func (e *Experiment) SetTracker(t *tracker.Tracker) error {
	if e.started {
		return fmt.Errorf("cannot replace the tracker of run %s after it has started", e.run.UUID)
	}
	e.tracker = t
	return nil
}

// AddSaver registers a checkpoint saver. Savers must be registered before
// the run starts.
func (e *Experiment) AddSaver(name string, s Saver) error {
	if e.started {
		return fmt.Errorf("cannot register saver %q after the run has started", name)
	}
	e.saver.Add(name, s)
	return nil
}

// Start captures the repository state, writes the run records, and
// announces the run to the tracker. The resolved configuration may be nil
// when the experiment carries no configs.
func (e *Experiment) Start(ctx context.Context, res *evaluator.Result) (*Run, error) {
	if e.started {
		return nil, fmt.Errorf("run %s already started", e.run.UUID)
	}

	log := ctxlog.FromContext(ctx)

	e.run.StartedAt = time.Now()
	e.run.Git = gitinfo.Capture(ctx, e.repoDir)

	state := "clean"
	if e.run.Git.Dirty {
		state = "dirty"
	}
	log.Info("Starting run.",
		"experiment", e.name,
		"uuid", e.run.UUID,
		"commit", e.run.Git.Commit,
		"state", state,
	)

	if e.checkRepoDirty && e.run.Git.Dirty {
		return nil, errors.New("cannot start a run with uncommitted changes")
	}

	if err := fsutil.EnsureDir(e.run.Dir()); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	if err := e.run.saveInfo(); err != nil {
		return nil, err
	}
	if err := os.WriteFile(e.run.DiffPath(), []byte(e.run.Git.Diff), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write source diff: %w", err)
	}
	if res != nil {
		snapshot, err := res.YAML()
		if err != nil {
			return nil, fmt.Errorf("failed to encode configuration snapshot: %w", err)
		}
		if err := os.WriteFile(e.run.ConfigsPath(), snapshot, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write configuration snapshot: %w", err)
		}
	}

	e.tracker.Start(ctx, tracker.Run{
		UUID:       e.run.UUID,
		Experiment: e.run.Experiment,
		Comment:    e.run.Comment,
		Tags:       e.run.Tags,
		StartedAt:  e.run.StartedAt,
	})
	if res != nil {
		e.tracker.Hyperparams(ctx, res.Hyperparams())
	}

	e.started = true
	return e.run, nil
}

// Finish records the final status in run.log, forwards it to the tracker,
// and shuts the tracker down.
func (e *Experiment) Finish(ctx context.Context, step int, status string) error {
	if !e.started {
		return errors.New("run has not been started")
	}

	e.tracker.Status(ctx, step, status)

	record := map[string]any{
		"status": status,
		"step":   step,
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if err := e.appendLog(record); err != nil {
		return err
	}
	return e.tracker.Close()
}

func (e *Experiment) appendLog(record map[string]any) error {
	f, err := os.OpenFile(e.run.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open run log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("failed to append run log: %w", err)
	}
	return nil
}

// SaveCheckpoint writes a checkpoint for step.
func (e *Experiment) SaveCheckpoint(ctx context.Context, step int) error {
	if !e.started {
		return errors.New("run has not been started")
	}
	return e.saver.Save(ctx, step)
}

// LoadCheckpoint reads the checkpoint for step back into the named savers,
// or into all of them when names is empty.
func (e *Experiment) LoadCheckpoint(ctx context.Context, step int, names ...string) error {
	return e.saver.Load(ctx, step, names...)
}
