package experiment

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/vk/labrig/internal/ctxlog"
)

// Saver persists one named component of a run at checkpoint boundaries.
// Save writes its files under dir and returns a JSON-encodable payload;
// Load receives that payload back, decoded from JSON, when the checkpoint
// is read.
type Saver interface {
	Save(dir string) (any, error)
	Load(dir string, info any) error
}

// CheckpointSaver writes and reads per-step checkpoints for a set of named
// savers.
type CheckpointSaver struct {
	dir    string
	savers map[string]Saver
	warned bool
}

// NewCheckpointSaver returns a saver writing checkpoints under dir.
func NewCheckpointSaver(dir string) *CheckpointSaver {
	return &CheckpointSaver{dir: dir, savers: map[string]Saver{}}
}

// Add registers a named saver.
func (c *CheckpointSaver) Add(name string, s Saver) {
	c.savers[name] = s
}

// Names returns the registered saver names, sorted.
func (c *CheckpointSaver) Names() []string {
	names := make([]string, 0, len(c.savers))
	for name := range c.savers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *CheckpointSaver) stepDir(step int) string {
	return filepath.Join(c.dir, strconv.Itoa(step))
}

// Save writes checkpoints/<step>/ with one payload per registered saver and
// an info.json header mapping saver names to their payloads. Without any
// registered savers it warns once and does nothing.
func (c *CheckpointSaver) Save(ctx context.Context, step int) error {
	if len(c.savers) == 0 {
		if !c.warned {
			ctxlog.FromContext(ctx).Warn("No savers registered, skipping checkpoint.", "step", step)
			c.warned = true
		}
		return nil
	}

	dir := c.stepDir(step)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("checkpoint for step %d already exists", step)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	info := make(map[string]any, len(c.savers))
	for _, name := range c.Names() {
		payload, err := c.savers[name].Save(dir)
		if err != nil {
			return fmt.Errorf("saver %q: %w", name, err)
		}
		info[name] = payload
	}

	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint header: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "info.json"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint header: %w", err)
	}
	return nil
}

// Load reads the checkpoint for step back into the named savers, or into
// every registered saver when names is empty. Savers requested but absent
// from the checkpoint, and checkpoint entries no saver asked for, are
// reported as warnings.
func (c *CheckpointSaver) Load(ctx context.Context, step int, names ...string) error {
	data, err := os.ReadFile(filepath.Join(c.stepDir(step), "info.json"))
	if err != nil {
		return fmt.Errorf("failed to read checkpoint for step %d: %w", step, err)
	}
	var info map[string]any
	if err := json.Unmarshal(data, &info); err != nil {
		return fmt.Errorf("failed to decode checkpoint for step %d: %w", step, err)
	}

	if len(names) == 0 {
		names = c.Names()
	}

	log := ctxlog.FromContext(ctx)
	var missing []string
	for _, name := range names {
		saver, ok := c.savers[name]
		if !ok {
			return fmt.Errorf("no saver registered for %q", name)
		}
		payload, ok := info[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if err := saver.Load(c.stepDir(step), payload); err != nil {
			return fmt.Errorf("saver %q: %w", name, err)
		}
		delete(info, name)
	}

	if len(missing) > 0 {
		log.Warn("Checkpoint is missing savers.", "step", step, "missing", missing)
	}
	if len(info) > 0 {
		skipped := make([]string, 0, len(info))
		for name := range info {
			skipped = append(skipped, name)
		}
		sort.Strings(skipped)
		log.Warn("Checkpoint entries were not loaded.", "step", step, "entries", skipped)
	}
	return nil
}
