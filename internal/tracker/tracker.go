package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vk/labrig/internal/ctxlog"
)

// Run identifies a started run to the writers.
type Run struct {
	UUID       string
	Experiment string
	Comment    string
	Tags       []string
	StartedAt  time.Time
}

// Writer receives the event stream of a single run.
type Writer interface {
	// Start announces a new run before any other event.
	Start(ctx context.Context, run Run) error

	// Hyperparams records the resolved configuration of the run.
	Hyperparams(ctx context.Context, params map[string]string) error

	// Save records scalar metric values for a step.
	Save(ctx context.Context, step int, values map[string]float64) error

	// Status records a lifecycle transition such as "completed".
	Status(ctx context.Context, step int, status string) error

	Close() error
}

// Tracker broadcasts every event to its writers in registration order.
type Tracker struct {
	mu      sync.Mutex
	writers []Writer
}

func New(writers ...Writer) *Tracker {
	return &Tracker{writers: writers}
}

// AddWriter appends a writer. Events already broadcast are not replayed.
func (t *Tracker) AddWriter(w Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writers = append(t.writers, w)
}

func (t *Tracker) Start(ctx context.Context, run Run) {
	t.broadcast(ctx, "start", func(w Writer) error {
		return w.Start(ctx, run)
	})
}

func (t *Tracker) Hyperparams(ctx context.Context, params map[string]string) {
	t.broadcast(ctx, "hyperparams", func(w Writer) error {
		return w.Hyperparams(ctx, params)
	})
}

func (t *Tracker) Save(ctx context.Context, step int, values map[string]float64) {
	t.broadcast(ctx, "metrics", func(w Writer) error {
		return w.Save(ctx, step, values)
	})
}

func (t *Tracker) Status(ctx context.Context, step int, status string) {
	t.broadcast(ctx, "status", func(w Writer) error {
		return w.Status(ctx, step, status)
	})
}

// Close shuts down all writers and reports every failure.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	for _, w := range t.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", w, err))
		}
	}
	return errors.Join(errs...)
}

func (t *Tracker) broadcast(ctx context.Context, event string, fn func(Writer) error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	log := ctxlog.FromContext(ctx)
	for _, w := range t.writers {
		if err := fn(w); err != nil {
			log.Warn("Tracker writer failed.", "writer", fmt.Sprintf("%T", w), "event", event, "error", err)
		}
	}
}
