package tracker_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/labrig/internal/tracker"
)

// recorder captures the event stream it receives.
type recorder struct {
	name   string
	events []string
	fail   error
}

func (r *recorder) Start(_ context.Context, run tracker.Run) error {
	r.events = append(r.events, "start:"+run.Experiment)
	return r.fail
}

func (r *recorder) Hyperparams(_ context.Context, params map[string]string) error {
	r.events = append(r.events, fmt.Sprintf("hyperparams:%d", len(params)))
	return r.fail
}

func (r *recorder) Save(_ context.Context, step int, values map[string]float64) error {
	r.events = append(r.events, fmt.Sprintf("metrics:%d:%d", step, len(values)))
	return r.fail
}

func (r *recorder) Status(_ context.Context, step int, status string) error {
	r.events = append(r.events, fmt.Sprintf("status:%d:%s", step, status))
	return r.fail
}

func (r *recorder) Close() error {
	r.events = append(r.events, "close")
	return r.fail
}

func TestTracker_BroadcastsInRegistrationOrder(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	first := &recorder{name: "first"}
	second := &recorder{name: "second"}
	tr := tracker.New(first)
	tr.AddWriter(second)
	ctx := context.Background()

	// --- Act ---
	tr.Start(ctx, tracker.Run{Experiment: "mnist", UUID: "u-1"})
	tr.Hyperparams(ctx, map[string]string{"lr": "0.01", "epochs": "10"})
	tr.Save(ctx, 5, map[string]float64{"loss": 0.42})
	tr.Status(ctx, 5, "completed")
	require.NoError(t, tr.Close())

	// --- Assert ---
	want := []string{"start:mnist", "hyperparams:2", "metrics:5:1", "status:5:completed", "close"}
	assert.Equal(t, want, first.events)
	assert.Equal(t, want, second.events)
}

func TestTracker_FailingWriterDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	broken := &recorder{name: "broken", fail: errors.New("disk full")}
	healthy := &recorder{name: "healthy"}
	tr := tracker.New(broken, healthy)
	ctx := context.Background()

	// --- Act ---
	tr.Start(ctx, tracker.Run{Experiment: "mnist"})
	tr.Save(ctx, 1, map[string]float64{"loss": 1.0})

	// --- Assert ---
	assert.Equal(t, []string{"start:mnist", "metrics:1:1"}, healthy.events)
}

func TestTracker_CloseReportsEveryFailure(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	broken := &recorder{name: "broken", fail: errors.New("disk full")}
	alsoBroken := &recorder{name: "also", fail: errors.New("socket closed")}
	tr := tracker.New(broken, alsoBroken)

	// --- Act ---
	err := tr.Close()

	// --- Assert ---
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "socket closed")
}
