// Package socketio streams run events to a live tracking endpoint over
// socket.io, so a dashboard can follow training as it happens.
package socketio

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/labrig/internal/tracker"
)

const defaultConnectTimeout = 10 * time.Second

// Writer emits run events to a socket.io endpoint. Events emitted before the
// connection is up are buffered by the client and flushed on connect.
type Writer struct {
	io       *socket.Socket
	endpoint string
	timeout  time.Duration
	ready    chan struct{}
}

// Option adjusts writer behavior.
type Option func(*Writer)

// WithConnectTimeout bounds how long Start waits for the initial connection.
func WithConnectTimeout(d time.Duration) Option {
	return func(w *Writer) {
		w.timeout = d
	}
}

// New dials liveURL in the background and returns immediately. Only a
// malformed URL fails here; connection problems surface on Start.
func New(liveURL string, opts ...Option) (*Writer, error) {
	parsed, err := url.Parse(liveURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse live URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("live URL %q needs a scheme and host", liveURL)
	}

	baseURL := fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
	sockOpts := socket.DefaultOptions()
	if parsed.Path != "" {
		sockOpts.SetPath(parsed.Path)
	}
	sockOpts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, sockOpts)
	io := manager.Socket("/", sockOpts)

	w := &Writer{
		io:       io,
		endpoint: baseURL,
		timeout:  defaultConnectTimeout,
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	var once sync.Once
	io.On(types.EventName("connect"), func(...any) {
		once.Do(func() { close(w.ready) })
	})
	io.Connect()

	return w, nil
}

// Start waits for the connection, then announces the run.
func (w *Writer) Start(ctx context.Context, run tracker.Run) error {
	select {
	case <-w.ready:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(w.timeout):
		return fmt.Errorf("timed out while waiting for initial connection to %s", w.endpoint)
	}

	w.io.Emit("run", map[string]any{
		"uuid":       run.UUID,
		"experiment": run.Experiment,
		"comment":    run.Comment,
		"tags":       run.Tags,
		"started_at": run.StartedAt.UTC().Format(time.RFC3339),
	})
	return nil
}

func (w *Writer) Hyperparams(_ context.Context, params map[string]string) error {
	w.io.Emit("hyperparams", params)
	return nil
}

func (w *Writer) Save(_ context.Context, step int, values map[string]float64) error {
	w.io.Emit("metrics", map[string]any{
		"step":   step,
		"values": values,
	})
	return nil
}

func (w *Writer) Status(_ context.Context, step int, status string) error {
	w.io.Emit("status", map[string]any{
		"step":   step,
		"status": status,
	})
	return nil
}

func (w *Writer) Close() error {
	w.io.Disconnect()
	return nil
}
