// Package file appends run events to a JSON-lines log in the run directory.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/vk/labrig/internal/tracker"
)

// event is one line of the log. Fields absent from an event kind are
// omitted rather than zeroed.
type event struct {
	Event      string             `json:"event"`
	Time       string             `json:"time"`
	UUID       string             `json:"uuid,omitempty"`
	Experiment string             `json:"experiment,omitempty"`
	Comment    string             `json:"comment,omitempty"`
	Tags       []string           `json:"tags,omitempty"`
	Params     map[string]string  `json:"params,omitempty"`
	Step       *int               `json:"step,omitempty"`
	Values     map[string]float64 `json:"values,omitempty"`
	Status     string             `json:"status,omitempty"`
}

// Writer appends events to a single log file.
type Writer struct {
	f   *os.File
	enc *json.Encoder
}

// New opens (or creates) the log file at path for appending.
func New(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log %s: %w", path, err)
	}
	return &Writer{f: f, enc: json.NewEncoder(f)}, nil
}

func (w *Writer) write(e event) error {
	e.Time = time.Now().UTC().Format(time.RFC3339)
	return w.enc.Encode(e)
}

func (w *Writer) Start(_ context.Context, run tracker.Run) error {
	return w.write(event{
		Event:      "start",
		UUID:       run.UUID,
		Experiment: run.Experiment,
		Comment:    run.Comment,
		Tags:       run.Tags,
	})
}

func (w *Writer) Hyperparams(_ context.Context, params map[string]string) error {
	return w.write(event{Event: "hyperparams", Params: params})
}

func (w *Writer) Save(_ context.Context, step int, values map[string]float64) error {
	return w.write(event{Event: "metrics", Step: &step, Values: values})
}

func (w *Writer) Status(_ context.Context, step int, status string) error {
	return w.write(event{Event: "status", Step: &step, Status: status})
}

func (w *Writer) Close() error {
	return w.f.Close()
}
