// Package console renders run events for a human watching the terminal.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/vk/labrig/internal/tracker"
)

// Writer prints run events to a terminal stream.
type Writer struct {
	out io.Writer
}

// New returns a writer printing to stdout.
func New() *Writer {
	return &Writer{out: os.Stdout}
}

// NewWithOutput returns a writer printing to out.
func NewWithOutput(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) Start(_ context.Context, run tracker.Run) error {
	bold := color.New(color.Bold)
	fmt.Fprintf(w.out, "%s: %s\n", bold.Sprint(run.Experiment), color.HiBlackString(run.UUID))
	if run.Comment != "" {
		fmt.Fprintf(w.out, "\t%s\n", color.CyanString(run.Comment))
	}
	if len(run.Tags) > 0 {
		fmt.Fprintf(w.out, "\t%s\n", color.HiBlackString(strings.Join(run.Tags, ", ")))
	}
	return nil
}

func (w *Writer) Hyperparams(_ context.Context, params map[string]string) error {
	names := make([]string, 0, len(params))
	width := 0
	for name := range params {
		names = append(names, name)
		if len(name) > width {
			width = len(name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(w.out, "\t%-*s  %s\n", width, name, color.YellowString(params[name]))
	}
	return nil
}

func (w *Writer) Save(_ context.Context, step int, values map[string]float64) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%s", name, color.CyanString("%g", values[name])))
	}
	fmt.Fprintf(w.out, "%10d  %s\n", step, strings.Join(parts, "  "))
	return nil
}

func (w *Writer) Status(_ context.Context, step int, status string) error {
	fmt.Fprintf(w.out, "%10d  %s\n", step, color.GreenString(status))
	return nil
}

func (w *Writer) Close() error { return nil }
