package app

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/fatih/color"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/labrig/internal/configs"
	"github.com/vk/labrig/internal/ctxlog"
	"github.com/vk/labrig/internal/evaluator"
	"github.com/vk/labrig/internal/experiment"
	"github.com/vk/labrig/internal/fsutil"
	"github.com/vk/labrig/internal/model"
	"github.com/vk/labrig/internal/tracker"
	"github.com/vk/labrig/internal/tracker/writers/console"
	"github.com/vk/labrig/internal/tracker/writers/file"
	"github.com/vk/labrig/internal/tracker/writers/socketio"
	"github.com/vk/labrig/internal/tracker/writers/sqlite"
)

// defaultWriters is the tracker assembly used when an experiment block does
// not name any.
var defaultWriters = []string{"console", "file", "sqlite"}

// Run resolves and evaluates every selected experiment, recording a run for
// each unless dry-run is set. Experiments run in name order; the first
// failure stops the pass.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	overrides, err := parseOverrides(a.config.Overrides)
	if err != nil {
		return err
	}

	names, err := a.selectExperiments()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		a.logger.Warn("No experiments defined, nothing to run.")
		return nil
	}

	for _, name := range names {
		if err := a.runExperiment(ctx, name, a.model.Experiments[name], overrides); err != nil {
			return fmt.Errorf("experiment %q: %w", name, err)
		}
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) selectExperiments() ([]string, error) {
	if a.config.Experiment != "" {
		if _, ok := a.model.Experiments[a.config.Experiment]; !ok {
			return nil, fmt.Errorf("experiment %q is not defined", a.config.Experiment)
		}
		return []string{a.config.Experiment}, nil
	}
	names := make([]string, 0, len(a.model.Experiments))
	for name := range a.model.Experiments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (a *App) runExperiment(ctx context.Context, name string, def *model.ExperimentDef, overrides map[string]cty.Value) error {
	schema, ok := a.schemas[def.Configs]
	if !ok {
		return fmt.Errorf("references unknown config %q", def.Configs)
	}

	inst := configs.NewInstance(schema)
	setKeys := make([]string, 0, len(def.Set))
	for attr := range def.Set {
		setKeys = append(setKeys, attr)
	}
	sort.Strings(setKeys)
	for _, attr := range setKeys {
		inst.Set(attr, def.Set[attr])
	}

	reg, err := configs.Resolve(ctx, inst, overrides)
	if err != nil {
		return err
	}

	order := def.Order
	if len(a.config.Order) > 0 {
		order = a.config.Order
	}
	res, err := evaluator.New(evaluator.WithWorkers(a.config.WorkerCount)).Evaluate(ctx, reg, order)
	if err != nil {
		return err
	}
	a.results[name] = res

	if a.config.DryRun {
		fmt.Fprintf(a.outW, "%s\n%s", color.New(color.Bold).Sprint(name), res.Table())
		return nil
	}

	opts := []experiment.Option{
		experiment.WithComment(def.Comment),
		experiment.WithRunsDir(a.config.RunsDir),
		experiment.WithRepoDir(a.config.RepoDir),
		experiment.WithCheckRepoDirty(a.config.CheckRepoDirty),
	}
	if len(def.Tags) > 0 {
		opts = append(opts, experiment.WithTags(def.Tags...))
	}
	exp := experiment.New(name, opts...)

	// Writers that record into the run directory need it to exist before
	// they open their files.
	if err := fsutil.EnsureDir(exp.Run().Dir()); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}
	if err := exp.SetTracker(a.buildTracker(ctx, exp.Run(), def)); err != nil {
		return err
	}

	if _, err := exp.Start(ctx, res); err != nil {
		return err
	}
	fmt.Fprint(a.outW, res.Table())

	return exp.Finish(ctx, exp.Run().StartStep, "completed")
}

// buildTracker assembles the tracker writers an experiment asked for. A
// writer that fails to construct is skipped with a warning so one bad sink
// does not abort the run.
func (a *App) buildTracker(ctx context.Context, run *experiment.Run, def *model.ExperimentDef) *tracker.Tracker {
	log := ctxlog.FromContext(ctx)

	names := def.Writers
	if len(names) == 0 {
		names = defaultWriters
	}
	if def.LiveURL != "" && !slices.Contains(names, "socketio") {
		names = append(slices.Clone(names), "socketio")
	}

	tr := tracker.New()
	for _, name := range names {
		switch name {
		case "console":
			tr.AddWriter(console.NewWithOutput(a.outW))
		case "file":
			w, err := file.New(run.EventsPath())
			if err != nil {
				log.Warn("Skipping tracker writer.", "writer", name, "error", err)
				continue
			}
			tr.AddWriter(w)
		case "sqlite":
			w, err := sqlite.New(run.DatabasePath())
			if err != nil {
				log.Warn("Skipping tracker writer.", "writer", name, "error", err)
				continue
			}
			tr.AddWriter(w)
		case "socketio":
			if def.LiveURL == "" {
				log.Warn("Skipping tracker writer.", "writer", name, "error", "live_url is not set")
				continue
			}
			w, err := socketio.New(def.LiveURL)
			if err != nil {
				log.Warn("Skipping tracker writer.", "writer", name, "error", err)
				continue
			}
			tr.AddWriter(w)
		default:
			log.Warn("Unknown tracker writer.", "writer", name)
		}
	}
	return tr
}
