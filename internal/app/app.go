package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/labrig/internal/configs"
	"github.com/vk/labrig/internal/ctxlog"
	"github.com/vk/labrig/internal/evaluator"
	"github.com/vk/labrig/internal/model"
	"github.com/vk/labrig/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	model    *model.Model
	schemas  map[string]*configs.Schema
	results  map[string]*evaluator.Result
}

// NewApp is the constructor for the main application. It loads the declared
// model, registers calculator modules, and assembles a schema per config
// block. Startup defects are unrecoverable, so they panic; the entrypoint
// recovers and reports them.
func NewApp(outW io.Writer, config *Config, loader model.Loader, modules ...registry.Module) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	m, err := loader.Load(ctx, config.Paths...)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Declarations loaded into unified model.",
		"configs", len(m.Configs),
		"experiments", len(m.Experiments))

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	if err := reg.ValidateModel(ctx, m); err != nil {
		panic(err)
	}
	logger.Debug("Model validation passed.")

	schemas, err := reg.BuildSchemas(ctx, m)
	if err != nil {
		panic(err)
	}
	logger.Debug("Schemas assembled.", "count", len(schemas))

	return &App{
		outW:     outW,
		logger:   logger,
		config:   config,
		registry: reg,
		model:    m,
		schemas:  schemas,
		results:  map[string]*evaluator.Result{},
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Schemas returns the assembled schema for each declared config block.
func (a *App) Schemas() map[string]*configs.Schema {
	return a.schemas
}

// Results returns the evaluation result of every experiment run so far,
// keyed by experiment name.
func (a *App) Results() map[string]*evaluator.Result {
	return a.results
}
