package evaluator

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/labrig/internal/configs"
	"github.com/vk/labrig/internal/ctxlog"
)

// DefaultWorkers is the worker pool size used when the caller sets none.
const DefaultWorkers = 4

// Evaluator computes final values for every attribute of a resolved
// registry. An evaluator is reusable; each Evaluate call plans and runs a
// fresh pass.
type Evaluator struct {
	workers int
	nesting []*configs.Schema
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithWorkers sets the worker pool size for evaluation passes.
func WithWorkers(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.workers = n
		}
	}
}

// New creates an evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{workers: DefaultWorkers}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs every attribute of the registry to a final value. The order
// plan is a sequence of groups: every member of one group must finish before
// any member of the next group starts, while members inside a group order
// among themselves only through their declared dependencies.
func (e *Evaluator) Evaluate(ctx context.Context, reg *configs.Registry, order [][]string) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	for _, s := range e.nesting {
		if s == reg.Schema() {
			return nil, fmt.Errorf("nested configuration cycle detected involving %q", s.Name())
		}
	}

	p, err := newPlan(e, reg, order)
	if err != nil {
		return nil, err
	}

	logger.Debug("Starting evaluation pass.",
		"schema", reg.Schema().Name(),
		"attributes", len(p.nodes),
		"workers", e.workers,
	)
	if err := p.run(ctx); err != nil {
		return nil, err
	}
	return p.result(), nil
}

// nestedEvaluator builds the callback scopes use to evaluate schema-typed
// attributes. The nested schema resolves with no instance values or
// overrides and evaluates into an object value; re-entering a schema that is
// already being evaluated is a cycle.
func (e *Evaluator) nestedEvaluator(reg *configs.Registry) configs.NestedEvaluator {
	return func(ctx context.Context, schema *configs.Schema) (cty.Value, error) {
		nested := &Evaluator{
			workers: e.workers,
			nesting: append(append([]*configs.Schema{}, e.nesting...), reg.Schema()),
		}
		nestedReg, err := configs.Resolve(ctx, configs.NewInstance(schema), nil)
		if err != nil {
			return cty.NilVal, fmt.Errorf("resolving nested configuration %q: %w", schema.Name(), err)
		}
		res, err := nested.Evaluate(ctx, nestedReg, nil)
		if err != nil {
			return cty.NilVal, fmt.Errorf("evaluating nested configuration %q: %w", schema.Name(), err)
		}
		return res.Object(), nil
	}
}
