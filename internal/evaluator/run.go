package evaluator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/labrig/internal/configs"
	"github.com/vk/labrig/internal/ctxlog"
)

// run executes the plan's nodes concurrently and returns an error if any
// attribute fails. It respects the cancellation signal from the provided
// context.
func (p *plan) run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	readyChan := make(chan *node, len(p.nodes))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	roots := p.graph.Roots()
	logger.Debug("Found root attributes.", "count", len(roots))
	for _, name := range roots {
		readyChan <- p.nodes[name]
	}

	p.wg.Add(len(p.nodes))

	workers := p.workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	for i := 0; i < workers; i++ {
		go p.worker(runCtx, readyChan, cancel, i)
	}

	p.wg.Wait()
	close(readyChan)

	var failed []string
	var rootCause error
	for _, name := range p.reg.Names() {
		n := p.nodes[name]
		if n.state.Load() != stateFailed {
			continue
		}
		logger.Error("Attribute evaluation failed.", "attribute", name, "error", n.err)
		// A "skipped" error is a symptom, not a cause.
		if n.err != nil && !strings.HasPrefix(n.err.Error(), "skipped") && !errors.Is(n.err, context.Canceled) {
			failed = append(failed, name)
			if rootCause == nil {
				rootCause = n.err
			}
		}
	}
	if rootCause != nil {
		return fmt.Errorf("evaluation failed for %s: %w", strings.Join(failed, ", "), rootCause)
	}
	return nil
}

// worker is the processing loop of a single concurrent worker.
func (p *plan) worker(ctx context.Context, readyChan chan *node, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)

	for n := range readyChan {
		workerLogger := logger.With("workerID", workerID, "attribute", n.name)

		if ctx.Err() != nil {
			n.skipOnce.Do(func() {
				workerLogger.Warn("Context canceled, skipping attribute.")
				n.state.Store(stateFailed)
				n.err = ctx.Err()
				p.wg.Done()
			})
			continue
		}

		n.state.Store(stateRunning)
		if err := p.runNode(ctx, n); err != nil {
			workerLogger.Error("Attribute evaluation failed.", "error", err)
			n.state.Store(stateFailed)
			n.err = err
			cancel()
			p.skipDependents(ctx, n)
			p.wg.Done()
			continue
		}

		n.state.Store(stateDone)

		dependents, err := p.graph.Dependents(n.name)
		if err == nil {
			for _, id := range dependents {
				dependent := p.nodes[id]
				if dependent.depCount.Add(-1) == 0 {
					workerLogger.Debug("Unlocking dependent attribute.", "dependent", id)
					readyChan <- dependent
				}
			}
		}

		p.wg.Done()
	}
}

// skipDependents recursively marks all downstream attributes as failed.
func (p *plan) skipDependents(ctx context.Context, n *node) {
	logger := ctxlog.FromContext(ctx)
	dependents, err := p.graph.Dependents(n.name)
	if err != nil {
		return
	}
	for _, id := range dependents {
		dependent := p.nodes[id]
		dependent.skipOnce.Do(func() {
			logger.Warn("Skipping attribute due to upstream failure.", "attribute", id, "dependency", n.name)
			dependent.state.Store(stateFailed)
			dependent.err = fmt.Errorf("skipped due to upstream failure of %q", n.name)
			p.wg.Done()
			p.skipDependents(ctx, dependent)
		})
	}
}

// runNode produces the node's final value.
func (p *plan) runNode(ctx context.Context, n *node) error {
	switch n.kind {
	case kindLiteral:
		n.value = p.literals[n.name]
		return nil

	case kindOption:
		value, err := p.computeCalc(ctx, n.calc)
		if err != nil {
			return err
		}
		if len(n.calc.Targets) > 1 {
			value, err = pickTarget(value, n.calc.Targets, n.name)
			if err != nil {
				return err
			}
		}
		converted, err := p.convertToDeclared(n.name, value)
		if err != nil {
			return err
		}
		n.value = converted
		return nil

	case kindAppends:
		elems := make([]cty.Value, 0, len(n.appends))
		for _, c := range n.appends {
			v, err := c.Body.Compute(ctx, p.scopeFor(n.name, c.Body))
			if err != nil {
				return fmt.Errorf("append for %q: %w", n.name, err)
			}
			elems = append(elems, v)
		}
		value := cty.EmptyTupleVal
		if len(elems) > 0 {
			value = cty.TupleVal(elems)
		}
		converted, err := p.convertToDeclared(n.name, value)
		if err != nil {
			return err
		}
		n.value = converted
		return nil
	}

	return fmt.Errorf("attribute %q has an unknown evaluation kind", n.name)
}

// computeCalc runs a calculator body. Multi-target calculators run once per
// pass through their shared result.
func (p *plan) computeCalc(ctx context.Context, calc *configs.Calculator) (cty.Value, error) {
	scopeName := strings.Join(calc.Targets, ", ")
	shared, ok := p.shared[calc]
	if !ok {
		return calc.Body.Compute(ctx, p.scopeFor(scopeName, calc.Body))
	}
	shared.once.Do(func() {
		shared.value, shared.err = calc.Body.Compute(ctx, p.scopeFor(scopeName, calc.Body))
	})
	return shared.value, shared.err
}

// pickTarget extracts one attribute's element from a multi-target result.
// The body must return one element per target, in target order.
func pickTarget(value cty.Value, targets []string, name string) (cty.Value, error) {
	if !value.Type().IsTupleType() && !value.Type().IsListType() {
		return cty.NilVal, fmt.Errorf("calculator for %s returned %s, want one element per target",
			strings.Join(targets, ", "), value.Type().FriendlyName())
	}
	if value.LengthInt() != len(targets) {
		return cty.NilVal, fmt.Errorf("calculator for %s returned %d elements, want %d",
			strings.Join(targets, ", "), value.LengthInt(), len(targets))
	}
	for i, target := range targets {
		if target == name {
			return value.Index(cty.NumberIntVal(int64(i))), nil
		}
	}
	return cty.NilVal, fmt.Errorf("attribute %q is not a target of its calculator", name)
}

// scopeFor assembles a body's read surface: every literal plus the body's
// declared dependencies.
func (p *plan) scopeFor(attr string, body configs.Body) *configs.Scope {
	deps := map[string]cty.Value{}
	for _, dep := range body.Dependencies() {
		if n, ok := p.nodes[dep]; ok {
			deps[dep] = n.value
		}
	}
	return configs.NewScope(attr, p.literals, deps, p.nested)
}
