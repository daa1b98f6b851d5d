package evaluator

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/labrig/internal/configs"
	"github.com/vk/labrig/internal/dag"
)

type attrKind int

const (
	kindLiteral attrKind = iota
	kindOption
	kindAppends
)

const (
	statePending int32 = iota
	stateRunning
	stateDone
	stateFailed
)

// node is the runtime state of one attribute during an evaluation pass.
type node struct {
	name       string
	kind       attrKind
	calc       *configs.Calculator
	appends    []*configs.Calculator
	provenance string

	state    atomic.Int32
	depCount atomic.Int32
	skipOnce sync.Once
	err      error
	value    cty.Value
}

// sharedResult memoizes a multi-target calculator body so it runs once per
// pass no matter how many targets read from it.
type sharedResult struct {
	once  sync.Once
	value cty.Value
	err   error
}

// plan is one evaluation pass over one registry: a runtime node per
// attribute, the dependency graph ordering them, and the literal values
// readable from every scope.
type plan struct {
	reg      *configs.Registry
	workers  int
	nodes    map[string]*node
	graph    *dag.Graph
	literals map[string]cty.Value
	shared   map[*configs.Calculator]*sharedResult
	nested   configs.NestedEvaluator
	wg       sync.WaitGroup
}

func newPlan(e *Evaluator, reg *configs.Registry, order [][]string) (*plan, error) {
	p := &plan{
		reg:      reg,
		workers:  e.workers,
		nodes:    map[string]*node{},
		graph:    dag.New(),
		literals: map[string]cty.Value{},
		shared:   map[*configs.Calculator]*sharedResult{},
	}
	p.nested = e.nestedEvaluator(reg)

	for _, name := range reg.Names() {
		n, err := p.classify(name)
		if err != nil {
			return nil, err
		}
		p.nodes[name] = n
		p.graph.AddNode(name)
		if n.kind == kindOption && len(n.calc.Targets) > 1 {
			if _, ok := p.shared[n.calc]; !ok {
				p.shared[n.calc] = &sharedResult{}
			}
		}
	}

	// Literal values convert up front so every scope can read them without a
	// graph edge.
	for _, name := range reg.Names() {
		if p.nodes[name].kind != kindLiteral {
			continue
		}
		v, _ := reg.Value(name)
		converted, err := p.convertToDeclared(name, v)
		if err != nil {
			return nil, err
		}
		p.literals[name] = converted
	}

	if err := p.addDependencyEdges(); err != nil {
		return nil, err
	}
	if err := p.addOrderEdges(order); err != nil {
		return nil, err
	}
	if err := p.graph.DetectCycles(); err != nil {
		return nil, err
	}

	for _, name := range reg.Names() {
		deps, err := p.graph.Dependencies(name)
		if err != nil {
			return nil, err
		}
		p.nodes[name].depCount.Store(int32(len(deps)))
	}

	return p, nil
}

// classify decides how one attribute's final value comes to be: an explicit
// value names a registered option or stands as a literal; attributes without
// a value concatenate their list appends.
func (p *plan) classify(name string) (*node, error) {
	n := &node{name: name}

	if p.reg.HasConcreteValue(name) {
		v, _ := p.reg.Value(name)
		if v.Type() == cty.String && v.IsKnown() {
			if table := p.reg.Options(name); table != nil {
				if calc, ok := table.Get(v.AsString()); ok {
					n.kind = kindOption
					n.calc = calc
					n.provenance = "option:" + v.AsString()
					if p.reg.Defaulted(name) {
						n.provenance = "default:" + v.AsString()
						if _, isNested := calc.Body.(*configs.NestedBody); isNested {
							n.provenance = "nested"
						}
					}
					return n, nil
				}
			}
		}
		n.kind = kindLiteral
		n.provenance = "literal"
		return n, nil
	}

	if appends := p.reg.Appends(name); len(appends) > 0 {
		n.kind = kindAppends
		n.appends = appends
		n.provenance = "appends"
		return n, nil
	}

	return nil, &configs.UnresolvableError{Attr: name}
}

func (p *plan) addDependencyEdges() error {
	for _, name := range p.reg.Names() {
		n := p.nodes[name]
		var bodies []configs.Body
		switch n.kind {
		case kindOption:
			bodies = append(bodies, n.calc.Body)
		case kindAppends:
			for _, c := range n.appends {
				bodies = append(bodies, c.Body)
			}
		}
		for _, body := range bodies {
			for _, dep := range body.Dependencies() {
				if _, known := p.nodes[dep]; !known {
					return fmt.Errorf("attribute %q depends on %q, which is not a known attribute", name, dep)
				}
				if err := p.graph.AddEdge(dep, name); err != nil {
					return fmt.Errorf("attribute %q: %w", name, err)
				}
			}
		}
	}
	return nil
}

// addOrderEdges wires an explicit run order: an edge from every member of a
// group to every member of the next group.
func (p *plan) addOrderEdges(order [][]string) error {
	for _, group := range order {
		for _, name := range group {
			if _, known := p.nodes[name]; !known {
				return fmt.Errorf("run order names %q, which is not a known attribute", name)
			}
		}
	}
	for i := 1; i < len(order); i++ {
		for _, from := range order[i-1] {
			for _, to := range order[i] {
				if from == to {
					continue
				}
				if err := p.graph.AddEdge(from, to); err != nil {
					return fmt.Errorf("run order: %w", err)
				}
			}
		}
	}
	return nil
}

// convertToDeclared converts a value to the attribute's declared type.
// Dynamic and schema-typed declarations keep the value as computed.
func (p *plan) convertToDeclared(name string, v cty.Value) (cty.Value, error) {
	ref, ok := p.reg.Type(name)
	if !ok || ref.IsSchema() {
		return v, nil
	}
	ty := ref.CtyType()
	if ty == cty.NilType || ty == cty.DynamicPseudoType {
		return v, nil
	}
	converted, err := convert.Convert(v, ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("attribute %q: cannot convert %s to declared type %s: %w",
			name, v.Type().FriendlyName(), ty.FriendlyName(), err)
	}
	return converted, nil
}

func (p *plan) result() *Result {
	entries := make([]Entry, 0, len(p.reg.Names()))
	for _, name := range p.reg.Names() {
		n := p.nodes[name]
		ref, _ := p.reg.Type(name)
		entries = append(entries, Entry{
			Name:        name,
			Type:        ref.FriendlyName(),
			Value:       n.value,
			Provenance:  n.provenance,
			Description: p.reg.Description(name),
		})
	}
	return NewResult(entries)
}
