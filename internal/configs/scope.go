package configs

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// NestedEvaluator resolves and evaluates a nested schema into an object
// value. The core never evaluates anything itself; the evaluator package
// injects an implementation when it builds scopes.
type NestedEvaluator func(ctx context.Context, schema *Schema) (cty.Value, error)

// Scope is the read surface handed to a calculator body. It exposes literal
// attribute values plus the values of the body's declared dependencies.
// Reading anything else is an error naming the missing dependency.
type Scope struct {
	attr     string
	literals map[string]cty.Value
	deps     map[string]cty.Value
	nested   NestedEvaluator
}

// NewScope builds the scope for computing attr. literals holds every
// attribute whose value needs no computation; deps holds the materialized
// values of the body's declared dependencies.
func NewScope(attr string, literals, deps map[string]cty.Value, nested NestedEvaluator) *Scope {
	return &Scope{attr: attr, literals: literals, deps: deps, nested: nested}
}

// Get returns the value of a declared dependency or literal attribute.
func (s *Scope) Get(name string) (cty.Value, error) {
	if v, ok := s.deps[name]; ok {
		return v, nil
	}
	if v, ok := s.literals[name]; ok {
		return v, nil
	}
	return cty.NilVal, fmt.Errorf("computing %q: attribute %q is not a declared dependency", s.attr, name)
}

// All returns every readable attribute value. Expression-based bodies use it
// to assemble their evaluation context.
func (s *Scope) All() map[string]cty.Value {
	out := make(map[string]cty.Value, len(s.literals)+len(s.deps))
	for k, v := range s.literals {
		out[k] = v
	}
	for k, v := range s.deps {
		out[k] = v
	}
	return out
}

// EvaluateNested runs a nested schema through the injected evaluator.
func (s *Scope) EvaluateNested(ctx context.Context, schema *Schema) (cty.Value, error) {
	if s.nested == nil {
		return cty.NilVal, fmt.Errorf("computing %q: no nested evaluator is available in this scope", s.attr)
	}
	return s.nested(ctx, schema)
}
