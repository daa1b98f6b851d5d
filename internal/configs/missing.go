package configs

import (
	"context"
	"log/slog"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"github.com/zclconf/go-cty/cty"
)

// resolveMissing fills a value for every attribute that still has none, in
// first-declaration order. Attributes with list appends stay unresolved
// until evaluation concatenates their results. Attributes with options
// default to the first registered option. Attributes typed as a nested
// schema synthesize a self-named option whose body evaluates that schema.
// Anything else is unresolvable.
func (r *Registry) resolveMissing(logger *slog.Logger) error {
	for _, name := range r.names {
		if r.HasConcreteValue(name) {
			continue
		}
		if _, ok := r.appends[name]; ok {
			continue
		}
		if table, ok := r.options[name]; ok {
			first := table.Oldest()
			r.values[name] = cty.StringVal(first.Key)
			r.defaulted[name] = struct{}{}
			logger.Debug("Defaulting attribute to its first option.", "attribute", name, "option", first.Key)
			continue
		}
		if ref := r.types[name]; ref.IsSchema() {
			r.synthesizeNestedOption(name, ref.Schema())
			r.defaulted[name] = struct{}{}
			logger.Debug("Synthesizing option from nested schema.", "attribute", name, "config", ref.Schema().Name())
			continue
		}
		return &UnresolvableError{Attr: name}
	}
	return nil
}

func (r *Registry) synthesizeNestedOption(name string, nested *Schema) {
	table := orderedmap.New[string, *Calculator]()
	table.Set(name, &Calculator{
		Targets: []string{name},
		Option:  name,
		Body:    &NestedBody{Schema: nested},
	})
	r.options[name] = table
	r.values[name] = cty.StringVal(name)
}

// NestedBody evaluates a nested schema into an object value. It backs the
// options synthesized for schema-typed attributes.
type NestedBody struct {
	Schema *Schema
}

func (b *NestedBody) Dependencies() []string {
	return nil
}

func (b *NestedBody) Compute(ctx context.Context, scope *Scope) (cty.Value, error) {
	return scope.EvaluateNested(ctx, b.Schema)
}
