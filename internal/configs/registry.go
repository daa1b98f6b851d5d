package configs

import (
	"context"
	"log/slog"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/labrig/internal/ctxlog"
)

// Registry is the merged attribute table of one schema lineage: declared
// types, collected values, selectable options and list appends, keyed by
// attribute name. Resolve builds it; afterwards it is read-only, so any
// number of evaluations may share one registry.
type Registry struct {
	schema       *Schema
	names        []string
	types        map[string]TypeRef
	descriptions map[string]string
	values       map[string]cty.Value
	options      map[string]*orderedmap.OrderedMap[string, *Calculator]
	appends      map[string][]*Calculator
	defaulted    map[string]struct{}
}

// Resolve merges the lineage of the instance's schema into a registry and
// fills every still-missing value. Merge passes run in a fixed order:
// attribute declarations (first declaration of a name wins), schema-level
// values (later fragments overwrite, undeclared names imply a declaration),
// calculators (targets must be declared), instance values, then caller
// overrides. Instance values and overrides for undeclared names fail with a
// DeclarationError; invalid names are skipped silently everywhere.
func Resolve(ctx context.Context, instance *Instance, overrides map[string]cty.Value) (*Registry, error) {
	logger := ctxlog.FromContext(ctx)
	lineage := Lineage(instance.Schema())

	r := &Registry{
		schema:       instance.Schema(),
		types:        map[string]TypeRef{},
		descriptions: map[string]string{},
		values:       map[string]cty.Value{},
		options:      map[string]*orderedmap.OrderedMap[string, *Calculator]{},
		appends:      map[string][]*Calculator{},
		defaulted:    map[string]struct{}{},
	}

	for _, s := range lineage {
		for _, d := range s.decls {
			r.declare(logger, d)
		}
	}

	for _, s := range lineage {
		for _, e := range s.values {
			r.assign(logger, e.name, e.value)
		}
	}

	for _, s := range lineage {
		for _, c := range s.calcs {
			if err := r.registerCalculator(logger, c); err != nil {
				return nil, err
			}
		}
	}

	for _, e := range instance.values {
		if err := r.assignDeclared(logger, e.name, e.value, "instance value"); err != nil {
			return nil, err
		}
	}

	overrideNames := make([]string, 0, len(overrides))
	for name := range overrides {
		overrideNames = append(overrideNames, name)
	}
	sort.Strings(overrideNames)
	for _, name := range overrideNames {
		if err := r.assignDeclared(logger, name, overrides[name], "override"); err != nil {
			return nil, err
		}
	}

	if err := r.resolveMissing(logger); err != nil {
		return nil, err
	}

	return r, nil
}

// declare records an attribute declaration. The first declaration of a name
// fixes its type; later ones are ignored.
func (r *Registry) declare(logger *slog.Logger, d Declaration) {
	if !IsValidName(d.Name) {
		logger.Debug("Skipping invalid attribute name in declaration.", "attribute", d.Name)
		return
	}
	if _, declared := r.types[d.Name]; !declared {
		r.types[d.Name] = d.Type
		r.names = append(r.names, d.Name)
	}
	if d.Description != "" {
		if _, described := r.descriptions[d.Name]; !described {
			r.descriptions[d.Name] = d.Description
		}
	}
}

// assign records a schema-level value, overwriting any earlier one. A value
// for a name with no declaration implies one, typed after the value.
func (r *Registry) assign(logger *slog.Logger, name string, v cty.Value) {
	if !IsValidName(name) {
		logger.Debug("Skipping invalid attribute name in value assignment.", "attribute", name)
		return
	}
	if _, declared := r.types[name]; !declared {
		r.types[name] = Type(v.Type())
		r.names = append(r.names, name)
	}
	r.values[name] = v
}

// assignDeclared records an instance value or override. Unlike schema-level
// values these never imply declarations.
func (r *Registry) assignDeclared(logger *slog.Logger, name string, v cty.Value, source string) error {
	if !IsValidName(name) {
		logger.Debug("Skipping invalid attribute name.", "attribute", name, "source", source)
		return nil
	}
	if _, declared := r.types[name]; !declared {
		return &DeclarationError{Attr: name, Source: source}
	}
	r.values[name] = v
	return nil
}

func (r *Registry) registerCalculator(logger *slog.Logger, c *Calculator) error {
	for _, target := range c.Targets {
		if _, declared := r.types[target]; !declared {
			return &DeclarationError{Attr: target, Source: "calculator"}
		}
		if c.Append {
			r.appends[target] = append(r.appends[target], c)
			continue
		}
		table, ok := r.options[target]
		if !ok {
			table = orderedmap.New[string, *Calculator]()
			r.options[target] = table
		}
		if _, replaced := table.Set(c.Option, c); replaced {
			logger.Debug("Replacing option calculator.", "attribute", target, "option", c.Option)
		}
	}
	return nil
}

// Schema returns the schema this registry was resolved from.
func (r *Registry) Schema() *Schema {
	return r.schema
}

// Names lists every known attribute in first-declaration order.
func (r *Registry) Names() []string {
	return r.names
}

// Type returns the declared (or value-implied) type of an attribute.
func (r *Registry) Type(name string) (TypeRef, bool) {
	ref, ok := r.types[name]
	return ref, ok
}

// Description returns the attribute's description, if any declaration
// carried one.
func (r *Registry) Description(name string) string {
	return r.descriptions[name]
}

// Value returns the attribute's resolved value. Attributes with list appends
// carry no value until evaluation.
func (r *Registry) Value(name string) (cty.Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// HasConcreteValue reports whether the attribute carries a value that is set
// and not null. Null stands for absent throughout resolution.
func (r *Registry) HasConcreteValue(name string) bool {
	v, ok := r.values[name]
	return ok && !v.IsNull()
}

// Options returns the attribute's option table in registration order, or nil
// when it has none.
func (r *Registry) Options(name string) *orderedmap.OrderedMap[string, *Calculator] {
	return r.options[name]
}

// Appends returns the attribute's list-append calculators in registration
// order.
func (r *Registry) Appends(name string) []*Calculator {
	return r.appends[name]
}

// Defaulted reports whether the attribute's value was filled in by the
// missing-value pass rather than assigned explicitly.
func (r *Registry) Defaulted(name string) bool {
	_, ok := r.defaulted[name]
	return ok
}
