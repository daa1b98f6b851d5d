package configs

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Schema is one composable fragment of a configuration type: ordered
// attribute declarations, schema-level values and calculators. Schemas
// compose through explicit base lists; the base graph must be acyclic.
type Schema struct {
	name   string
	bases  []*Schema
	decls  []Declaration
	values []valueEntry
	calcs  []*Calculator
}

// Declaration is a single attribute declaration carried by a schema.
type Declaration struct {
	Name        string
	Type        TypeRef
	Description string
}

type valueEntry struct {
	name  string
	value cty.Value
}

// SchemaOption configures New.
type SchemaOption func(*Schema)

// WithBases appends the base schemas this schema extends, in order.
func WithBases(bases ...*Schema) SchemaOption {
	return func(s *Schema) {
		for _, b := range bases {
			if b == nil {
				panic(fmt.Sprintf("configs: schema %q extends a nil base", s.name))
			}
			s.bases = append(s.bases, b)
		}
	}
}

// New creates an empty schema fragment.
func New(name string, opts ...SchemaOption) *Schema {
	s := &Schema{name: name}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the schema's declared name.
func (s *Schema) Name() string {
	return s.name
}

// Bases returns the base schemas in declaration order.
func (s *Schema) Bases() []*Schema {
	return s.bases
}

// Declarations returns this fragment's own attribute declarations, in order.
// Declarations carried by bases are not included.
func (s *Schema) Declarations() []Declaration {
	return s.decls
}

// LocalNames returns the attribute names this fragment itself declares or
// assigns, in first-appearance order.
func (s *Schema) LocalNames() []string {
	var names []string
	seen := map[string]struct{}{}
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	for _, d := range s.decls {
		add(d.Name)
	}
	for _, e := range s.values {
		add(e.name)
	}
	return names
}

// Calculators returns this fragment's own calculators in registration order.
func (s *Schema) Calculators() []*Calculator {
	return s.calcs
}

// Attr declares an attribute with its type. Declaring the same name twice in
// one fragment keeps both declarations; resolution treats the first one as
// authoritative.
func (s *Schema) Attr(name string, ref TypeRef) *Schema {
	s.decls = append(s.decls, Declaration{Name: name, Type: ref})
	return s
}

// Describe attaches a description to an already declared attribute.
func (s *Schema) Describe(name, description string) *Schema {
	for i := range s.decls {
		if s.decls[i].Name == name {
			s.decls[i].Description = description
			return s
		}
	}
	panic(fmt.Sprintf("configs: schema %q describes undeclared attribute %q", s.name, name))
}

// Default assigns a schema-level value. Assigning the same name again
// replaces the value and keeps the original position.
func (s *Schema) Default(name string, v cty.Value) *Schema {
	for i := range s.values {
		if s.values[i].name == name {
			s.values[i].value = v
			return s
		}
	}
	s.values = append(s.values, valueEntry{name: name, value: v})
	return s
}

// Option registers a named option calculator for a single attribute.
func (s *Schema) Option(attr, option string, body Body) *Schema {
	return s.Calc(&Calculator{Targets: []string{attr}, Option: option, Body: body})
}

// Append registers a list-append calculator for a single attribute.
func (s *Schema) Append(attr string, body Body) *Schema {
	return s.Calc(&Calculator{Targets: []string{attr}, Append: true, Body: body})
}

// Calc registers a calculator. Multi-target calculators register through
// here directly.
func (s *Schema) Calc(c *Calculator) *Schema {
	if len(c.Targets) == 0 {
		panic(fmt.Sprintf("configs: schema %q registers a calculator with no targets", s.name))
	}
	if !c.Append && c.Option == "" {
		panic(fmt.Sprintf("configs: schema %q registers an option calculator for %q with no option name", s.name, c.Targets[0]))
	}
	if c.Body == nil {
		panic(fmt.Sprintf("configs: schema %q registers a calculator for %q with no body", s.name, c.Targets[0]))
	}
	s.calcs = append(s.calcs, c)
	return s
}
