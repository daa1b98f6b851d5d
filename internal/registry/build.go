package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/labrig/internal/configs"
	"github.com/vk/labrig/internal/ctxlog"
	"github.com/vk/labrig/internal/hcl_adapter"
	"github.com/vk/labrig/internal/model"
)

// BuildSchemas assembles every config in the model into a schema fragment,
// resolving extends and nested references and binding calculator bodies.
// Reference cycles among configs are an error.
func (r *Registry) BuildSchemas(ctx context.Context, m *model.Model) (map[string]*configs.Schema, error) {
	logger := ctxlog.FromContext(ctx)

	b := &schemaBuilder{
		reg:      r,
		model:    m,
		built:    make(map[string]*configs.Schema),
		visiting: make(map[string]bool),
	}

	names := make([]string, 0, len(m.Configs))
	for name := range m.Configs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := b.build(name); err != nil {
			return nil, err
		}
	}

	logger.Debug("Schema assembly complete.", "configs", len(b.built))
	return b.built, nil
}

type schemaBuilder struct {
	reg      *Registry
	model    *model.Model
	built    map[string]*configs.Schema
	visiting map[string]bool
	stack    []string
}

func (b *schemaBuilder) build(name string) (*configs.Schema, error) {
	if s, ok := b.built[name]; ok {
		return s, nil
	}
	if b.visiting[name] {
		return nil, fmt.Errorf("config reference cycle detected: %s -> %s", strings.Join(b.stack, " -> "), name)
	}
	def, ok := b.model.Configs[name]
	if !ok {
		return nil, fmt.Errorf("unknown config %q", name)
	}

	b.visiting[name] = true
	b.stack = append(b.stack, name)
	defer func() {
		delete(b.visiting, name)
		b.stack = b.stack[:len(b.stack)-1]
	}()

	bases := make([]*configs.Schema, 0, len(def.Extends))
	for _, ext := range def.Extends {
		if _, ok := b.model.Configs[ext]; !ok {
			return nil, fmt.Errorf("config %q extends unknown config %q", name, ext)
		}
		base, err := b.build(ext)
		if err != nil {
			return nil, err
		}
		bases = append(bases, base)
	}

	s := configs.New(name, configs.WithBases(bases...))

	for _, attr := range def.Attributes {
		ref := configs.Type(attr.Type)
		if attr.Nested != "" {
			if _, ok := b.model.Configs[attr.Nested]; !ok {
				return nil, fmt.Errorf("attribute %q of config %q references unknown config %q", attr.Name, name, attr.Nested)
			}
			nested, err := b.build(attr.Nested)
			if err != nil {
				return nil, err
			}
			ref = configs.Nested(nested)
		}
		s.Attr(attr.Name, ref)
		if attr.Description != "" {
			s.Describe(attr.Name, attr.Description)
		}
		if attr.Default != nil {
			s.Default(attr.Name, *attr.Default)
		}
	}

	for _, opt := range def.Options {
		body, err := b.reg.bodyFor(opt.Expr, opt.Handler, opt.After)
		if err != nil {
			return nil, fmt.Errorf("option %q of config %q: %w", opt.Name, name, err)
		}
		s.Option(opt.Attribute, opt.Name, body)
	}
	for _, app := range def.Appends {
		body, err := b.reg.bodyFor(app.Expr, app.Handler, app.After)
		if err != nil {
			return nil, fmt.Errorf("append for %q in config %q: %w", app.Attribute, name, err)
		}
		s.Append(app.Attribute, body)
	}

	b.built[name] = s
	return s, nil
}

// bodyFor binds one calculator declaration to its body: a registered Go
// handler or an inline expression.
func (r *Registry) bodyFor(expr hcl.Expression, handler string, after []string) (configs.Body, error) {
	if handler != "" {
		body, ok := r.handlers[handler]
		if !ok {
			return nil, fmt.Errorf("handler %q is not registered", handler)
		}
		if len(after) > 0 {
			return &afterBody{body: body, after: after}, nil
		}
		return body, nil
	}
	if expr == nil {
		return nil, fmt.Errorf("declares neither value nor handler")
	}
	return &hcl_adapter.ExprBody{Expr: expr, After: after}, nil
}

// afterBody widens a handler body's dependency set with the explicit `after`
// entries from the manifest.
type afterBody struct {
	body  configs.Body
	after []string
}

func (b *afterBody) Dependencies() []string {
	var deps []string
	seen := make(map[string]struct{})
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		deps = append(deps, name)
	}
	for _, name := range b.body.Dependencies() {
		add(name)
	}
	for _, name := range b.after {
		add(name)
	}
	return deps
}

func (b *afterBody) Compute(ctx context.Context, scope *configs.Scope) (cty.Value, error) {
	return b.body.Compute(ctx, scope)
}
