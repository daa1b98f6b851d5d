// This file contains the logic for translating HCL block structs (from
// schema.go) into the format-agnostic declaration model defined in the
// model package.

package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/labrig/internal/model"
)

// exprDefined checks whether an HCL expression was actually present in the
// source. The decoder populates optional expression fields with non-nil,
// zero-width expression objects, so a plain nil check is insufficient.
func exprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	rng := expr.Range()
	return rng.End.Byte > rng.Start.Byte
}

// calculatorSource enforces that exactly one of value and handler is set.
func calculatorSource(hasExpr bool, handler, subject string) error {
	switch {
	case hasExpr && handler != "":
		return fmt.Errorf("%s sets both value and handler", subject)
	case !hasExpr && handler == "":
		return fmt.Errorf("%s needs either value or handler", subject)
	}
	return nil
}

// translateConfig converts an HCL config block into the agnostic model.
func (l *Loader) translateConfig(ctx context.Context, cb *configBlock) (*model.ConfigDef, error) {
	def := &model.ConfigDef{
		Name:    cb.Name,
		Extends: cb.Extends,
	}

	for _, ab := range cb.Attributes {
		attr, err := l.translateAttribute(ctx, cb.Name, ab)
		if err != nil {
			return nil, err
		}
		def.Attributes = append(def.Attributes, attr)
	}

	for _, ob := range cb.Options {
		hasExpr := exprDefined(ob.Value)
		subject := fmt.Sprintf("option %q of config %q", ob.Name, cb.Name)
		if err := calculatorSource(hasExpr, ob.Handler, subject); err != nil {
			return nil, err
		}
		opt := &model.OptionDef{
			Name:      ob.Name,
			Attribute: ob.Attribute,
			Handler:   ob.Handler,
			After:     ob.After,
		}
		if hasExpr {
			opt.Expr = ob.Value
		}
		def.Options = append(def.Options, opt)
	}

	for _, pb := range cb.Appends {
		hasExpr := exprDefined(pb.Value)
		subject := fmt.Sprintf("append for %q in config %q", pb.Attribute, cb.Name)
		if err := calculatorSource(hasExpr, pb.Handler, subject); err != nil {
			return nil, err
		}
		app := &model.AppendDef{
			Attribute: pb.Attribute,
			Handler:   pb.Handler,
			After:     pb.After,
		}
		if hasExpr {
			app.Expr = pb.Value
		}
		def.Appends = append(def.Appends, app)
	}

	return def, nil
}

// translateAttribute converts a single attribute block, parsing its type
// expression and evaluating its default at load time. Defaults are literals;
// computed values belong in options.
func (l *Loader) translateAttribute(ctx context.Context, configName string, ab *attributeBlock) (*model.AttributeDef, error) {
	attr := &model.AttributeDef{
		Name:        ab.Name,
		Nested:      ab.Config,
		Description: ab.Description,
		Type:        cty.DynamicPseudoType,
	}

	hasType := exprDefined(ab.Type)
	if hasType && ab.Config != "" {
		return nil, fmt.Errorf("attribute %q of config %q declares both a type and a nested config", ab.Name, configName)
	}
	if hasType {
		parsed, err := typeExprToCtyType(ctx, ab.Type)
		if err != nil {
			return nil, fmt.Errorf("attribute %q of config %q: %w", ab.Name, configName, err)
		}
		attr.Type = parsed
	}

	if exprDefined(ab.Default) {
		val, diags := ab.Default.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid default value for attribute %q of config %q: %w", ab.Name, configName, diags)
		}
		if !val.IsNull() {
			attr.Default = &val
		}
	}

	return attr, nil
}

// translateExperiment converts an HCL experiment block into the agnostic model.
func (l *Loader) translateExperiment(ctx context.Context, eb *experimentBlock) (*model.ExperimentDef, error) {
	def := &model.ExperimentDef{
		Name:    eb.Name,
		Configs: eb.Configs,
		Comment: eb.Comment,
		Tags:    eb.Tags,
		Writers: eb.Writers,
		LiveURL: eb.LiveURL,
	}

	if eb.Set != nil && eb.Set.Body != nil {
		attrs, diags := eb.Set.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid set block in experiment %q: %w", eb.Name, diags)
		}
		def.Set = make(map[string]cty.Value, len(attrs))
		for name, attr := range attrs {
			val, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("invalid value for %q in set block of experiment %q: %w", name, eb.Name, diags)
			}
			def.Set[name] = val
		}
	}

	if exprDefined(eb.Order) {
		order, err := translateOrder(eb.Order)
		if err != nil {
			return nil, fmt.Errorf("invalid order in experiment %q: %w", eb.Name, err)
		}
		def.Order = order
	}

	return def, nil
}

// translateOrder evaluates an order expression into groups. A bare string is
// a group of one; a nested tuple is a group whose members carry no mutual
// ordering.
func translateOrder(expr hcl.Expression) ([][]string, error) {
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if v.IsNull() || !(v.Type().IsTupleType() || v.Type().IsListType()) {
		return nil, fmt.Errorf("order must be a list of attribute names or groups of names")
	}

	var groups [][]string
	it := v.ElementIterator()
	for it.Next() {
		_, elem := it.Element()
		switch {
		case elem.IsNull():
			return nil, fmt.Errorf("order entries must not be null")
		case elem.Type().Equals(cty.String):
			groups = append(groups, []string{elem.AsString()})
		case elem.Type().IsTupleType() || elem.Type().IsListType():
			var group []string
			inner := elem.ElementIterator()
			for inner.Next() {
				_, member := inner.Element()
				if member.IsNull() || !member.Type().Equals(cty.String) {
					return nil, fmt.Errorf("order group members must be attribute names")
				}
				group = append(group, member.AsString())
			}
			groups = append(groups, group)
		default:
			return nil, fmt.Errorf("order entries must be attribute names or groups of names")
		}
	}
	return groups, nil
}
