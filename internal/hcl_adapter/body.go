package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/labrig/internal/configs"
)

// ExprBody is a calculator body backed by an inline HCL expression. Its
// dependencies are the expression's variable references plus any explicit
// `after` entries.
type ExprBody struct {
	Expr  hcl.Expression
	After []string
}

// Dependencies returns the attribute names the expression reads, in
// first-reference order.
func (b *ExprBody) Dependencies() []string {
	var deps []string
	seen := make(map[string]struct{})
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		deps = append(deps, name)
	}

	for _, tr := range b.Expr.Variables() {
		add(tr.RootName())
	}
	for _, name := range b.After {
		add(name)
	}
	return deps
}

// Compute evaluates the expression against the attribute scope.
func (b *ExprBody) Compute(ctx context.Context, scope *configs.Scope) (cty.Value, error) {
	evalCtx := &hcl.EvalContext{Variables: scope.All()}
	v, diags := b.Expr.Value(evalCtx)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("evaluating expression: %w", diags)
	}
	return v, nil
}
