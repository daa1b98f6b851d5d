package configs

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Body is a calculator computation. Implementations declare the attribute
// names they read up front; evaluation orders attributes by these
// dependencies and restricts the scope handed to Compute accordingly.
type Body interface {
	Dependencies() []string
	Compute(ctx context.Context, scope *Scope) (cty.Value, error)
}

// Calculator binds a computation body to one or more target attributes.
// Option calculators are selectable by name; append calculators each
// contribute one element to the target's list value.
type Calculator struct {
	// Targets are the attribute names this calculator produces. A body with
	// several targets runs once and must return a tuple with one element per
	// target, in order.
	Targets []string

	// Option is the name this calculator is selectable by. Unused when
	// Append is set.
	Option string

	// Append registers the body as a list-append contribution instead of a
	// named option.
	Append bool

	Body Body
}

// FuncBody adapts a plain Go function into a calculator body.
type FuncBody struct {
	Deps []string
	Fn   func(ctx context.Context, scope *Scope) (cty.Value, error)
}

func (b *FuncBody) Dependencies() []string {
	return b.Deps
}

func (b *FuncBody) Compute(ctx context.Context, scope *Scope) (cty.Value, error) {
	return b.Fn(ctx, scope)
}

// Literal is a dependency-free body returning a fixed value.
type Literal struct {
	Value cty.Value
}

func (b *Literal) Dependencies() []string {
	return nil
}

func (b *Literal) Compute(context.Context, *Scope) (cty.Value, error) {
	return b.Value, nil
}
