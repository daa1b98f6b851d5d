package configs

import "github.com/zclconf/go-cty/cty"

// TypeRef is the declared type of an attribute: either a concrete cty type
// or a reference to a nested schema whose resolved form the attribute holds.
type TypeRef struct {
	ctyType cty.Type
	schema  *Schema
}

// Type wraps a concrete cty type as an attribute type.
func Type(ty cty.Type) TypeRef {
	return TypeRef{ctyType: ty}
}

// Nested marks an attribute as holding the resolved form of another schema.
func Nested(s *Schema) TypeRef {
	if s == nil {
		panic("configs: nested type requires a schema")
	}
	return TypeRef{schema: s}
}

// IsSchema reports whether the reference points at a nested schema.
func (r TypeRef) IsSchema() bool {
	return r.schema != nil
}

// Schema returns the nested schema, or nil for concrete types.
func (r TypeRef) Schema() *Schema {
	return r.schema
}

// CtyType returns the concrete cty type. For nested schemas it returns
// cty.NilType; the concrete shape only exists once the schema is evaluated.
func (r TypeRef) CtyType() cty.Type {
	return r.ctyType
}

// FriendlyName renders the reference for logs and the resolved table.
func (r TypeRef) FriendlyName() string {
	if r.schema != nil {
		return "config(" + r.schema.Name() + ")"
	}
	if r.ctyType == cty.NilType {
		return "unknown"
	}
	return r.ctyType.FriendlyName()
}
