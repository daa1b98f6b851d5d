package configs

import "github.com/zclconf/go-cty/cty"

// Instance binds per-run attribute values to a schema ahead of resolution.
type Instance struct {
	schema *Schema
	values []valueEntry
}

// NewInstance creates an instance of the given schema with no values set.
func NewInstance(schema *Schema) *Instance {
	if schema == nil {
		panic("configs: instance requires a schema")
	}
	return &Instance{schema: schema}
}

// Schema returns the schema this instance instantiates.
func (i *Instance) Schema() *Schema {
	return i.schema
}

// Set assigns an attribute value on the instance. Setting the same name
// again replaces the value and keeps the original position.
func (i *Instance) Set(name string, v cty.Value) *Instance {
	for idx := range i.values {
		if i.values[idx].name == name {
			i.values[idx].value = v
			return i
		}
	}
	i.values = append(i.values, valueEntry{name: name, value: v})
	return i
}
