package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all recognized top-level blocks from
// any file. Block kinds may be mixed freely across files.
type fileRoot struct {
	Configs     []*configBlock     `hcl:"config,block"`
	Experiments []*experimentBlock `hcl:"experiment,block"`
	Remain      hcl.Body           `hcl:",remain"`
}

// configBlock represents a `config` block: one named schema fragment.
type configBlock struct {
	Name       string            `hcl:"name,label"`
	Extends    []string          `hcl:"extends,optional"`
	Attributes []*attributeBlock `hcl:"attribute,block"`
	Options    []*optionBlock    `hcl:"option,block"`
	Appends    []*appendBlock    `hcl:"append,block"`
}

// attributeBlock declares a single attribute inside a config block. `type`
// and `config` are mutually exclusive.
type attributeBlock struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type,optional"`
	Config      string         `hcl:"config,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
	Description string         `hcl:"description,optional"`
}

// optionBlock registers a named option calculator for one attribute.
// `value` and `handler` are mutually exclusive.
type optionBlock struct {
	Name      string         `hcl:"name,label"`
	Attribute string         `hcl:"attribute"`
	Value     hcl.Expression `hcl:"value,optional"`
	Handler   string         `hcl:"handler,optional"`
	After     []string       `hcl:"after,optional"`
}

// appendBlock registers a list-append calculator for one attribute.
// `value` and `handler` are mutually exclusive.
type appendBlock struct {
	Attribute string         `hcl:"attribute"`
	Value     hcl.Expression `hcl:"value,optional"`
	Handler   string         `hcl:"handler,optional"`
	After     []string       `hcl:"after,optional"`
}

// setBlock represents the content of the `set` block within an experiment.
type setBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// experimentBlock represents an `experiment` block from a user's file.
type experimentBlock struct {
	Name    string         `hcl:"name,label"`
	Configs string         `hcl:"configs"`
	Comment string         `hcl:"comment,optional"`
	Tags    []string       `hcl:"tags,optional"`
	Writers []string       `hcl:"writers,optional"`
	LiveURL string         `hcl:"live_url,optional"`
	Set     *setBlock      `hcl:"set,block"`
	Order   hcl.Expression `hcl:"order,optional"`
}
