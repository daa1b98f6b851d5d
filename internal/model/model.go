package model

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of everything the
// declaration files contain: configuration schemas and experiments.
type Model struct {
	Configs     map[string]*ConfigDef
	Experiments map[string]*ExperimentDef
}

// ConfigDef is the format-agnostic representation of a `config` block.
// Attribute, option and append order is the file order; it drives
// default-option selection and value fill order.
type ConfigDef struct {
	Name       string
	Extends    []string
	Attributes []*AttributeDef
	Options    []*OptionDef
	Appends    []*AppendDef
}

// AttributeDef declares a single attribute of a config. Type and Nested are
// mutually exclusive; Nested names another config block whose resolved object
// becomes this attribute's value.
type AttributeDef struct {
	Name        string
	Type        cty.Type
	Nested      string
	Default     *cty.Value
	Description string
}

// OptionDef is a named option calculator for one attribute. Exactly one of
// Expr and Handler is set: an inline expression evaluated against the
// attribute scope, or the name of a registered Go handler.
type OptionDef struct {
	Name      string
	Attribute string
	Expr      hcl.Expression
	Handler   string
	After     []string
}

// AppendDef is a list-append calculator for one attribute. Exactly one of
// Expr and Handler is set.
type AppendDef struct {
	Attribute string
	Expr      hcl.Expression
	Handler   string
	After     []string
}

// ExperimentDef is the format-agnostic representation of an `experiment`
// block: which config to resolve, per-run overrides and bookkeeping detail.
type ExperimentDef struct {
	Name    string
	Configs string
	Comment string
	Tags    []string
	Writers []string
	LiveURL string
	Set     map[string]cty.Value
	Order   [][]string
}
