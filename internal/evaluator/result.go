package evaluator

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/vk/labrig/internal/ctyutil"
)

// Entry is one attribute's final value with its provenance.
type Entry struct {
	Name        string
	Type        string
	Value       cty.Value
	Provenance  string
	Description string
}

// Result is the outcome of one evaluation pass, in first-declaration order.
type Result struct {
	entries []Entry
	index   map[string]int
}

// NewResult builds a result from ordered entries.
func NewResult(entries []Entry) *Result {
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e.Name] = i
	}
	return &Result{entries: entries, index: index}
}

// Entries returns all entries in declaration order.
func (r *Result) Entries() []Entry {
	return r.entries
}

// Value returns the final value of one attribute.
func (r *Result) Value(name string) (cty.Value, bool) {
	i, ok := r.index[name]
	if !ok {
		return cty.NilVal, false
	}
	return r.entries[i].Value, true
}

// Object packs the result into a single cty object keyed by attribute name.
func (r *Result) Object() cty.Value {
	if len(r.entries) == 0 {
		return cty.EmptyObjectVal
	}
	attrs := make(map[string]cty.Value, len(r.entries))
	for _, e := range r.entries {
		attrs[e.Name] = e.Value
	}
	return cty.ObjectVal(attrs)
}

// Table renders the result as an aligned table for terminal output. Literal
// values stay plain, computed values render cyan, defaulted and nested ones
// yellow.
func (r *Result) Table() string {
	nameWidth, typeWidth := 0, 0
	for _, e := range r.entries {
		if len(e.Name) > nameWidth {
			nameWidth = len(e.Name)
		}
		if len(e.Type) > typeWidth {
			typeWidth = len(e.Type)
		}
	}

	bold := color.New(color.Bold)
	var b strings.Builder
	for _, e := range r.entries {
		value := renderValue(e.Value)
		switch {
		case e.Provenance == "literal":
		case strings.HasPrefix(e.Provenance, "default"), e.Provenance == "nested":
			value = color.YellowString(value)
		default:
			value = color.CyanString(value)
		}
		fmt.Fprintf(&b, "%s  %-*s  %s  (%s)\n",
			bold.Sprintf("%-*s", nameWidth, e.Name),
			typeWidth, e.Type,
			value,
			e.Provenance,
		)
	}
	return b.String()
}

type yamlEntry struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Value       any    `yaml:"value"`
	From        string `yaml:"from"`
	Description string `yaml:"description,omitempty"`
}

// YAML renders the result as an ordered sequence of attribute records.
func (r *Result) YAML() ([]byte, error) {
	out := make([]yamlEntry, 0, len(r.entries))
	for _, e := range r.entries {
		native, err := ctyutil.ToNative(e.Value)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", e.Name, err)
		}
		out = append(out, yamlEntry{
			Name:        e.Name,
			Type:        e.Type,
			Value:       native,
			From:        e.Provenance,
			Description: e.Description,
		})
	}
	return yaml.Marshal(out)
}

// Hyperparams flattens the result into dotted string keys for tracker
// writers. Object and map values flatten recursively.
func (r *Result) Hyperparams() map[string]string {
	out := map[string]string{}
	for _, e := range r.entries {
		flattenInto(out, e.Name, e.Value)
	}
	return out
}

func flattenInto(out map[string]string, key string, v cty.Value) {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		out[key] = ""
		return
	}
	ty := v.Type()
	if ty.IsObjectType() || ty.IsMapType() {
		it := v.ElementIterator()
		for it.Next() {
			k, elem := it.Element()
			flattenInto(out, key+"."+k.AsString(), elem)
		}
		return
	}
	out[key] = renderValue(v)
}

func renderValue(v cty.Value) string {
	native, err := ctyutil.ToNative(v)
	if err != nil || native == nil {
		return v.GoString()
	}
	return fmt.Sprintf("%v", native)
}
