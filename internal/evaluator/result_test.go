package evaluator_test

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/vk/labrig/internal/evaluator"
)

func TestResult_ValueLookup(t *testing.T) {
	t.Parallel()

	res := evaluator.NewResult([]evaluator.Entry{
		{Name: "lr", Type: "number", Value: cty.NumberFloatVal(0.01), Provenance: "literal"},
	})

	v, ok := res.Value("lr")
	require.True(t, ok)
	assert.True(t, cty.NumberFloatVal(0.01).RawEquals(v))

	_, ok = res.Value("missing")
	assert.False(t, ok)
}

func TestResult_Object(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		res := evaluator.NewResult(nil)
		assert.True(t, cty.EmptyObjectVal.RawEquals(res.Object()))
	})

	t.Run("populated", func(t *testing.T) {
		res := evaluator.NewResult([]evaluator.Entry{
			{Name: "lr", Type: "number", Value: cty.NumberFloatVal(0.01), Provenance: "literal"},
			{Name: "optimizer", Type: "string", Value: cty.StringVal("adam"), Provenance: "option:adam"},
		})
		want := cty.ObjectVal(map[string]cty.Value{
			"lr":        cty.NumberFloatVal(0.01),
			"optimizer": cty.StringVal("adam"),
		})
		assert.True(t, want.RawEquals(res.Object()))
	})
}

func TestResult_TableAlignsColumns(t *testing.T) {
	restore := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = restore }()

	res := evaluator.NewResult([]evaluator.Entry{
		{Name: "batch_size", Type: "number", Value: cty.NumberIntVal(32), Provenance: "literal"},
		{Name: "lr", Type: "number", Value: cty.NumberFloatVal(0.01), Provenance: "default:adam"},
	})

	got := res.Table()

	want := "batch_size  number  32  (literal)\n" +
		"lr          number  0.01  (default:adam)\n"
	assert.Equal(t, want, got)
}

func TestResult_YAML(t *testing.T) {
	t.Parallel()

	res := evaluator.NewResult([]evaluator.Entry{
		{Name: "batch_size", Type: "number", Value: cty.NumberIntVal(32), Provenance: "literal"},
		{
			Name: "encoder", Type: "config(encoder)", Provenance: "nested",
			Value:       cty.ObjectVal(map[string]cty.Value{"layers": cty.NumberIntVal(4)}),
			Description: "encoder settings",
		},
	})

	out, err := res.YAML()
	require.NoError(t, err)

	var docs []map[string]any
	require.NoError(t, yaml.Unmarshal(out, &docs))
	require.Len(t, docs, 2)

	assert.Equal(t, "batch_size", docs[0]["name"])
	assert.Equal(t, 32, docs[0]["value"])
	assert.Equal(t, "literal", docs[0]["from"])
	assert.NotContains(t, docs[0], "description")

	assert.Equal(t, "encoder", docs[1]["name"])
	assert.Equal(t, map[string]any{"layers": 4}, docs[1]["value"])
	assert.Equal(t, "encoder settings", docs[1]["description"])
}

func TestResult_HyperparamsFlattenNestedValues(t *testing.T) {
	t.Parallel()

	res := evaluator.NewResult([]evaluator.Entry{
		{Name: "lr", Type: "number", Value: cty.NumberFloatVal(0.01), Provenance: "literal"},
		{Name: "note", Type: "string", Value: cty.NullVal(cty.String), Provenance: "literal"},
		{
			Name: "encoder", Type: "config(encoder)", Provenance: "nested",
			Value: cty.ObjectVal(map[string]cty.Value{
				"layers":  cty.NumberIntVal(4),
				"dropout": cty.NumberFloatVal(0.5),
			}),
		},
	})

	got := res.Hyperparams()

	want := map[string]string{
		"lr":              "0.01",
		"note":            "",
		"encoder.layers":  "4",
		"encoder.dropout": "0.5",
	}
	assert.Equal(t, want, got)
}
