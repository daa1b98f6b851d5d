package configs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestResolveMissing_ValuePresentIsKept(t *testing.T) {
	t.Parallel()

	s := New("s").
		Attr("device", Type(cty.String)).
		Default("device", cty.StringVal("mps")).
		Option("device", "cpu", &Literal{Value: cty.StringVal("cpu")})

	reg, err := Resolve(context.Background(), NewInstance(s), nil)

	require.NoError(t, err)
	v, _ := reg.Value("device")
	assert.True(t, cty.StringVal("mps").RawEquals(v))
	assert.False(t, reg.Defaulted("device"))
}

func TestResolveMissing_NullValueCountsAsMissing(t *testing.T) {
	t.Parallel()

	s := New("s").
		Attr("device", Type(cty.String)).
		Default("device", cty.NullVal(cty.String)).
		Option("device", "cpu", &Literal{Value: cty.StringVal("cpu")}).
		Option("device", "cuda", &Literal{Value: cty.StringVal("cuda")})

	reg, err := Resolve(context.Background(), NewInstance(s), nil)

	require.NoError(t, err)
	v, _ := reg.Value("device")
	assert.True(t, cty.StringVal("cpu").RawEquals(v))
	assert.True(t, reg.Defaulted("device"))
}

func TestResolveMissing_AppendsAreLeftUnresolved(t *testing.T) {
	t.Parallel()

	s := New("s").
		Attr("callbacks", Type(cty.List(cty.String))).
		Append("callbacks", &Literal{Value: cty.StringVal("checkpoint")}).
		Append("callbacks", &Literal{Value: cty.StringVal("logger")})

	reg, err := Resolve(context.Background(), NewInstance(s), nil)

	require.NoError(t, err)
	_, ok := reg.Value("callbacks")
	assert.False(t, ok, "append attributes must stay unresolved")
	assert.Len(t, reg.Appends("callbacks"), 2)
	assert.False(t, reg.Defaulted("callbacks"))
}

func TestResolveMissing_NestedSchemaSynthesizesOption(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	encoder := New("encoder").
		Attr("layers", Type(cty.Number)).
		Default("layers", cty.NumberIntVal(4))
	model := New("model").Attr("encoder", Nested(encoder))

	// --- Act ---
	reg, err := Resolve(context.Background(), NewInstance(model), nil)

	// --- Assert ---
	require.NoError(t, err)

	v, ok := reg.Value("encoder")
	require.True(t, ok)
	assert.True(t, cty.StringVal("encoder").RawEquals(v))
	assert.True(t, reg.Defaulted("encoder"))

	table := reg.Options("encoder")
	require.NotNil(t, table)
	generated, ok := table.Get("encoder")
	require.True(t, ok)
	body, ok := generated.Body.(*NestedBody)
	require.True(t, ok)
	assert.Same(t, encoder, body.Schema)
}

func TestResolveMissing_UnresolvableAttributeFails(t *testing.T) {
	t.Parallel()

	s := New("s").Attr("count", Type(cty.Number))

	_, err := Resolve(context.Background(), NewInstance(s), nil)

	var unresolvable *UnresolvableError
	require.ErrorAs(t, err, &unresolvable)
	assert.Equal(t, "count", unresolvable.Attr)
	assert.Contains(t, err.Error(), `"count"`)
}

func TestResolveMissing_FillsInDeclarationOrder(t *testing.T) {
	t.Parallel()

	// Both attributes default to their first option independently of each
	// other's position in the table.
	s := New("s").
		Attr("device", Type(cty.String)).
		Attr("precision", Type(cty.String)).
		Option("precision", "fp32", &Literal{Value: cty.StringVal("fp32")}).
		Option("device", "cpu", &Literal{Value: cty.StringVal("cpu")})

	reg, err := Resolve(context.Background(), NewInstance(s), nil)

	require.NoError(t, err)
	device, _ := reg.Value("device")
	precision, _ := reg.Value("precision")
	assert.True(t, cty.StringVal("cpu").RawEquals(device))
	assert.True(t, cty.StringVal("fp32").RawEquals(precision))
}
