package hcl_adapter_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/labrig/internal/hcl_adapter"
)

func writeHCL(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestLoad_ParsesConfigAndExperimentBlocks(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	writeHCL(t, dir, "train.hcl", `
config "optimizer" {
  attribute "lr" {
    type        = number
    default     = 1
    description = "learning rate"
  }
}

config "encoder" {
  attribute "layers" {
    type    = number
    default = 4
  }
}

config "train" {
  extends = ["optimizer"]

  attribute "device" {
    type    = string
    default = "cpu"
  }

  attribute "model" {
    config = "encoder"
  }

  attribute "callbacks" {
    type = list(string)
  }

  option "cuda" {
    attribute = "device"
    value     = "cuda"
  }

  option "scaled" {
    attribute = "lr"
    value     = lr * 2
  }

  append {
    attribute = "callbacks"
    handler   = "AddCheckpoint"
    after     = ["device"]
  }
}

experiment "mnist" {
  configs = "train"
  comment = "baseline"
  tags    = ["vision"]

  set {
    device = "cuda"
    lr     = 3
  }

  order = ["device", ["lr", "callbacks"]]
}
`)

	// --- Act ---
	m, err := hcl_adapter.NewLoader().Load(context.Background(), dir)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, m.Configs, 3)

	train := m.Configs["train"]
	require.NotNil(t, train)
	assert.Equal(t, []string{"optimizer"}, train.Extends)

	require.Len(t, train.Attributes, 3)
	device := train.Attributes[0]
	assert.Equal(t, "device", device.Name)
	assert.True(t, device.Type.Equals(cty.String))
	require.NotNil(t, device.Default)
	assert.True(t, cty.StringVal("cpu").RawEquals(*device.Default))

	nested := train.Attributes[1]
	assert.Equal(t, "model", nested.Name)
	assert.Equal(t, "encoder", nested.Nested)

	callbacks := train.Attributes[2]
	assert.True(t, callbacks.Type.Equals(cty.List(cty.String)))
	assert.Nil(t, callbacks.Default)

	lr := m.Configs["optimizer"].Attributes[0]
	assert.Equal(t, "learning rate", lr.Description)

	require.Len(t, train.Options, 2)
	assert.Equal(t, "cuda", train.Options[0].Name)
	assert.Equal(t, "device", train.Options[0].Attribute)
	assert.NotNil(t, train.Options[0].Expr)
	assert.Empty(t, train.Options[0].Handler)

	require.Len(t, train.Appends, 1)
	app := train.Appends[0]
	assert.Equal(t, "callbacks", app.Attribute)
	assert.Equal(t, "AddCheckpoint", app.Handler)
	assert.Equal(t, []string{"device"}, app.After)
	assert.Nil(t, app.Expr)

	exp := m.Experiments["mnist"]
	require.NotNil(t, exp)
	assert.Equal(t, "train", exp.Configs)
	assert.Equal(t, "baseline", exp.Comment)
	assert.Equal(t, []string{"vision"}, exp.Tags)
	assert.True(t, cty.StringVal("cuda").RawEquals(exp.Set["device"]))
	assert.True(t, cty.NumberIntVal(3).RawEquals(exp.Set["lr"]))
	assert.Equal(t, [][]string{{"device"}, {"lr", "callbacks"}}, exp.Order)
}

func TestLoad_MergesBlocksAcrossFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeHCL(t, dir, "base.hcl", `
config "base" {
  attribute "device" {
    type    = string
    default = "cpu"
  }
}
`)
	writeHCL(t, dir, "experiments.hcl", `
experiment "smoke" {
  configs = "base"
}
`)

	m, err := hcl_adapter.NewLoader().Load(context.Background(), dir)

	require.NoError(t, err)
	assert.Len(t, m.Configs, 1)
	assert.Len(t, m.Experiments, 1)
}

func TestLoad_ObjectTypeExpression(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeHCL(t, dir, "shape.hcl", `
config "data" {
  attribute "shape" {
    type = object({ width = number, height = number, name = string })
  }
}
`)

	m, err := hcl_adapter.NewLoader().Load(context.Background(), dir)

	require.NoError(t, err)
	want := cty.Object(map[string]cty.Type{
		"width":  cty.Number,
		"height": cty.Number,
		"name":   cty.String,
	})
	assert.True(t, m.Configs["data"].Attributes[0].Type.Equals(want))
}

func TestLoad_Defects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name: "type and config are mutually exclusive",
			src: `
config "a" {
  attribute "x" {
    type   = string
    config = "b"
  }
}
config "b" {}
`,
			wantErr: "declares both a type and a nested config",
		},
		{
			name: "option with value and handler",
			src: `
config "a" {
  attribute "x" { type = string }
  option "both" {
    attribute = "x"
    value     = "v"
    handler   = "H"
  }
}
`,
			wantErr: "sets both value and handler",
		},
		{
			name: "option with neither value nor handler",
			src: `
config "a" {
  attribute "x" { type = string }
  option "neither" {
    attribute = "x"
  }
}
`,
			wantErr: "needs either value or handler",
		},
		{
			name: "unknown primitive type",
			src: `
config "a" {
  attribute "x" { type = integer }
}
`,
			wantErr: `unknown primitive type "integer"`,
		},
		{
			name: "collection of any",
			src: `
config "a" {
  attribute "x" { type = list(any) }
}
`,
			wantErr: "collection types cannot contain type 'any'",
		},
		{
			name: "default with variables",
			src: `
config "a" {
  attribute "x" {
    type    = number
    default = y + 1
  }
}
`,
			wantErr: "invalid default value",
		},
		{
			name: "order with non-name entry",
			src: `
config "a" {
  attribute "x" {
    type    = number
    default = 1
  }
}
experiment "e" {
  configs = "a"
  order   = [42]
}
`,
			wantErr: "order entries must be attribute names",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeHCL(t, dir, "defect.hcl", tc.src)

			_, err := hcl_adapter.NewLoader().Load(context.Background(), dir)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_DuplicateConfigBlockFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeHCL(t, dir, "one.hcl", `
config "train" {
  attribute "x" { type = number }
}
`)
	writeHCL(t, dir, "two.hcl", `
config "train" {
  attribute "y" { type = number }
}
`)

	_, err := hcl_adapter.NewLoader().Load(context.Background(), dir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate config block "train"`)
}

func TestLoad_MissingPathFails(t *testing.T) {
	t.Parallel()

	_, err := hcl_adapter.NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope"))

	assert.Error(t, err)
}
