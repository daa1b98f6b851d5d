package type_system_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/labrig/internal/configs"
	"github.com/vk/labrig/internal/testutil"
)

// Test for: a handler result that does not fit the declared type fails
func TestTypeSystem_HandlerResultMustMatchDeclaredType(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	manifestHCL := `
		config "train" {
			attribute "batch_size" {
				type = number
			}
			option "guessed" {
				attribute = "batch_size"
				handler   = "OnGuessBatchSize"
			}
		}

		experiment "broken" {
			configs = "train"
		}
	`
	files := map[string]string{
		"main.hcl": manifestHCL,
	}
	badHandler := &testutil.HandlerModule{
		Name: "OnGuessBatchSize",
		Body: &configs.FuncBody{
			Fn: func(_ context.Context, _ *configs.Scope) (cty.Value, error) {
				return cty.StringVal("as big as it gets"), nil
			},
		},
	}

	// --- Act ---
	result := testutil.RunIntegrationTestWithOptions(t, testutil.HarnessOptions{DryRun: true}, files, badHandler)

	// --- Assert ---
	require.Error(t, result.Err)
	require.Contains(t, result.Err.Error(), `evaluation failed for batch_size`)
	require.Contains(t, result.Err.Error(), "cannot convert string to declared type number")
}
