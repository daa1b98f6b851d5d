package testutil

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/labrig/internal/ctyutil"
)

// AssertResolved checks that an experiment's evaluation produced the expected
// value for one attribute. Values compare by their rendered form, which keeps
// tests resilient to the exact cty representation.
func AssertResolved(t *testing.T, result *HarnessResult, experiment, attribute, want string) {
	t.Helper()

	require.NotNil(t, result.App, "application failed to start")
	res, ok := result.App.Results()[experiment]
	require.True(t, ok, "no evaluation result recorded for experiment %q", experiment)

	v, ok := res.Value(attribute)
	require.True(t, ok, "attribute %q missing from result of experiment %q", attribute, experiment)

	native, err := ctyutil.ToNative(v)
	require.NoError(t, err, "attribute %q did not convert to a native value", attribute)
	require.Equal(t, want, fmt.Sprintf("%v", native),
		"attribute %q of experiment %q resolved to the wrong value", attribute, experiment)
}
