package integration_tests

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/vk/labrig/internal/app"
	"github.com/vk/labrig/internal/cli"
)

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		args           []string
		expectExit     bool
		expectErr      bool
		expectedConfig *app.Config
		checkOutput    func(t *testing.T, output string)
	}{
		{
			name: "Happy Path with all flags",
			args: []string{
				"--experiment=mnist",
				"--set", "batch_size=64",
				"--set", "device=cuda",
				"--order", "device",
				"--order", "batch_size, lr",
				"--runs-dir=/test/runs",
				"--repo-dir=/test/repo",
				"--check-repo-dirty",
				"--dry-run",
				"--log-level=debug",
				"--log-format=text",
				"--workers=50",
				"train.hcl", "extra.hcl",
			},
			expectedConfig: &app.Config{
				Paths:          []string{"train.hcl", "extra.hcl"},
				Experiment:     "mnist",
				Overrides:      []string{"batch_size=64", "device=cuda"},
				Order:          [][]string{{"device"}, {"batch_size", "lr"}},
				RunsDir:        "/test/runs",
				RepoDir:        "/test/repo",
				CheckRepoDirty: true,
				DryRun:         true,
				LogFormat:      "text",
				LogLevel:       "debug",
				WorkerCount:    50,
			},
		},
		{
			name:       "Positional path and defaults",
			args:       []string{"train.hcl"},
			expectExit: false,
			expectErr:  false,
			expectedConfig: &app.Config{
				Paths:       []string{"train.hcl"},
				RunsDir:     "runs",
				RepoDir:     ".",
				LogFormat:   "json",
				LogLevel:    "info",
				WorkerCount: 10,
			},
		},
		{
			name:       "Help flag triggers clean exit",
			args:       []string{"-h"},
			expectExit: true,
			expectErr:  false,
			checkOutput: func(t *testing.T, output string) {
				require.True(t, strings.Contains(output, "Usage:"), "Expected help text to be printed")
			},
		},
		{
			name:       "No path triggers clean exit with usage",
			args:       []string{},
			expectExit: true,
			expectErr:  false,
			checkOutput: func(t *testing.T, output string) {
				require.True(t, strings.Contains(output, "Usage:"), "Expected help text to be printed")
			},
		},
		{
			name:      "Invalid log level returns an error",
			args:      []string{"--log-level=foo", "train.hcl"},
			expectErr: true,
		},
		{
			name:      "Invalid log format returns an error",
			args:      []string{"--log-format=yaml", "train.hcl"},
			expectErr: true,
		},
		{
			name:      "Unknown flag returns an error",
			args:      []string{"--frobnicate", "train.hcl"},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			out := &bytes.Buffer{}

			// --- Act ---
			appConfig, shouldExit, err := cli.Parse(tc.args, out)

			// --- Assert ---
			if tc.expectErr {
				require.Error(t, err)
				exitErr, isExitError := err.(*cli.ExitError)
				require.True(t, isExitError, "Expected error to be of type ExitError")
				require.Equal(t, 2, exitErr.Code)
				return // End test here if an error is expected
			}
			require.NoError(t, err)

			require.Equal(t, tc.expectExit, shouldExit)

			if tc.expectedConfig != nil {
				if diff := cmp.Diff(tc.expectedConfig, appConfig); diff != "" {
					t.Errorf("Config mismatch (-want +got):\n%s", diff)
				}
			}

			if tc.checkOutput != nil {
				tc.checkOutput(t, out.String())
			}
		})
	}
}
