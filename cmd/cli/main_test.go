package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A manifest with a syntax error makes app.NewApp panic during loading.
	// run() must recover that panic and hand it back as a plain error.
	invalidHCL := `
		config "train" {
			attribute "batch_size" {
		// Missing closing braces here
	`
	tempDir := t.TempDir()
	manifestPath := filepath.Join(tempDir, "main.hcl")
	err := os.WriteFile(manifestPath, []byte(invalidHCL), 0600)
	require.NoError(t, err, "failed to set up test manifest")

	args := []string{manifestPath}
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(out, args)

	// --- Assert ---
	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")

	errStr := runErr.Error()
	require.True(t, strings.Contains(errStr, "application startup panicked"), "The error message should indicate that a panic was recovered.")
	require.True(t, strings.Contains(errStr, "failed to parse"), "The error message should carry the underlying reason for the panic.")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" flag makes cli.Parse report shouldExit without an error.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// An unknown flag is rejected by cli.Parse before the app is built.
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}
