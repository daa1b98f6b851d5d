package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/labrig/internal/app"
	"github.com/vk/labrig/internal/hcl_adapter"
	"github.com/vk/labrig/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessOptions adjusts the app configuration an integration test runs with.
// The zero value runs every experiment and records runs on disk.
type HarnessOptions struct {
	Experiment     string
	Overrides      []string
	DryRun         bool
	CheckRepoDirty bool
	WorkerCount    int
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	Dir       string
	RunsDir   string
}

// RunIntegrationTest provides a standardized harness for running integration
// tests with default options.
func RunIntegrationTest(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithOptions(t, HarnessOptions{}, files, modules...)
}

// RunIntegrationTestWithOptions provides a standardized harness for running
// integration tests with caller-controlled app options.
func RunIntegrationTestWithOptions(t *testing.T, opts HarnessOptions, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()

	// 1. Create a temporary root directory for the test.
	tmpDir, err := os.MkdirTemp("", ".tmp-integration-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	// 2. Write all declaration files to the temporary directory. The test
	//    provides relative paths, which naturally creates any subdirectory
	//    structure within the root tmpDir.
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}

	if opts.WorkerCount == 0 {
		opts.WorkerCount = 4
	}

	// 3. Point the app at the temporary directory. Runs are recorded under a
	//    dedicated subdirectory so tests can inspect their contents.
	runsDir := filepath.Join(tmpDir, "runs")
	appConfig := &app.Config{
		Paths:          []string{tmpDir},
		Experiment:     opts.Experiment,
		Overrides:      opts.Overrides,
		RunsDir:        runsDir,
		RepoDir:        tmpDir,
		CheckRepoDirty: opts.CheckRepoDirty,
		DryRun:         opts.DryRun,
		LogLevel:       "debug",
		LogFormat:      "text",
		WorkerCount:    opts.WorkerCount,
	}

	logBuffer := &SafeBuffer{}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				if os.Getenv("LABRIG_TEST_LOGS") == "true" {
					t.Logf("--- HARNESS RECOVERED PANIC ---\n%q", fmt.Sprintf("%v", r))
				}
				panicErr = r
			}
		}()
		testApp = app.NewApp(logBuffer, appConfig, hcl_adapter.NewLoader(), modules...)
	}()

	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
			Dir:       tmpDir,
			RunsDir:   runsDir,
		}
	}

	runErr := testApp.Run(context.Background())

	if os.Getenv("LABRIG_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
		Dir:       tmpDir,
		RunsDir:   runsDir,
	}
}

// RunManifestTest provides a simplified harness for resolving a single
// manifest string in dry-run mode with the built-in modules.
func RunManifestTest(t *testing.T, manifestHCL string) *HarnessResult {
	t.Helper()

	files := map[string]string{
		"main.hcl": manifestHCL,
	}
	return RunIntegrationTestWithOptions(t, HarnessOptions{DryRun: true}, files)
}
