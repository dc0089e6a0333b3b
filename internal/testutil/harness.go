package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/cashgrid/internal/app"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Output    string
	LogOutput string
	Err       error
}

// RunIntegrationTest provides a standardized harness for running integration tests
// using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, cfg app.Config) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, cfg)
}

// RunIntegrationTestWithContext writes files under a temporary model
// directory, points cfg at it and runs the application end to end.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, cfg app.Config) *HarnessResult {
	t.Helper()

	modelDir := filepath.Join(t.TempDir(), "model")
	require.NoError(t, os.Mkdir(modelDir, 0755))

	// The test provides relative paths (e.g., "sections/revenue.hcl"),
	// which naturally creates the subdirectory structure.
	for name, content := range files {
		filePath := filepath.Join(modelDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}

	cfg.ModelPath = modelDir
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	out := &app.SafeBuffer{}
	logs := &app.SafeBuffer{}
	testApp := app.NewApp(out, logs, appConfig, nil)
	runErr := testApp.Run(ctx)

	if os.Getenv("CASHGRID_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
	}

	return &HarnessResult{
		Output:    out.String(),
		LogOutput: logs.String(),
		Err:       runErr,
	}
}
