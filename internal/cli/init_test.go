package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/log"
)

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("FINTRACK_CLI_TEST=from-file\n"), 0o600))
	t.Setenv("FINTRACK_CLI_TEST", "")
	require.NoError(t, os.Unsetenv("FINTRACK_CLI_TEST"))

	require.NoError(t, LoadEnvFile(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("FINTRACK_CLI_TEST"))
}

func TestLoadEnvFileKeepsExistingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FINTRACK_CLI_TEST=from-file\n"), 0o600))
	t.Setenv("FINTRACK_CLI_TEST", "from-env")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-env", os.Getenv("FINTRACK_CLI_TEST"))
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("PORT", "9191")
	t.Setenv("DATA_BACKEND", "memory")
	cfg, logger, err := LoadAndValidateConfig()
	require.NoError(t, err)
	assert.Equal(t, "9191", cfg.Port)
	assert.NotNil(t, logger)

	t.Setenv("PORT", "not-a-port")
	_, _, err = LoadAndValidateConfig()
	assert.ErrorContains(t, err, "invalid port")
}

func TestSignalContextCancel(t *testing.T) {
	ctx, cancel := SignalContext(context.Background(), log.Default())
	assert.NoError(t, ctx.Err())
	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
