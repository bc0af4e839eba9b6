package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/config"
	"fintrack/internal/core"
	memsheet "fintrack/internal/sheets/memory"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.EqualError(t, err, "invalid backend type in config: sheets")

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:         config.BackendSQLite,
		SQLiteDBPath:        "./data/x.db",
		GoogleSpreadsheetID: "id",
		GoogleSheetName:     "Sheet1",
	})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "./data/x.db", cfg.SQLiteDBPath)
	assert.Equal(t, "Sheet1", cfg.GoogleSheetName)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{Type: MemoryBackend}.Validate())
	assert.Error(t, Config{Type: SQLiteBackend}.Validate())
	assert.Error(t, Config{Type: "other"}.Validate())
	assert.ElementsMatch(t, []BackendType{SQLiteBackend, MemoryBackend}, GetBackendTypes())
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	for _, cfg := range []Config{
		{Type: MemoryBackend},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "fintrack.db")},
	} {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			res, err := f.CreateBackend(ctx, cfg)
			require.NoError(t, err)
			t.Cleanup(func() { _ = res.Cleanup() })

			require.NoError(t, res.Store.Ping(ctx))
			owner := core.UserID(1)
			c, err := res.Store.CreateCategory(ctx, core.Category{Name: "Food", Owner: &owner})
			require.NoError(t, err)
			got, err := res.Store.GetCategory(ctx, c.ID)
			require.NoError(t, err)
			assert.Equal(t, "Food", got.Name)
		})
	}

	_, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend})
	assert.Error(t, err)
}

func TestCreateExporterFallsBackToMemory(t *testing.T) {
	exp, err := NewFactory(nil).CreateExporter(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.IsType(t, &memsheet.Exporter{}, exp)
}
