package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evs-comms/backend/internal/config"
)

func TestOpenTaskStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Tasks.Driver = config.DriverMemory
		store, closeFn, err := OpenTaskStore(ctx, cfg)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &MemoryTaskStore{}, store)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Tasks.Driver = config.DriverSQLite
		cfg.Tasks.SQLitePath = filepath.Join(t.TempDir(), "tasks.db")
		store, closeFn, err := OpenTaskStore(ctx, cfg)
		require.NoError(t, err)
		defer closeFn()
		assert.IsType(t, &SQLiteTaskStore{}, store)
		require.NoError(t, store.Ping(ctx))
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Tasks.Driver = "redis"
		_, _, err := OpenTaskStore(ctx, cfg)
		assert.Error(t, err)
	})
}
