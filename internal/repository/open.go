package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"evs-comms/backend/internal/config"
)

// OpenTaskStore opens the store selected by cfg.Tasks.Driver and makes sure
// its schema exists. The returned close func releases the connection.
func OpenTaskStore(ctx context.Context, cfg *config.Config) (TaskStore, func(), error) {
	var (
		store   TaskStore
		closeFn = func() {}
	)

	switch cfg.Tasks.Driver {
	case config.DriverPostgres:
		pool, err := ConnectPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = NewPostgresTaskStore(pool), pool.Close
	case config.DriverSQLite:
		s, err := OpenSQLiteTaskStore(cfg.Tasks.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = s, func() { _ = s.Close() }
	case config.DriverMemory, "":
		store = NewMemoryTaskStore()
	default:
		return nil, nil, fmt.Errorf("unknown task store driver %q", cfg.Tasks.Driver)
	}

	if err := store.EnsureSchema(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("failed to ensure task schema: %w", err)
	}
	return store, closeFn, nil
}

// ConnectPostgres builds a pool from cfg.DB and verifies the connection.
func ConnectPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}
