package backup

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bosflow/bosflow/internal/config"
)

// NewStore builds the backup store named by cfg.Driver. An empty
// driver falls back to the in-memory store.
func NewStore(ctx context.Context, cfg config.BackupConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(), nil

	case "filesystem":
		return NewFilesystemStore(cfg.Directory)

	case "postgres":
		dsn := os.Getenv(cfg.DSNEnv)
		if dsn == "" {
			return nil, fmt.Errorf("backup: env %s holds no DSN", cfg.DSNEnv)
		}
		poolCfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("backup: parse DSN: %w", err)
		}
		if cfg.MaxOpenConns > 0 {
			poolCfg.MaxConns = int32(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			poolCfg.MinConns = int32(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("backup: connect postgres: %w", err)
		}
		return NewPgStore(pool), nil

	default:
		return nil, fmt.Errorf("backup: unknown driver %q", cfg.Driver)
	}
}
