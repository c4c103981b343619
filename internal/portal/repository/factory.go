// Package repository selects the persistence adapter behind the portal.
package repository

import (
	"fmt"

	"github.com/songzhibin97/academia/internal/config"
	"github.com/songzhibin97/academia/internal/portal/repository/bolt"
	"github.com/songzhibin97/academia/internal/portal/repository/memory"
	"github.com/songzhibin97/academia/internal/portal/repository/postgres"
	"github.com/songzhibin97/academia/pkg/portal"
)

// Supported adapter types
const (
	TypeMemory   = "memory"
	TypePostgres = "postgres"
	TypeBolt     = "bolt"
)

// Open creates the repository named by cfg.Type.
func Open(cfg config.PortalRepositoryConfig) (portal.Repository, error) {
	switch cfg.Type {
	case "", TypeMemory:
		return memory.NewRepository(), nil

	case TypePostgres:
		pgConfig := postgres.DefaultConfig()
		if cfg.Postgres.DSN != "" {
			pgConfig.DSN = cfg.Postgres.DSN
		}
		if cfg.Postgres.MaxOpenConns > 0 {
			pgConfig.MaxOpenConns = cfg.Postgres.MaxOpenConns
		}
		if cfg.Postgres.MaxIdleConns > 0 {
			pgConfig.MaxIdleConns = cfg.Postgres.MaxIdleConns
		}
		if cfg.Postgres.ConnMaxLifetime > 0 {
			pgConfig.ConnMaxLifetime = cfg.Postgres.ConnMaxLifetime
		}
		if cfg.Postgres.MigrationPath != "" {
			pgConfig.MigrationPath = cfg.Postgres.MigrationPath
		}

		repo, err := postgres.NewRepository(pgConfig)
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.AutoMigrate {
			if err := repo.Migrate(); err != nil {
				repo.Close()
				return nil, err
			}
		}
		return repo, nil

	case TypeBolt:
		boltConfig := bolt.DefaultConfig()
		if cfg.Bolt.Path != "" {
			boltConfig.Path = cfg.Bolt.Path
		}
		if cfg.Bolt.Timeout > 0 {
			boltConfig.Timeout = cfg.Bolt.Timeout
		}
		return bolt.NewRepository(boltConfig)

	default:
		return nil, fmt.Errorf("unsupported repository type: %s", cfg.Type)
	}
}
