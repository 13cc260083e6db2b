// Package storage opens the ledger backend selected by configuration.
package storage

import (
	"context"
	"fmt"

	"aegis/backend/internal/config"
	"aegis/backend/internal/repository"
	"aegis/backend/internal/repository/postgres"
	"aegis/backend/internal/repository/sqlite"
	"aegis/backend/pkg/logger"
)

// Store is an open ledger and the function releasing its connections
type Store struct {
	repository.Ledger
	close func() error
}

func (s *Store) Close() error {
	return s.close()
}

// Open connects to postgres or opens the sqlite file named in cfg. Postgres
// migrations run when cfg.RunMigrations is set; sqlite always migrates.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		client, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.DSN,
			MaxConns: cfg.MaxConns,
			MinConns: cfg.MinConns,
		})
		if err != nil {
			return nil, err
		}
		if cfg.RunMigrations {
			if err := client.RunMigrations(ctx); err != nil {
				client.Close()
				return nil, err
			}
			log.Info("Ledger migrations applied")
		}
		return &Store{
			Ledger: client.Ledger(),
			close: func() error {
				client.Close()
				return nil
			},
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Infof("Ledger opened at %s", cfg.SQLitePath)
		return &Store{Ledger: db.Ledger(), close: db.Close}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
