// Package sqlite implements the ledger stores on an embedded SQLite file via
// GORM. It serves local development and tests; production uses postgres.
package sqlite

import (
	"context"
	"fmt"

	"aegis/backend/internal/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database owns the GORM handle
type Database struct {
	db *gorm.DB
}

// Open opens (creating if needed) the SQLite database at path and migrates
// the ledger schema. Use ":memory:" for a throwaway database.
func Open(path string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	// SQLite serializes writers; one connection also keeps ":memory:"
	// databases alive and shared across the pool.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := db.AutoMigrate(&botRow{}, &positionRow{}, &positionLogRow{}, &fundRow{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &Database{db: db}, nil
}

// Ledger returns the stores backed by this database
func (d *Database) Ledger() repository.Ledger {
	return repository.Ledger{
		Bots:      NewBotStore(d.db),
		Positions: NewPositionStore(d.db),
		Funds:     NewFundStore(d.db),
		Health:    d,
	}
}

func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
