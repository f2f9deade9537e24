package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

//go:embed migrations/mysql/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// NewMigrator returns a golang-migrate instance over the embedded schema
// for cfg's dialect. For SQLite it migrates db in place; for MySQL it opens
// its own connection with multiStatements enabled, released by m.Close.
func NewMigrator(cfg Config, db *sql.DB) (*migrate.Migrate, error) {
	dir := "migrations/mysql"
	if cfg.Dialect() == repository.SQLite {
		dir = "migrations/sqlite"
	}
	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	if cfg.Dialect() == repository.SQLite {
		driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
		if err != nil {
			return nil, fmt.Errorf("could not create migration driver: %w", err)
		}
		return migrate.NewWithInstance("iofs", src, "sqlite", driver)
	}

	mdb, err := openMySQL(cfg.mysqlDSN(true))
	if err != nil {
		return nil, fmt.Errorf("open migration connection: %w", err)
	}
	driver, err := migratemysql.WithInstance(mdb, &migratemysql.Config{})
	if err != nil {
		_ = mdb.Close()
		return nil, fmt.Errorf("could not create migration driver: %w", err)
	}
	return migrate.NewWithInstance("iofs", src, "mysql", driver)
}

// MigrateUp applies every pending migration. Being up to date is not an error.
func MigrateUp(cfg Config, db *sql.DB) error {
	m, err := NewMigrator(cfg, db)
	if err != nil {
		return err
	}
	if cfg.Dialect() == repository.MySQL {
		defer m.Close()
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}
