package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// Config selects and addresses the backing store.
type Config struct {
	Driver     string // "mysql" or "sqlite"
	User       string
	Pass       string
	Host       string
	Port       string
	Name       string
	SQLitePath string
}

// Dialect maps the configured driver to the repository dialect.
func (c Config) Dialect() repository.Dialect {
	if c.Driver == string(repository.SQLite) {
		return repository.SQLite
	}
	return repository.MySQL
}

// mysqlDSN builds the go-sql-driver DSN. parseTime=true -> DATETIME ->
// time.Time | loc=UTC keeps times consistent.
func (c Config) mysqlDSN(multiStatements bool) string {
	auth := c.User
	if c.Pass != "" {
		auth = fmt.Sprintf("%s:%s", c.User, c.Pass)
	}
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC", auth, c.Host, c.Port, c.Name)
	if multiStatements {
		dsn += "&multiStatements=true"
	}
	return dsn
}

// Open connects to the configured store and verifies the connection.
func Open(cfg Config) (*sql.DB, error) {
	if cfg.Dialect() == repository.SQLite {
		return OpenSQLite(cfg.SQLitePath)
	}
	return openMySQL(cfg.mysqlDSN(false))
}

func openMySQL(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens a file database. Write transactions take the database
// lock at BEGIN (_txlock=immediate) so admission checks never run against
// a snapshot another writer is about to change; waiters block up to the
// busy timeout.
func OpenSQLite(path string) (*sql.DB, error) {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Set("_txlock", "immediate")
	db, err := sql.Open("sqlite", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	if err := ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ping(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}
