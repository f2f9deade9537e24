package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// DBTX is the subset of *sql.DB and *sql.Tx the repositories need, so the
// same repository code runs inside and outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect names the SQL backend. Both accept `?` placeholders; they differ
// in how a transaction pins the rows it is about to check.
type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite"
)

// lockClause is appended to SELECTs that must hold a row lock until commit.
// SQLite transactions are opened with _txlock=immediate and hold the
// database write lock instead.
func (d Dialect) lockClause() string {
	if d == MySQL {
		return " FOR UPDATE"
	}
	return ""
}

// txOptions is the isolation admission transactions run under. InnoDB's
// default REPEATABLE READ pins a snapshot at the first plain read, so a
// check made after waiting on a FOR UPDATE lock would miss rows committed
// by the lock holder. READ COMMITTED gives every statement a fresh view.
func (d Dialect) txOptions() *sql.TxOptions {
	if d == MySQL {
		return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	}
	return nil
}

// timeLayout is how instants are written to DATETIME columns (always UTC).
const timeLayout = "2006-01-02 15:04:05"

func timeArg(t time.Time) string { return t.UTC().Format(timeLayout) }

// scanTime reads a DATETIME column whatever the driver hands back:
// time.Time from MySQL with parseTime, text or time.Time from SQLite.
type scanTime struct{ dst *time.Time }

func (s scanTime) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		*s.dst = time.Time{}
		return nil
	case time.Time:
		*s.dst = x.UTC()
		return nil
	case []byte:
		return s.parse(string(x))
	case string:
		return s.parse(x)
	}
	return fmt.Errorf("unsupported time value %T", v)
}

func (s scanTime) parse(v string) error {
	v = strings.TrimSpace(v)
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05.999999999"} {
		if t, err := time.Parse(layout, v); err == nil {
			*s.dst = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("unparseable time %q", v)
}

// Store owns the connection pool and hands out repositories bound either
// to the pool or to a single transaction.
type Store struct {
	db      *sql.DB
	dialect Dialect

	Tables       *TableRepo
	Dishes       *DishRepo
	Clients      *ClientRepo
	Reservations *ReservationRepo
	PreOrders    *PreOrderRepo
	Users        *UserRepo
	Tokens       *TokenRepo
}

// NewStore wires every repository to db.
func NewStore(db *sql.DB, dialect Dialect) *Store {
	s := &Store{db: db, dialect: dialect}
	s.Tables, s.Dishes, s.Clients, s.Reservations, s.PreOrders, s.Users, s.Tokens = bind(db, dialect)
	return s
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Dialect() Dialect { return s.dialect }

// Tx exposes the repositories bound to one open transaction.
type Tx struct {
	Tables       *TableRepo
	Dishes       *DishRepo
	Clients      *ClientRepo
	Reservations *ReservationRepo
	PreOrders    *PreOrderRepo
	Users        *UserRepo
	Tokens       *TokenRepo
}

// WithTx runs fn inside a transaction and commits when fn returns nil.
// Any error from fn, or a failed commit, rolls the transaction back.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, s.dialect.txOptions())
	if err != nil {
		return classify(fmt.Errorf("begin tx: %w", err))
	}
	committed := false
	defer func() {
		if !committed {
			_ = sqlTx.Rollback()
		}
	}()

	tx := &Tx{}
	tx.Tables, tx.Dishes, tx.Clients, tx.Reservations, tx.PreOrders, tx.Users, tx.Tokens = bind(sqlTx, s.dialect)
	if err := fn(tx); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return classify(fmt.Errorf("commit: %w", err))
	}
	committed = true
	return nil
}

func bind(q DBTX, d Dialect) (*TableRepo, *DishRepo, *ClientRepo, *ReservationRepo, *PreOrderRepo, *UserRepo, *TokenRepo) {
	return &TableRepo{q: q, dialect: d},
		&DishRepo{q: q, dialect: d},
		&ClientRepo{q: q},
		&ReservationRepo{q: q},
		&PreOrderRepo{q: q},
		&UserRepo{q: q},
		&TokenRepo{q: q}
}
