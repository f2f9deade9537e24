// Package repository defines the SQL data access layer and the error
// values shared across repositories. Handlers and the booking service
// distinguish failure scenarios through these sentinels.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrTableNotFound       = errors.New("table not found")
	ErrDishNotFound        = errors.New("dish not found")
	ErrClientNotFound      = errors.New("client not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrLineNotFound        = errors.New("pre-order line not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrTokenInvalid        = errors.New("refresh token invalid")
)

// ErrDuplicate is returned when an insert or update violates a unique key.
var ErrDuplicate = errors.New("duplicate key")

// ErrReferenced is returned when a foreign key blocks a delete or insert.
var ErrReferenced = errors.New("foreign key violation")

// ErrSerialization is returned when the store aborted a transaction because
// of lock contention (deadlock, lock wait timeout or a busy database).
// Callers may retry the whole transaction.
var ErrSerialization = errors.New("transaction aborted by concurrent writer")

// MySQL server error numbers.
const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
)

// classify maps driver errors onto the package sentinels, keeping the
// original error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry:
			return fmt.Errorf("%w: %w", ErrDuplicate, err)
		case mysqlLockWaitTimeout, mysqlDeadlock:
			return fmt.Errorf("%w: %w", ErrSerialization, err)
		case mysqlRowIsReferenced, mysqlNoReferencedRow:
			return fmt.Errorf("%w: %w", ErrReferenced, err)
		}
		return err
	}
	// modernc.org/sqlite reports constraint and lock failures in the message.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %w", ErrReferenced, err)
	case strings.Contains(msg, "SQLITE_BUSY"), strings.Contains(msg, "database is locked"):
		return fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	return err
}
