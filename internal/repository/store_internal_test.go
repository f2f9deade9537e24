package repository

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectLocking(t *testing.T) {
	assert.Equal(t, " FOR UPDATE", MySQL.lockClause())
	assert.Empty(t, SQLite.lockClause())

	// MySQL re-reads committed rows after waiting on a row lock.
	opts := MySQL.txOptions()
	require.NotNil(t, opts)
	assert.Equal(t, sql.LevelReadCommitted, opts.Isolation)
	assert.Nil(t, SQLite.txOptions())
}
