// Package testdb provides migrated sqlite databases for tests.
package testdb

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"farmacia/m/internal/config"
	"farmacia/m/internal/database"
	"farmacia/m/internal/migrations"
)

// New returns a fresh schema that is closed when the test ends.
func New(t *testing.T) *sqlx.DB {
	t.Helper()

	return open(t, "file::memory:?_pragma=foreign_keys(1)")
}

// NewFile returns a schema in a temporary file that several connections can write to at once.
// Transactions take the write lock when they begin and wait for it up to busy_timeout.
func NewFile(t *testing.T, conns int) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "farmacia.db")
	db := open(t, "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate")
	db.SetMaxOpenConns(conns)
	return db
}

func open(t *testing.T, dsn string) *sqlx.DB {
	t.Helper()

	db, err := database.Connect(config.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	require.NoError(t, migrations.Run(db, config.DriverSQLite, logger))

	return db
}
