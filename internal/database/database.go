package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"farmacia/m/internal/config"
)

// Connect opens the database for the configured driver.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("could not connect to %s: %w", driver, err)
	}
	if driver == config.DriverSQLite {
		// sqlite allows a single writer; a shared in-memory database also needs the one connection kept alive.
		db.SetMaxOpenConns(1)
	}
	return db, nil
}
