package migrations

import (
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"farmacia/m/internal/config"
)

//go:embed sql
var files embed.FS

// Run applies the schema migrations for the connection's dialect.
func Run(db *sqlx.DB, driver string, logger *logrus.Logger) error {
	dialect, dir := "sqlite3", "sql/sqlite"
	if driver == config.DriverPostgres {
		dialect, dir = "postgres", "sql/postgres"
	}

	goose.SetBaseFS(files)
	if logger != nil {
		goose.SetLogger(logger)
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("could not set migration dialect: %w", err)
	}
	if err := goose.Up(db.DB, dir); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
