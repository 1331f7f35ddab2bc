package postgres

import (
	"embed"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigrationSource returns the schema migrations compiled into the binary.
func MigrationSource() (source.Driver, error) {
	return iofs.New(migrationFiles, "migrations")
}
