package internal

import (
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

// Schema migrations ship inside the binary so a deploy needs no separate
// migration step; RunMigrations brings the database up to date at boot.
//
//go:embed migrations/*.sql
var migrations embed.FS

// RunMigrations applies any pending migrations. Safe to run on every start;
// an up-to-date database is a no-op.
func RunMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.Up(db, "migrations")
}
