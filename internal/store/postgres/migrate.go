package postgres

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx driver with database/sql
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// MigrateUp runs all pending migrations.
func MigrateUp(log *slog.Logger, dsn string) error {
	return migrate(log, dsn, "up", goose.Up)
}

// MigrateDown rolls back the last migration.
func MigrateDown(log *slog.Logger, dsn string) error {
	return migrate(log, dsn, "down", goose.Down)
}

// MigrateStatus prints the status of all migrations.
func MigrateStatus(log *slog.Logger, dsn string) error {
	return migrate(log, dsn, "status", goose.Status)
}

func migrate(log *slog.Logger, dsn, name string, fn func(*sql.DB, string, ...goose.OptionsFunc) error) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	log.Info("running postgres migrations", "direction", name)
	if err := fn(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations (%s): %w", name, err)
	}
	log.Info("postgres migrations completed", "direction", name)
	return nil
}
