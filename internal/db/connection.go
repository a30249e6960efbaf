package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema of users, tweets and sessions
//
//go:embed migrations/*.sql
var migrations embed.FS

// Schema version is left dirty by a migration failed halfway, it has to be fixed by hand
var ErrDirtySchema = errors.New("database schema is dirty")

// golang-migrate pgx driver is registered under 'pgx5' scheme only
func migrateDSN(dsn string) string {
	return strings.NewReplacer(
		"postgres://", "pgx5://",
		"postgresql://", "pgx5://",
	).Replace(dsn)
}

func withMigrator(dsn string, fn func(m *migrate.Migrate) error) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("can't read embedded migrations. Err: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateDSN(dsn))
	if err != nil {
		return fmt.Errorf("error while preparing migrator. Err: %w", err)
	}
	defer m.Close() // nolint:errcheck

	return fn(m)
}

// Apply every pending migration
func Migrate(dsn string) error {
	return withMigrator(dsn, func(m *migrate.Migrate) error {
		err := m.Up()
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("error while applying migrations. Err: %w", err)
		}
		return nil
	})
}

// Current schema version, zero if nothing applied
func SchemaVersion(dsn string) (uint, error) {
	var version uint
	err := withMigrator(dsn, func(m *migrate.Migrate) error {
		v, dirty, err := m.Version()
		switch {
		case errors.Is(err, migrate.ErrNilVersion):
			return nil
		case err != nil:
			return err
		case dirty:
			return fmt.Errorf("%w: version %d", ErrDirtySchema, v)
		}
		version = v
		return nil
	})
	return version, err
}

// Open pool and make sure the database answers
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid database dsn. Err: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("cant initialize connection pool. Err: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database is not reachable. Err: %w", err)
	}

	return pool, nil
}

// Connect first so unreachable database fails fast, then bring schema up to date
func ConnectAndMigrate(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}

	if err := Migrate(dsn); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := SchemaVersion(dsn); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}
