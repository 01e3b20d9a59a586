// Package database owns the PostgreSQL connection pool and schema setup.
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Options configures the pool
type Options struct {
	DSN          string
	MaxOpenConns int
	InitTimeout  time.Duration
}

// Open creates a bounded connection pool and verifies it within the init timeout.
// database/sql queues callers once MaxOpenConns are in use instead of failing them.
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxOpenConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, opts.InitTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Migrate acquires a single connection, applies the embedded schema and releases
// the connection. It gives up when timeout elapses.
func Migrate(ctx context.Context, db *sql.DB, timeout time.Duration, log *logrus.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Setup statements observe ctx, so a stall before m.Up surfaces as an error here.
	fail := func(msg string, err error) error {
		if ctx.Err() != nil {
			return timedOut(timeout, ctx.Err())
		}
		return fmt.Errorf("%s: %w", msg, err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return fail("failed to acquire connection", err)
	}

	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		conn.Close()
		return fail("failed to create migration driver", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		driver.Close()
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		src.Close()
		driver.Close()
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- m.Up()
	}()

	select {
	case err := <-done:
		// Closing the migrator closes the driver, which releases conn back to the pool.
		defer m.Close()
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	case <-ctx.Done():
		// The caller aborts the process; the stuck connection is not reclaimed.
		m.GracefulStop <- true
		return timedOut(timeout, ctx.Err())
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("Database schema initialized")
	return nil
}

func timedOut(timeout time.Duration, err error) error {
	return fmt.Errorf("schema initialization timed out after %s: %w", timeout, err)
}
