// Package sqlstore implements db.Database on database/sql for PostgreSQL
// and SQLite. Queries are written with ? placeholders and rebound for
// PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"todo-app/internal/config"
	"todo-app/internal/logger"
	"todo-app/internal/repository/db"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

//go:embed migrations
var migrationsFS embed.FS

// Ensure SQLStore implements db.Database interface
var _ db.Database = (*SQLStore)(nil)

// SQLStore implements the db.Database interface
type SQLStore struct {
	conn       *sql.DB
	driverName string
}

// New opens a connection for the given driver, verifies it and applies
// pending migrations.
func New(driverName, dsn string) (*SQLStore, error) {
	switch driverName {
	case config.DriverPostgres:
	case config.DriverSQLite:
		dsn = withForeignKeys(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driverName)
	}

	logger.Log.WithField("driver", driverName).Info("Connecting to database")

	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if driverName == config.DriverSQLite {
		// An in-memory database lives and dies with its connection.
		conn.SetMaxOpenConns(1)
	}

	if err = conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	store := &SQLStore{conn: conn, driverName: driverName}

	if err = store.RunMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error running migrations: %w", err)
	}

	logger.Log.WithField("driver", driverName).Info("Database ready")

	return store, nil
}

// NewFromConfig opens the store described by the database config
func NewFromConfig(cfg config.DatabaseConfig) (*SQLStore, error) {
	return New(cfg.Driver, cfg.GetDSN())
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Ping checks that the database is reachable
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// RunMigrations applies the embedded migrations for the store's dialect
func (s *SQLStore) RunMigrations() error {
	source, err := iofs.New(migrationsFS, "migrations/"+s.driverName)
	if err != nil {
		return fmt.Errorf("error opening migration source: %w", err)
	}

	var m *migrate.Migrate
	switch s.driverName {
	case config.DriverPostgres:
		driver, err := migratepg.WithInstance(s.conn, &migratepg.Config{})
		if err != nil {
			return fmt.Errorf("error creating migration driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", source, "postgres", driver)
		if err != nil {
			return fmt.Errorf("error creating migration instance: %w", err)
		}
	default:
		driver, err := migratesqlite.WithInstance(s.conn, &migratesqlite.Config{})
		if err != nil {
			return fmt.Errorf("error creating migration driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", source, "sqlite3", driver)
		if err != nil {
			return fmt.Errorf("error creating migration instance: %w", err)
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error running migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("Database migrations applied successfully")
	return nil
}

// rebind replaces ? placeholders with $1, $2, ... for PostgreSQL
func (s *SQLStore) rebind(query string) string {
	if s.driverName != config.DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isUniqueViolation reports whether err is a unique constraint violation
// from either driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

// now returns the current time at the precision both dialects store.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
