package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"dynamoBack/migrations"
)

// Dialect selects placeholder style and migration set.
type Dialect string

const (
	DialectPostgres Dialect = "pgx"
	DialectMySQL    Dialect = "mysql"
)

// OpenDB opens and pings a pool for the given driver name ("pgx" or "mysql").
func OpenDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	dsn, err := normalizeDSN(driver, dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

// normalizeDSN makes MySQL return DATETIME columns as time.Time in UTC.
func normalizeDSN(driver, dsn string) (string, error) {
	if Dialect(driver) != DialectMySQL {
		return dsn, nil
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}
	return cfg.FormatDSN(), nil
}

// RunMigrations applies the embedded schema for the dialect and returns the resulting version.
func RunMigrations(db *sql.DB, dialect Dialect) (uint, error) {
	var (
		driver database.Driver
		dir    string
		name   string
		err    error
	)
	switch dialect {
	case DialectPostgres:
		dir, name = "postgres", "postgres"
		driver, err = migratepg.WithInstance(db, &migratepg.Config{})
	case DialectMySQL:
		dir, name = "mysql", "mysql"
		driver, err = migratemysql.WithInstance(db, &migratemysql.Config{})
	default:
		return 0, fmt.Errorf("unsupported dialect %q", dialect)
	}
	if err != nil {
		return 0, fmt.Errorf("create migration driver: %w", err)
	}

	src, err := iofs.New(migrations.FS, dir)
	if err != nil {
		return 0, fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, name, driver)
	if err != nil {
		return 0, fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("migration %d is dirty", version)
	}
	return version, nil
}

// rebind turns ? placeholders into $n for Postgres.
func rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
