package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"

	auth "github.com/goliatone/go-jwt-auth"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// OpenOption configures Open
type OpenOption func(*bun.DB)

// WithQueryDebug logs every query to stdout
func WithQueryDebug(enabled bool) OpenOption {
	return func(db *bun.DB) {
		if enabled {
			db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
		}
	}
}

// Open connects to the database for the given driver
func Open(driver, dsn string, opts ...OpenOption) (*bun.DB, error) {
	var db *bun.DB

	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite:
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "open sqlite")
		}
		// shared in memory databases vanish with their last connection
		sqldb.SetMaxIdleConns(1)
		sqldb.SetConnMaxLifetime(0)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case DriverPostgres:
		sqldb, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "open postgres")
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, goerrors.New(fmt.Sprintf("unsupported database driver %q", driver), goerrors.CategoryBadInput)
	}

	for _, opt := range opts {
		if opt != nil {
			opt(db)
		}
	}

	return db, nil
}

// CreateSchema creates the users table when missing
func CreateSchema(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateTable().
		Model((*auth.User)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "create users table")
	}
	return nil
}
