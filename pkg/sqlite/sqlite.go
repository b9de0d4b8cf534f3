// Package sqlite opens sqlx connections to SQLite (modernc, pure Go) or to a
// remote libSQL/Turso database and applies schema migrations.
package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

const (
	localDriverName  = "sqlite"
	remoteDriverName = "libsql"
)

const defaultBusyTimeoutMillis = 5000

// DriverName returns the database/sql driver serving dsn.
// libsql:// and wss:// URLs go to the libSQL client, everything else to local SQLite.
func DriverName(dsn string) string {
	if strings.HasPrefix(dsn, "libsql://") || strings.HasPrefix(dsn, "wss://") {
		return remoteDriverName
	}
	return localDriverName
}

// New connects to the database at dsn.
//
// The pool is limited to a single connection: SQLite admits one writer at a
// time and an in-memory database only lives as long as its connection.
func New(ctx context.Context, dsn string) (*sqlx.DB, error) {
	const op = "sqlite.New"

	driver := DriverName(dsn)

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)

	if driver == localDriverName {
		pragma := fmt.Sprintf("PRAGMA busy_timeout = %d", defaultBusyTimeoutMillis)
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: failed to set busy timeout: %w", op, err)
		}
	}

	return db, nil
}
