// Package migrations embeds the SQL migrations for every supported store.
package migrations

import "embed"

// FS holds one directory of golang-migrate files per dialect: postgres and sqlite.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

const (
	PostgresDir = "postgres"
	SQLiteDir   = "sqlite"
)
