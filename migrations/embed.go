// Package migrations embeds the graywire SQL schema migrations.
//
// Files follow YYYYMMDD_HHMMSS_description.{up,down}.sql and are applied
// by database.DB.Migrate.
package migrations

import "embed"

// FS holds the migration files at its root.
//
//go:embed *.sql
var FS embed.FS
