// Package database provides SQLite connectivity for graywire.
//
// The database holds the persistent configuration cache (config_cache)
// and backs database.sqlite service definitions.
//
// This package manages:
//   - Connections with WAL mode and a busy timeout
//   - In-memory databases (Path ":memory:") for tests and ephemeral runs
//   - Schema migrations read from any fs.FS
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration Strategy:
//
// Migrations are additive. Each migration file has both .up.sql and
// .down.sql, and each is applied in its own transaction.
package database
