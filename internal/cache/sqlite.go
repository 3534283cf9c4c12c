package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nerrad567/graywire/internal/infrastructure/database"
	"github.com/nerrad567/graywire/migrations"
)

// SQLite persists cache entries in the config_cache table, so resolved
// configuration survives restarts. The table is created by the
// config_cache migration.
type SQLite struct {
	db        *sql.DB
	namespace string
	now       func() time.Time

	// owned is closed by Close when the cache opened its own database.
	owned io.Closer
}

// NewSQLite wraps an open database. The schema must already be migrated.
func NewSQLite(db *sql.DB, namespace string) *SQLite {
	return &SQLite{
		db:        db,
		namespace: namespace,
		now:       time.Now,
	}
}

// OpenSQLite opens and migrates a dedicated database for the cache.
// Close releases it.
func OpenSQLite(ctx context.Context, cfg database.Config, namespace string) (*SQLite, error) {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("migrating cache database: %w", err)
	}

	s := NewSQLite(db.DB, namespace)
	s.owned = db
	return s, nil
}

// Close closes the database if the cache opened it. A cache created with
// NewSQLite leaves the shared database open.
func (s *SQLite) Close() error {
	if s.owned == nil {
		return nil
	}
	owned := s.owned
	s.owned = nil
	return owned.Close()
}

// Fetch returns the payload stored under key, if present and not expired.
// Expired rows are left for Purge.
func (s *SQLite) Fetch(ctx context.Context, key string) (string, bool, error) {
	var (
		payload   string
		expiresAt sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT payload, expires_at FROM config_cache WHERE cache_key = ?",
		namespaced(s.namespace, key),
	).Scan(&payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("fetching cache entry %q: %w", key, err)
	}

	if expiresAt.Valid && s.now().Unix() >= expiresAt.Int64 {
		return "", false, nil
	}
	return payload, true, nil
}

// Store upserts payload under key. A lifetime of zero or less never expires.
func (s *SQLite) Store(ctx context.Context, key, payload string, lifetime time.Duration) error {
	now := s.now()

	var expiresAt sql.NullInt64
	if lifetime > 0 {
		expiresAt = sql.NullInt64{Int64: now.Add(lifetime).Unix(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config_cache (cache_key, payload, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET
			payload = excluded.payload,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`, namespaced(s.namespace, key), payload, expiresAt, now.Unix())
	if err != nil {
		return fmt.Errorf("storing cache entry %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM config_cache WHERE cache_key = ?",
		namespaced(s.namespace, key),
	); err != nil {
		return fmt.Errorf("deleting cache entry %q: %w", key, err)
	}
	return nil
}

// Purge deletes expired rows across all namespaces.
func (s *SQLite) Purge(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM config_cache WHERE expires_at IS NOT NULL AND expires_at <= ?",
		s.now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	return int(n), nil
}
