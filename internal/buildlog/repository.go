package buildlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/graywire/internal/registry"
)

// Page size bounds for List.
const (
	defaultLimit = 50
	maxLimit     = 200
)

// Entry is one recorded instantiation.
type Entry struct {
	ID         string    `json:"id"`
	Service    string    `json:"service"`
	Class      string    `json:"class"`
	Cached     bool      `json:"cached"`
	Failed     bool      `json:"failed"`
	Error      string    `json:"error,omitempty"`
	DurationMS float64   `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// FromEvent converts a registry build event recorded at at.
func FromEvent(ev registry.BuildEvent, at time.Time) Entry {
	e := Entry{
		Service:    ev.Name,
		Class:      ev.Class,
		Cached:     ev.Cached,
		Failed:     ev.Err != nil,
		DurationMS: float64(ev.Duration) / float64(time.Millisecond),
		CreatedAt:  at,
	}
	if ev.Err != nil {
		e.Error = ev.Err.Error()
	}
	return e
}

// Filter controls which entries to return.
type Filter struct {
	Service    string // optional: exact service name
	Class      string // optional: exact class identifier
	FailedOnly bool   // only builds that returned an error
	Limit      int    // default 50, max 200
	Offset     int    // pagination offset
}

// ListResult contains one page of entries.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository defines the build log operations.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores entries in the build_log table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository over a migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts e. The ID and CreatedAt are generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = "bld-" + uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO build_log (id, service, class, cached, failed, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Service, e.Class,
		boolToInt(e.Cached), boolToInt(e.Failed),
		nullableString(e.Error), e.DurationMS,
		e.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("inserting build log entry: %w", err)
	}
	return nil
}

// List returns entries matching filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any

	if filter.Service != "" {
		conditions = append(conditions, "service = ?")
		args = append(args, filter.Service)
	}
	if filter.Class != "" {
		conditions = append(conditions, "class = ?")
		args = append(args, filter.Class)
	}
	if filter.FailedOnly {
		conditions = append(conditions, "failed = 1")
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM build_log %s", where) //nolint:gosec // WHERE built from parameterised conditions, not user input
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting build log entries: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions, not user input
		"SELECT id, service, class, cached, failed, error, duration_ms, created_at FROM build_log %s ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?",
		where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying build log: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e              Entry
			cached, failed int
			errText        sql.NullString
			createdAt      int64
		)
		if err := rows.Scan(&e.ID, &e.Service, &e.Class, &cached, &failed,
			&errText, &e.DurationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning build log entry: %w", err)
		}
		e.Cached = cached != 0
		e.Failed = failed != 0
		e.Error = errText.String
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating build log: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

// Prune deletes entries recorded before cutoff and returns how many went.
func (r *SQLiteRepository) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM build_log WHERE created_at < ?", cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("pruning build log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning build log: %w", err)
	}
	return int(n), nil
}

// nullableString returns nil for empty strings, or the string otherwise.
// Used for nullable TEXT columns in SQLite.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
