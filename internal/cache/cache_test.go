package cache

import (
	"context"
	"testing"
	"time"

	"github.com/nerrad567/graywire/internal/infrastructure/database"
	"github.com/nerrad567/graywire/migrations"
)

// fakeClock is a settable time source.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newSQLiteStore(t *testing.T, namespace string) *SQLite {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLite(db.DB, namespace)
}

// backends returns each implementation wired to the same fake clock.
func backends(t *testing.T, clock *fakeClock) map[string]Store {
	t.Helper()

	mem := NewMemory("test")
	mem.now = clock.now

	sq := newSQLiteStore(t, "test")
	sq.now = clock.now

	return map[string]Store{"memory": mem, "sqlite": sq}
}

func TestStore_RoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	ctx := context.Background()

	for name, store := range backends(t, clock) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := store.Fetch(ctx, "services.yaml"); err != nil || ok {
				t.Fatalf("Fetch(empty) = ok %v, err %v", ok, err)
			}

			if err := store.Store(ctx, "services.yaml", `{"a":1}`, 0); err != nil {
				t.Fatalf("Store() error = %v", err)
			}
			got, ok, err := store.Fetch(ctx, "services.yaml")
			if err != nil || !ok || got != `{"a":1}` {
				t.Fatalf("Fetch() = %q, %v, %v", got, ok, err)
			}

			if err := store.Store(ctx, "services.yaml", `{"a":2}`, 0); err != nil {
				t.Fatalf("Store(overwrite) error = %v", err)
			}
			if got, _, _ := store.Fetch(ctx, "services.yaml"); got != `{"a":2}` {
				t.Errorf("Fetch() after overwrite = %q", got)
			}

			if err := store.Delete(ctx, "services.yaml"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, ok, _ := store.Fetch(ctx, "services.yaml"); ok {
				t.Error("entry still present after Delete")
			}
			if err := store.Delete(ctx, "missing"); err != nil {
				t.Errorf("Delete(missing) error = %v", err)
			}
		})
	}
}

func TestStore_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	ctx := context.Background()

	for name, store := range backends(t, clock) {
		t.Run(name, func(t *testing.T) {
			if err := store.Store(ctx, "short", "s", 10*time.Second); err != nil {
				t.Fatal(err)
			}
			if err := store.Store(ctx, "forever", "f", 0); err != nil {
				t.Fatal(err)
			}

			clock.advance(5 * time.Second)
			if _, ok, _ := store.Fetch(ctx, "short"); !ok {
				t.Error("entry expired early")
			}

			clock.advance(5 * time.Second)
			if _, ok, _ := store.Fetch(ctx, "short"); ok {
				t.Error("entry served after expiry")
			}
			if _, ok, _ := store.Fetch(ctx, "forever"); !ok {
				t.Error("entry without lifetime expired")
			}

			if err := store.Store(ctx, "stale", "x", time.Second); err != nil {
				t.Fatal(err)
			}
			clock.advance(time.Second)

			removed, err := store.Purge(ctx)
			if err != nil {
				t.Fatalf("Purge() error = %v", err)
			}
			if removed < 1 {
				t.Errorf("Purge() removed %d, want at least 1", removed)
			}
			if _, ok, _ := store.Fetch(ctx, "forever"); !ok {
				t.Error("Purge removed a live entry")
			}
		})
	}
}

func TestSQLite_Namespaces(t *testing.T) {
	ctx := context.Background()

	a := newSQLiteStore(t, "alpha")
	b := NewSQLite(a.db, "beta")

	if err := a.Store(ctx, "k", "from-alpha", 0); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := b.Fetch(ctx, "k"); ok {
		t.Error("namespace beta sees alpha's entry")
	}

	var key string
	if err := a.db.QueryRowContext(ctx, "SELECT cache_key FROM config_cache").Scan(&key); err != nil {
		t.Fatal(err)
	}
	if key != "alpha:k" {
		t.Errorf("stored key = %q, want alpha:k", key)
	}
}

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()

	s, err := OpenSQLite(ctx, database.Config{Path: database.MemoryPath}, "graywire")
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	if err := s.Store(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, _, err := s.Fetch(ctx, "k"); err == nil {
		t.Error("Fetch() after Close should fail on the closed database")
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestSQLite_CloseShared(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t, "shared")

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Store(ctx, "k", "v", 0); err != nil {
		t.Errorf("shared database closed by cache: %v", err)
	}
}

func TestMemory_Len(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("")

	_ = m.Store(ctx, "a", "1", 0) //nolint:errcheck // Memory.Store never fails
	_ = m.Store(ctx, "b", "2", 0) //nolint:errcheck // Memory.Store never fails
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
	if got := namespaced("", "a"); got != "a" {
		t.Errorf("namespaced without namespace = %q", got)
	}
}
