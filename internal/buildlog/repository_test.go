package buildlog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/graywire/internal/infrastructure/database"
	"github.com/nerrad567/graywire/internal/registry"
	"github.com/nerrad567/graywire/migrations"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func TestFromEvent(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ok := FromEvent(registry.BuildEvent{Name: "db", Class: "database.sqlite", Duration: 1500 * time.Microsecond}, at)
	if ok.Failed || ok.Error != "" || ok.DurationMS != 1.5 || !ok.CreatedAt.Equal(at) {
		t.Errorf("FromEvent(success) = %+v", ok)
	}

	failed := FromEvent(registry.BuildEvent{Name: "db", Class: "database.sqlite", Cached: true, Err: errors.New("boom")}, at)
	if !failed.Failed || failed.Error != "boom" || !failed.Cached {
		t.Errorf("FromEvent(failure) = %+v", failed)
	}
}

func TestCreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []Entry{
		{Service: "db", Class: "database.sqlite", DurationMS: 3, CreatedAt: base},
		{Service: "cache", Class: "cache.sqlite", Cached: true, DurationMS: 1, CreatedAt: base.Add(time.Second)},
		{Service: "mqtt", Class: "mqtt.client", Failed: true, Error: "connection refused", CreatedAt: base.Add(2 * time.Second)},
	}
	for i := range entries {
		if err := repo.Create(ctx, &entries[i]); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if !strings.HasPrefix(entries[i].ID, "bld-") {
			t.Errorf("ID = %q, want bld- prefix", entries[i].ID)
		}
	}

	res, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 3 || len(res.Entries) != 3 || res.Limit != defaultLimit {
		t.Fatalf("List() = total %d, %d entries, limit %d", res.Total, len(res.Entries), res.Limit)
	}
	if res.Entries[0].Service != "mqtt" || res.Entries[2].Service != "db" {
		t.Errorf("order = %s, %s, %s; want newest first",
			res.Entries[0].Service, res.Entries[1].Service, res.Entries[2].Service)
	}
	got := res.Entries[0]
	if !got.Failed || got.Error != "connection refused" || !got.CreatedAt.Equal(base.Add(2*time.Second)) {
		t.Errorf("entry = %+v", got)
	}
	if !res.Entries[1].Cached || res.Entries[1].Error != "" {
		t.Errorf("cached entry = %+v", res.Entries[1])
	}
}

func TestList_Filters(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	for _, e := range []Entry{
		{Service: "db", Class: "database.sqlite"},
		{Service: "db", Class: "database.sqlite", Failed: true, Error: "locked"},
		{Service: "cache", Class: "cache.memory"},
	} {
		if err := repo.Create(ctx, &e); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		total  int
		page   int
	}{
		{"all", Filter{}, 3, 3},
		{"by service", Filter{Service: "db"}, 2, 2},
		{"by class", Filter{Class: "cache.memory"}, 1, 1},
		{"failed only", Filter{FailedOnly: true}, 1, 1},
		{"paged", Filter{Limit: 2, Offset: 2}, 3, 1},
		{"no match", Filter{Service: "ghost"}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if res.Total != tt.total || len(res.Entries) != tt.page {
				t.Errorf("total = %d, page = %d; want %d, %d", res.Total, len(res.Entries), tt.total, tt.page)
			}
		})
	}
}

func TestList_ClampsLimit(t *testing.T) {
	repo := newTestRepo(t)

	res, err := repo.List(context.Background(), Filter{Limit: 1000, Offset: -5})
	if err != nil {
		t.Fatal(err)
	}
	if res.Limit != maxLimit || res.Offset != 0 {
		t.Errorf("limit = %d, offset = %d", res.Limit, res.Offset)
	}
	if res.Entries == nil {
		t.Error("Entries is nil, want empty slice")
	}
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	now := time.Now().UTC()

	old := Entry{Service: "old", Class: "container", CreatedAt: now.Add(-48 * time.Hour)}
	recent := Entry{Service: "recent", Class: "container", CreatedAt: now}
	for _, e := range []*Entry{&old, &recent} {
		if err := repo.Create(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	n, err := repo.Prune(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Prune() = %d, want 1", n)
	}

	res, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 1 || res.Entries[0].Service != "recent" {
		t.Errorf("remaining = %+v", res.Entries)
	}
}
