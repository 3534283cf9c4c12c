package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// fakeRedis is an in-memory RedisCommands that records expirations.
type fakeRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeRedis) Get(_ context.Context, key string) *goredis.StringCmd {
	if f.err != nil {
		return goredis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd {
	if f.err != nil {
		return goredis.NewStatusResult("", f.err)
	}
	f.values[key] = value.(string)
	f.ttls[key] = expiration
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	if f.err != nil {
		return goredis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			delete(f.values, k)
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

func TestRedis_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	r := NewRedis(fake, "graywire")

	if _, ok, err := r.Fetch(ctx, "services.yaml"); err != nil || ok {
		t.Fatalf("Fetch(empty) = ok %v, err %v", ok, err)
	}

	if err := r.Store(ctx, "services.yaml", `{"a":1}`, 30*time.Second); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if fake.values["graywire:services.yaml"] != `{"a":1}` {
		t.Errorf("stored keys = %v, want graywire:services.yaml", fake.values)
	}
	if fake.ttls["graywire:services.yaml"] != 30*time.Second {
		t.Errorf("ttl = %v, want 30s", fake.ttls["graywire:services.yaml"])
	}

	got, ok, err := r.Fetch(ctx, "services.yaml")
	if err != nil || !ok || got != `{"a":1}` {
		t.Fatalf("Fetch() = %q, %v, %v", got, ok, err)
	}

	if err := r.Delete(ctx, "services.yaml"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := r.Fetch(ctx, "services.yaml"); ok {
		t.Error("entry still present after Delete")
	}
	if err := r.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete(missing) error = %v", err)
	}
}

func TestRedis_NoLifetime(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	r := NewRedis(fake, "")

	if err := r.Store(ctx, "k", "v", -time.Second); err != nil {
		t.Fatal(err)
	}
	if fake.ttls["k"] != 0 {
		t.Errorf("ttl = %v, want 0 (no expiry)", fake.ttls["k"])
	}

	removed, err := r.Purge(ctx)
	if err != nil || removed != 0 {
		t.Errorf("Purge() = %d, %v", removed, err)
	}
}

func TestRedis_Errors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")
	fake := newFakeRedis()
	fake.err = boom
	r := NewRedis(fake, "graywire")

	if _, _, err := r.Fetch(ctx, "k"); !errors.Is(err, boom) {
		t.Errorf("Fetch() error = %v, want %v", err, boom)
	}
	if err := r.Store(ctx, "k", "v", 0); !errors.Is(err, boom) {
		t.Errorf("Store() error = %v, want %v", err, boom)
	}
	if err := r.Delete(ctx, "k"); !errors.Is(err, boom) {
		t.Errorf("Delete() error = %v, want %v", err, boom)
	}
}

func TestRedis_CloseShared(t *testing.T) {
	r := NewRedis(newFakeRedis(), "graywire")
	if err := r.Close(); err != nil {
		t.Errorf("Close() on a shared connection error = %v", err)
	}
}
