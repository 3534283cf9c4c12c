package main

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/graywire/internal/cache"
	"github.com/nerrad567/graywire/internal/infrastructure/config"
	"github.com/nerrad567/graywire/internal/infrastructure/database"
	"github.com/nerrad567/graywire/internal/infrastructure/redis"
	"github.com/nerrad567/graywire/internal/service"
)

const testServices = `
services:
  settings:
    class: container
    params:
      region: eu-west
  scratch:
    class: cache.memory
    params:
      namespace: scratch
`

// writeConfig writes the services file and a process config into a temp dir
// and points GRAYWIRE_CONFIG at it. preload is a YAML flow list; extra is
// appended to the process config.
func writeConfig(t *testing.T, services, preload, extra string) string {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "services.yaml"), []byte(services), 0600); err != nil {
		t.Fatalf("failed to write services file: %v", err)
	}

	content := `
services:
  root: "` + dir + `"
  files: ["services.yaml"]
  preload: ` + preload + `
logging:
  level: error
  format: text
  output: stdout
` + extra

	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("GRAYWIRE_CONFIG", configPath)
	return dir
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("GRAYWIRE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, getConfigPath()); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func TestRun_StartsAndStops(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cache.db")
	writeConfig(t, testServices, "[settings, scratch]", `
cache:
  backend: sqlite
database:
  path: "`+dbPath+`"
build_log:
  enabled: true
  retention_days: 30
metrics:
  enabled: true
`)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx, getConfigPath()); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	db, err := database.Open(context.Background(), database.Config{Path: dbPath, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("reopening cache database: %v", err)
	}
	defer db.Close()

	var key string
	if err := db.QueryRowContext(context.Background(), "SELECT cache_key FROM config_cache").Scan(&key); err != nil {
		t.Fatalf("reading cache: %v", err)
	}
	if key != "graywire:services.yaml" {
		t.Errorf("cache_key = %q, want graywire:services.yaml", key)
	}

	var builds int
	if err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM build_log").Scan(&builds); err != nil {
		t.Fatalf("reading build log: %v", err)
	}
	if builds != 2 {
		t.Errorf("build_log rows = %d, want 2 (one per preloaded service)", builds)
	}
}

func TestRun_MissingServicesFile(t *testing.T) {
	dir := writeConfig(t, testServices, "[]", "")
	if err := os.Remove(filepath.Join(dir, "services.yaml")); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, getConfigPath()); !errors.Is(err, service.ErrSourceNotFound) {
		t.Errorf("run() error = %v, want ErrSourceNotFound", err)
	}
}

func TestPreload_UnknownService(t *testing.T) {
	writeConfig(t, testServices, "[ghost]", "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, getConfigPath()); !errors.Is(err, service.ErrNoSuchService) {
		t.Errorf("run() error = %v, want ErrNoSuchService", err)
	}
}

func TestOpenDatabase(t *testing.T) {
	cfg := &config.Config{Cache: config.CacheConfig{Backend: config.CacheMemory}}
	db, err := openDatabase(context.Background(), cfg)
	if err != nil || db != nil {
		t.Fatalf("openDatabase(memory cache) = %v, %v; want nil, nil", db, err)
	}

	cfg.BuildLog.Enabled = true
	cfg.Database.Path = database.MemoryPath
	db, err = openDatabase(context.Background(), cfg)
	if err != nil {
		t.Fatalf("openDatabase(build log) error = %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM build_log").Scan(&n); err != nil {
		t.Errorf("build_log not migrated: %v", err)
	}
}

func TestOpenCache(t *testing.T) {
	ctx := context.Background()
	open := func(backend string, db *database.DB) cache.Store {
		t.Helper()
		store, err := openCache(ctx, &config.Config{Cache: config.CacheConfig{Backend: backend}}, db)
		if err != nil {
			t.Fatalf("openCache(%s) error = %v", backend, err)
		}
		return store
	}

	if store := open(config.CacheNone, nil); store != nil {
		t.Errorf("openCache(none) = %T, want nil", store)
	}

	if _, ok := open(config.CacheMemory, nil).(*cache.Memory); !ok {
		t.Error("openCache(memory) is not *cache.Memory")
	}

	db, err := database.Open(ctx, database.Config{Path: database.MemoryPath})
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, ok := open(config.CacheSQLite, db).(*cache.SQLite); !ok {
		t.Error("openCache(sqlite) is not *cache.SQLite")
	}
}

func TestOpenCache_RedisUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close() //nolint:errcheck // Only the port number is needed

	cfg := &config.Config{
		Cache: config.CacheConfig{Backend: config.CacheRedis},
		Redis: config.RedisConfig{Addr: addr, DialTimeout: 1},
	}
	if _, err := openCache(context.Background(), cfg, nil); !errors.Is(err, redis.ErrConnectionFailed) {
		t.Errorf("openCache(redis) error = %v, want ErrConnectionFailed", err)
	}
}

func TestHealthCheck_AllDisabled(t *testing.T) {
	if err := healthCheck(context.Background(), nil, nil, nil, nil); err != nil {
		t.Errorf("healthCheck() = %v, want nil", err)
	}
}

func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("GRAYWIRE_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("GRAYWIRE_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}
