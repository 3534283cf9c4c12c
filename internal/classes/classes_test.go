package classes

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/nerrad567/graywire/internal/cache"
	"github.com/nerrad567/graywire/internal/configtree"
	"github.com/nerrad567/graywire/internal/factory"
	"github.com/nerrad567/graywire/internal/infrastructure/config"
	"github.com/nerrad567/graywire/internal/infrastructure/database"
	"github.com/nerrad567/graywire/internal/loader"
	"github.com/nerrad567/graywire/internal/registry"
	"github.com/nerrad567/graywire/internal/service"
)

func newTable(t *testing.T) *factory.Table {
	t.Helper()
	table := factory.NewTable()
	if err := Register(table); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return table
}

func newRegistry(t *testing.T, raw *configtree.Map) *registry.Registry {
	t.Helper()
	reg, err := registry.New(context.Background(), loader.New(loader.NewMapSource(nil)), newTable(t), registry.Literal(configtree.MapOf("services", raw)))
	if err != nil {
		t.Fatalf("registry.New() error = %v", err)
	}
	t.Cleanup(func() { reg.Close() }) //nolint:errcheck // Test cleanup
	return reg
}

func TestRegister(t *testing.T) {
	table := newTable(t)

	want := []string{
		ClassMemoryCache, ClassRedisCache, ClassSQLiteCache, ClassContainer,
		ClassSQLite, ClassInfluxDB, ClassMQTT, ClassRedis,
	}
	if got := table.Classes(); !reflect.DeepEqual(got, want) {
		t.Errorf("Classes() = %v, want %v", got, want)
	}

	if err := Register(table); !errors.Is(err, factory.ErrDuplicateClass) {
		t.Errorf("second Register() = %v, want ErrDuplicateClass", err)
	}
}

func TestContainer(t *testing.T) {
	reg := newRegistry(t, configtree.MapOf(
		"settings", configtree.MapOf(
			"class", ClassContainer,
			"params", configtree.MapOf("color", "blue", "size", 10),
		),
	))

	c, err := registry.Resolve[*Container](context.Background(), reg, "settings")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if v, ok := c.Get("color"); !ok || v != "blue" {
		t.Errorf("Get(color) = %v, %v", v, ok)
	}
	if v, _ := c.Get("size"); v != 10 {
		t.Errorf("Get(size) = %v", v)
	}

	c.Set("fish", "fugu")
	if !c.Has("fish") || c.Len() != 3 {
		t.Errorf("after Set: Has=%v Len=%d", c.Has("fish"), c.Len())
	}
	if got := c.Keys(); !reflect.DeepEqual(got, []string{"color", "size", "fish"}) {
		t.Errorf("Keys() = %v", got)
	}

	c.Delete("color")
	var keys []string
	for k := range c.All() {
		keys = append(keys, k)
	}
	if !reflect.DeepEqual(keys, []string{"size", "fish"}) {
		t.Errorf("All() keys = %v", keys)
	}
}

func TestContainer_CopiesParams(t *testing.T) {
	params := configtree.MapOf("a", 1)
	c := NewContainer(params)
	params.Set("b", 2)

	if c.Has("b") {
		t.Error("container shares storage with params")
	}
	if NewContainer(nil).Len() != 0 {
		t.Error("NewContainer(nil) is not empty")
	}
}

func TestMemoryCache(t *testing.T) {
	reg := newRegistry(t, configtree.MapOf(
		"cache", configtree.MapOf("class", ClassMemoryCache),
	))

	c, err := registry.Resolve[*cache.Memory](context.Background(), reg, "cache")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if err := c.Store(context.Background(), "k", "v", 0); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d", c.Len())
	}
}

func TestSQLiteCache_WithDatabaseReference(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, configtree.MapOf(
		"state_db", configtree.MapOf(
			"class", ClassSQLite,
			"params", configtree.MapOf("path", database.MemoryPath),
		),
		"config_cache", configtree.MapOf(
			"class", ClassSQLiteCache,
			"params", configtree.MapOf("database", "{state_db}", "namespace", "site-a"),
		),
	))

	c, err := registry.Resolve[*cache.SQLite](ctx, reg, "config_cache")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if err := c.Store(ctx, "services.yaml", "{}", 0); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	db, err := registry.Resolve[*database.DB](ctx, reg, "state_db")
	if err != nil {
		t.Fatalf("Resolve(state_db) error = %v", err)
	}
	var key string
	if err := db.QueryRowContext(ctx, "SELECT cache_key FROM config_cache").Scan(&key); err != nil {
		t.Fatalf("query: %v", err)
	}
	if key != "site-a:services.yaml" {
		t.Errorf("cache_key = %q", key)
	}

	if got := reg.Instances(); !reflect.DeepEqual(got, []string{"state_db", "config_cache"}) {
		t.Errorf("Instances() = %v, want state_db first", got)
	}
}

func TestSQLiteCache_OwnDatabase(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, configtree.MapOf(
		"config_cache", configtree.MapOf(
			"class", ClassSQLiteCache,
			"params", configtree.MapOf("path", database.MemoryPath),
		),
	))

	c, err := registry.Resolve[*cache.SQLite](ctx, reg, "config_cache")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if err := c.Store(ctx, "k", "v", 0); err != nil {
		t.Errorf("Store() error = %v", err)
	}
}

func TestSQLiteCache_Errors(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, configtree.MapOf(
		"no_path", configtree.MapOf("class", ClassSQLiteCache),
		"bad_ref", configtree.MapOf(
			"class", ClassSQLiteCache,
			"params", configtree.MapOf("database", "not-a-reference"),
		),
	))

	if _, err := reg.Get(ctx, "no_path"); !errors.Is(err, service.ErrMissingKey) {
		t.Errorf("no_path error = %v, want ErrMissingKey", err)
	}
	if _, err := reg.Get(ctx, "bad_ref"); !errors.Is(err, service.ErrTypeMismatch) {
		t.Errorf("bad_ref error = %v, want ErrTypeMismatch", err)
	}
}

func TestRedisCache_Errors(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, configtree.MapOf(
		"bad_ref", configtree.MapOf(
			"class", ClassRedisCache,
			"params", configtree.MapOf("client", "not-a-reference"),
		),
		"bad_db", configtree.MapOf(
			"class", ClassRedisCache,
			"params", configtree.MapOf("db", -1),
		),
	))

	if _, err := reg.Get(ctx, "bad_ref"); !errors.Is(err, service.ErrTypeMismatch) {
		t.Errorf("bad_ref error = %v, want ErrTypeMismatch", err)
	}
	if _, err := reg.Get(ctx, "bad_db"); err == nil {
		t.Error("bad_db should fail")
	}
}

func TestRedisConfigFromParams(t *testing.T) {
	cfg, err := redisConfigFromParams(configtree.NewMap())
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	want := config.RedisConfig{Addr: "localhost:6379", DialTimeout: 5}
	if cfg != want {
		t.Errorf("defaults = %+v, want %+v", cfg, want)
	}

	cfg, err = redisConfigFromParams(configtree.MapOf("addr", "cache:6380", "password", "pw", "db", "3"))
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	want = config.RedisConfig{Addr: "cache:6380", Password: "pw", DB: 3, DialTimeout: 5}
	if cfg != want {
		t.Errorf("cfg = %+v, want %+v", cfg, want)
	}

	if _, err := redisConfigFromParams(configtree.MapOf("db", []any{1})); !errors.Is(err, service.ErrTypeMismatch) {
		t.Errorf("list db error = %v, want ErrTypeMismatch", err)
	}
}

func TestDatabaseConfigFromParams(t *testing.T) {
	cfg, err := databaseConfigFromParams(configtree.MapOf("path", "/tmp/x.db"))
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	want := database.Config{Path: "/tmp/x.db", WALMode: true, BusyTimeout: defaultBusyTimeout}
	if cfg != want {
		t.Errorf("cfg = %+v, want %+v", cfg, want)
	}

	cfg, err = databaseConfigFromParams(configtree.MapOf("path", "x.db", "wal_mode", false, "busy_timeout", "2"))
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if cfg.WALMode || cfg.BusyTimeout != 2 {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := databaseConfigFromParams(configtree.NewMap()); !errors.Is(err, service.ErrMissingKey) {
		t.Errorf("missing path error = %v", err)
	}
}

func TestMQTTConfigFromParams(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := mqttConfigFromParams(configtree.NewMap())
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		if cfg.Broker.Host != "localhost" || cfg.Broker.Port != 1883 || cfg.Broker.ClientID != "graywire" {
			t.Errorf("broker = %+v", cfg.Broker)
		}
		if cfg.QoS != 1 || cfg.Reconnect.InitialDelay != 1 || cfg.Reconnect.MaxDelay != 60 {
			t.Errorf("cfg = %+v", cfg)
		}
		if !cfg.Enabled || cfg.TopicPrefix != "graywire" {
			t.Errorf("enabled=%v prefix=%q", cfg.Enabled, cfg.TopicPrefix)
		}
	})

	t.Run("configured", func(t *testing.T) {
		cfg, err := mqttConfigFromParams(configtree.MapOf(
			"host", "broker.local",
			"port", 8883,
			"tls", true,
			"client_id", "site-a",
			"username", "svc",
			"password", "secret",
			"qos", 2,
			"reconnect", configtree.MapOf("initial_delay", 2, "max_delay", 30),
		))
		if err != nil {
			t.Fatalf("error = %v", err)
		}
		if cfg.Broker.Host != "broker.local" || cfg.Broker.Port != 8883 || !cfg.Broker.TLS {
			t.Errorf("broker = %+v", cfg.Broker)
		}
		if cfg.Auth.Username != "svc" || cfg.Auth.Password != "secret" || cfg.QoS != 2 {
			t.Errorf("cfg = %+v", cfg)
		}
		if cfg.Reconnect.InitialDelay != 2 || cfg.Reconnect.MaxDelay != 30 {
			t.Errorf("reconnect = %+v", cfg.Reconnect)
		}
	})

	tests := []struct {
		name   string
		params *configtree.Map
		want   error
	}{
		{"port not a number", configtree.MapOf("port", "abc"), service.ErrTypeMismatch},
		{"tls not a bool", configtree.MapOf("tls", "yes please"), service.ErrTypeMismatch},
		{"reconnect not a map", configtree.MapOf("reconnect", 5), service.ErrTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := mqttConfigFromParams(tt.params); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := mqttConfigFromParams(configtree.MapOf("qos", 3)); err == nil {
		t.Error("qos 3 accepted")
	}
}

func TestInfluxConfigFromParams(t *testing.T) {
	cfg, err := influxConfigFromParams(configtree.MapOf(
		"url", "http://influx:8086",
		"token", "t",
		"org", "graywire",
		"bucket", "builds",
	))
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if !cfg.Enabled || cfg.URL != "http://influx:8086" || cfg.Bucket != "builds" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.BatchSize != 100 || cfg.FlushInterval != 10 {
		t.Errorf("batching = %d/%d", cfg.BatchSize, cfg.FlushInterval)
	}

	if _, err := influxConfigFromParams(configtree.NewMap()); !errors.Is(err, service.ErrMissingKey) {
		t.Errorf("missing url error = %v", err)
	}
}
