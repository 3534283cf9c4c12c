package classes

import (
	"context"
	"fmt"

	"github.com/nerrad567/graywire/internal/cache"
	"github.com/nerrad567/graywire/internal/configtree"
	"github.com/nerrad567/graywire/internal/factory"
	"github.com/nerrad567/graywire/internal/infrastructure/database"
	"github.com/nerrad567/graywire/internal/infrastructure/influxdb"
	"github.com/nerrad567/graywire/internal/infrastructure/mqtt"
	"github.com/nerrad567/graywire/internal/infrastructure/redis"
	"github.com/nerrad567/graywire/migrations"
)

// Built-in class identifiers.
const (
	ClassContainer   = "container"
	ClassMemoryCache = "cache.memory"
	ClassSQLiteCache = "cache.sqlite"
	ClassRedisCache  = "cache.redis"
	ClassSQLite      = "database.sqlite"
	ClassRedis       = "redis.client"
	ClassMQTT        = "mqtt.client"
	ClassInfluxDB    = "influxdb.client"
)

// Register adds every built-in class to table.
func Register(table *factory.Table) error {
	builtins := []struct {
		class string
		ctor  factory.Constructor
	}{
		{ClassContainer, newContainer},
		{ClassMemoryCache, newMemoryCache},
		{ClassSQLiteCache, newSQLiteCache},
		{ClassRedisCache, newRedisCache},
		{ClassSQLite, newSQLite},
		{ClassRedis, newRedis},
		{ClassMQTT, newMQTT},
		{ClassInfluxDB, newInfluxDB},
	}

	for _, b := range builtins {
		if err := table.Register(b.class, b.ctor); err != nil {
			return err
		}
	}
	return nil
}

func newContainer(_ context.Context, params *configtree.Map) (any, error) {
	return NewContainer(params), nil
}

func newMemoryCache(_ context.Context, params *configtree.Map) (any, error) {
	namespace, err := factory.StringOr(params, "namespace", defaultNamespace)
	if err != nil {
		return nil, err
	}
	return cache.NewMemory(namespace), nil
}

// newSQLiteCache uses the injected database when "database" is given,
// typically a {reference} to a database.sqlite service, and otherwise
// opens its own from "path".
func newSQLiteCache(ctx context.Context, params *configtree.Map) (any, error) {
	namespace, err := factory.StringOr(params, "namespace", defaultNamespace)
	if err != nil {
		return nil, err
	}

	if params.Has("database") {
		db, err := factory.Instance[*database.DB](params, "database")
		if err != nil {
			return nil, err
		}
		// The referenced service migrated the schema when it was built.
		return cache.NewSQLite(db.DB, namespace), nil
	}

	cfg, err := databaseConfigFromParams(params)
	if err != nil {
		return nil, err
	}
	c, err := cache.OpenSQLite(ctx, cfg, namespace)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// newRedisCache shares the connection of a redis.client service when
// "client" is given, and otherwise dials its own from the connection params.
func newRedisCache(ctx context.Context, params *configtree.Map) (any, error) {
	namespace, err := factory.StringOr(params, "namespace", defaultNamespace)
	if err != nil {
		return nil, err
	}

	if params.Has("client") {
		client, err := factory.Instance[*redis.Client](params, "client")
		if err != nil {
			return nil, err
		}
		return cache.NewRedis(client.Commands(), namespace), nil
	}

	cfg, err := redisConfigFromParams(params)
	if err != nil {
		return nil, err
	}
	c, err := cache.DialRedis(ctx, cfg, namespace)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newRedis(ctx context.Context, params *configtree.Map) (any, error) {
	cfg, err := redisConfigFromParams(params)
	if err != nil {
		return nil, err
	}
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newSQLite(ctx context.Context, params *configtree.Map) (any, error) {
	cfg, err := databaseConfigFromParams(params)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("migrating %s: %w", cfg.Path, err)
	}
	return db, nil
}

func newMQTT(_ context.Context, params *configtree.Map) (any, error) {
	cfg, err := mqttConfigFromParams(params)
	if err != nil {
		return nil, err
	}
	client, err := mqtt.Connect(cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newInfluxDB(ctx context.Context, params *configtree.Map) (any, error) {
	cfg, err := influxConfigFromParams(params)
	if err != nil {
		return nil, err
	}
	client, err := influxdb.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}
