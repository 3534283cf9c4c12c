// graywire resolves declarative service configuration and serves it.
//
// The serve command (also the default) loads the service files named in
// its own configuration, merges them into one registry, builds the services
// listed for preload, and then exposes the result over an optional
// inspection API. Build events can be reported to MQTT, InfluxDB, and
// Prometheus or kept in a SQLite build log, and cached configuration is
// invalidated by MQTT message.
//
// The services, show, and check commands inspect the same configuration
// from the command line without starting anything.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/graywire/internal/api"
	"github.com/nerrad567/graywire/internal/buildlog"
	"github.com/nerrad567/graywire/internal/cache"
	"github.com/nerrad567/graywire/internal/classes"
	"github.com/nerrad567/graywire/internal/factory"
	"github.com/nerrad567/graywire/internal/infrastructure/config"
	"github.com/nerrad567/graywire/internal/infrastructure/database"
	"github.com/nerrad567/graywire/internal/infrastructure/influxdb"
	"github.com/nerrad567/graywire/internal/infrastructure/logging"
	"github.com/nerrad567/graywire/internal/infrastructure/mqtt"
	"github.com/nerrad567/graywire/internal/loader"
	"github.com/nerrad567/graywire/internal/metrics"
	"github.com/nerrad567/graywire/internal/registry"
	"github.com/nerrad567/graywire/internal/telemetry"
	"github.com/nerrad567/graywire/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the serve command, separated from the CLI for testability.
// It blocks until ctx is cancelled.
func run(ctx context.Context, configPath string) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting graywire",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	if db != nil {
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("database ready", "path", cfg.Database.Path)
	}

	store, err := openCache(ctx, cfg, db)
	if err != nil {
		return fmt.Errorf("opening config cache: %w", err)
	}
	if closer, ok := store.(io.Closer); ok {
		defer func() {
			if closeErr := closer.Close(); closeErr != nil {
				log.Error("error closing config cache", "error", closeErr)
			}
		}()
	}
	log.Info("config cache ready", "backend", cfg.Cache.Backend, "lifetime", cfg.CacheLifetime())

	var collectors *metrics.Metrics
	if cfg.Metrics.Enabled {
		collectors = metrics.New()
		store = collectors.InstrumentCache(store)
		log.Info("metrics enabled")
	}

	reg, table, err := loadServices(ctx, cfg, log, store)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing services")
		if closeErr := reg.Close(); closeErr != nil {
			log.Error("error closing services", "error", closeErr)
		}
	}()
	log.Info("services loaded", "files", cfg.Services.Files, "services", len(reg.Names()))

	reporter := telemetry.New().WithLogger(log.Component("telemetry"))
	if collectors != nil {
		collectors.WatchRegistry(reg)
		reporter.WithMetrics(collectors)
	}

	var history buildlog.Repository
	if cfg.BuildLog.Enabled {
		repo := buildlog.NewSQLiteRepository(db.DB)
		if retention := cfg.BuildLogRetention(); retention > 0 {
			pruned, pruneErr := repo.Prune(ctx, time.Now().Add(-retention))
			if pruneErr != nil {
				return fmt.Errorf("pruning build log: %w", pruneErr)
			}
			log.Info("build log pruned", "removed", pruned, "retention", retention)
		}
		reporter.WithHistory(repo)
		history = repo
	}

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.Component("mqtt"))
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		topics := mqttClient.Topics()
		reporter.WithMQTT(mqttClient, topics)

		if store != nil {
			handler := telemetry.InvalidationHandler(store, log.Component("telemetry"))
			if subErr := mqttClient.Subscribe(topics.CacheInvalidate(), byte(cfg.MQTT.QoS), handler); subErr != nil {
				return fmt.Errorf("subscribing to cache invalidation: %w", subErr)
			}
			log.Info("listening for cache invalidation", "topic", topics.CacheInvalidate())
		}
	} else {
		log.Info("MQTT disabled")
	}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		reporter.WithInfluxDB(influxClient)
	} else {
		log.Info("InfluxDB disabled")
	}

	if reporter.Enabled() {
		reg.SetBuildHook(reporter.Report)
	}

	if err := preload(ctx, reg, cfg.Services.Preload); err != nil {
		return err
	}
	log.Info("services preloaded", "instances", reg.Instances())

	var apiServer *api.Server
	if cfg.API.Enabled {
		deps := api.Deps{
			Config:   cfg.API,
			Logger:   log.Component("api"),
			Registry: reg,
			Classes:  table,
			BuildLog: history,
			Version:  version,
		}
		if collectors != nil {
			deps.Metrics = collectors.Handler()
		}
		apiServer, err = api.New(deps)
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := apiServer.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("API disabled")
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient, apiServer); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred functions run here in reverse order:
	// API, InfluxDB, MQTT, services, cache, database

	log.Info("graywire stopped")
	return nil
}

// getConfigPath returns the configuration file path used when --config is
// not given. Checks GRAYWIRE_CONFIG first, falls back to default.
func getConfigPath() string {
	if path := os.Getenv("GRAYWIRE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// openDatabase opens and migrates the SQLite database when an enabled
// feature needs it, and returns nil otherwise.
func openDatabase(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	if !cfg.NeedsDatabase() {
		return nil, nil
	}

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// openCache returns the configured cache backend, or nil for "none".
// db must be open when the backend is sqlite. A redis cache owns its
// connection and must be closed.
func openCache(ctx context.Context, cfg *config.Config, db *database.DB) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case config.CacheMemory:
		return cache.NewMemory(cfg.Cache.Namespace), nil
	case config.CacheSQLite:
		return cache.NewSQLite(db.DB, cfg.Cache.Namespace), nil
	case config.CacheRedis:
		r, err := cache.DialRedis(ctx, cfg.Redis, cfg.Cache.Namespace)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, nil
	}
}

// loadServices reads every configured service file through a loader backed
// by store (which may be nil) and returns the registry with its class table.
func loadServices(ctx context.Context, cfg *config.Config, log *logging.Logger, store cache.Store) (*registry.Registry, *factory.Table, error) {
	ldr := loader.New(loader.FileSource{Root: cfg.Services.Root})
	ldr.SetLogger(log.Component("loader"))
	if store != nil {
		ldr.SetCache(store, cfg.CacheLifetime())
	}

	table := factory.NewTable()
	if err := classes.Register(table); err != nil {
		return nil, nil, fmt.Errorf("registering classes: %w", err)
	}

	sources := make([]registry.Source, 0, len(cfg.Services.Files))
	for _, f := range cfg.Services.Files {
		sources = append(sources, registry.File(f))
	}
	reg, err := registry.New(ctx, ldr, table, sources...)
	if err != nil {
		return nil, nil, fmt.Errorf("loading services: %w", err)
	}
	reg.SetLogger(log.Component("registry"))
	return reg, table, nil
}

// preload builds each named service so configuration errors surface at startup.
func preload(ctx context.Context, reg *registry.Registry, names []string) error {
	for _, name := range names {
		if _, err := reg.Get(ctx, name); err != nil {
			return fmt.Errorf("preloading %s: %w", name, err)
		}
	}
	return nil
}

// healthCheck verifies every enabled connection is healthy.
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, apiServer *api.Server) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	if apiServer != nil {
		if err := apiServer.HealthCheck(ctx); err != nil {
			return fmt.Errorf("api: %w", err)
		}
	}

	return nil
}
