package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for graywire.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Services ServicesConfig `yaml:"services"`
	Cache    CacheConfig    `yaml:"cache"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	BuildLog BuildLogConfig `yaml:"build_log"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	API      APIConfig      `yaml:"api"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServicesConfig describes where service definitions come from.
type ServicesConfig struct {
	// Root is the directory relative source identifiers are resolved against.
	Root string `yaml:"root"`

	// Files are loaded in order; later files override earlier ones.
	Files []string `yaml:"files"`

	// Preload lists services to build at startup so that configuration
	// errors surface before the process reports ready.
	Preload []string `yaml:"preload"`
}

// CacheConfig selects the backend for resolved configuration.
type CacheConfig struct {
	// Backend is one of "none", "memory", "sqlite", or "redis".
	Backend string `yaml:"backend"`

	// Lifetime is the entry lifetime in seconds. 0 means no expiry.
	Lifetime int `yaml:"lifetime"`

	// Namespace prefixes every cache key.
	Namespace string `yaml:"namespace"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// RedisConfig contains Redis connection settings for the redis cache backend.
type RedisConfig struct {
	Addr        string `yaml:"addr"`
	Password    string `yaml:"password"`
	DB          int    `yaml:"db"`
	DialTimeout int    `yaml:"dial_timeout"`
}

// BuildLogConfig controls the SQLite history of service builds.
// It shares the database configured under Database.
type BuildLogConfig struct {
	Enabled bool `yaml:"enabled"`

	// RetentionDays prunes older entries at startup. 0 keeps everything.
	RetentionDays int `yaml:"retention_days"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
	TopicPrefix string              `yaml:"topic_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains HTTP inspection API settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// MetricsConfig controls the Prometheus collectors. When enabled and the API
// is running, they are exposed at /metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
)

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYWIRE_SECTION_KEY
// For example: GRAYWIRE_DATABASE_PATH, GRAYWIRE_CACHE_BACKEND
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Services: ServicesConfig{
			Root:  "configs/services",
			Files: []string{"services.yaml"},
		},
		Cache: CacheConfig{
			Backend:   CacheMemory,
			Namespace: "graywire",
		},
		Database: DatabaseConfig{
			Path:        "./data/graywire.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Redis: RedisConfig{
			Addr:        "localhost:6379",
			DialTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graywire",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			TopicPrefix: "graywire",
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYWIRE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Services
	if v := os.Getenv("GRAYWIRE_SERVICES_ROOT"); v != "" {
		cfg.Services.Root = v
	}

	// Cache
	if v := os.Getenv("GRAYWIRE_CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}

	// Database
	if v := os.Getenv("GRAYWIRE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Redis
	if v := os.Getenv("GRAYWIRE_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("GRAYWIRE_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	// MQTT
	if v := os.Getenv("GRAYWIRE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYWIRE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYWIRE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("GRAYWIRE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// API
	if v := os.Getenv("GRAYWIRE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if len(c.Services.Files) == 0 {
		errs = append(errs, "services.files must list at least one file")
	}

	if !slices.Contains([]string{CacheNone, CacheMemory, CacheSQLite, CacheRedis}, c.Cache.Backend) {
		errs = append(errs, "cache.backend must be none, memory, sqlite, or redis")
	}
	if c.Cache.Lifetime < 0 {
		errs = append(errs, "cache.lifetime must not be negative")
	}

	if c.Cache.Backend == CacheSQLite && c.Database.Path == "" {
		errs = append(errs, "database.path is required for the sqlite cache backend")
	}

	if c.Cache.Backend == CacheRedis && c.Redis.Addr == "" {
		errs = append(errs, "redis.addr is required for the redis cache backend")
	}
	if c.Redis.DB < 0 {
		errs = append(errs, "redis.db must not be negative")
	}

	if c.BuildLog.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when build_log is enabled")
	}
	if c.BuildLog.RetentionDays < 0 {
		errs = append(errs, "build_log.retention_days must not be negative")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// CacheLifetime returns the cache entry lifetime as a Duration.
func (c *Config) CacheLifetime() time.Duration {
	return time.Duration(c.Cache.Lifetime) * time.Second
}

// BuildLogRetention returns how long build log entries are kept. 0 means forever.
func (c *Config) BuildLogRetention() time.Duration {
	return time.Duration(c.BuildLog.RetentionDays) * 24 * time.Hour
}

// NeedsDatabase reports whether any enabled feature uses the SQLite database.
func (c *Config) NeedsDatabase() bool {
	return c.Cache.Backend == CacheSQLite || c.BuildLog.Enabled
}

// RedisDialTimeout returns the Redis dial timeout as a Duration.
func (c *Config) RedisDialTimeout() time.Duration {
	return time.Duration(c.Redis.DialTimeout) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
