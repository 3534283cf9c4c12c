package classes

import (
	"fmt"

	"github.com/nerrad567/graywire/internal/configtree"
	"github.com/nerrad567/graywire/internal/factory"
	"github.com/nerrad567/graywire/internal/infrastructure/config"
	"github.com/nerrad567/graywire/internal/infrastructure/database"
)

// Defaults for built-in class params.
const (
	defaultNamespace   = "graywire"
	defaultBusyTimeout = 5
)

// databaseConfigFromParams reads path (required), wal_mode, busy_timeout.
func databaseConfigFromParams(params *configtree.Map) (database.Config, error) {
	var (
		cfg database.Config
		err error
	)
	if cfg.Path, err = factory.String(params, "path"); err != nil {
		return cfg, err
	}
	if cfg.WALMode, err = factory.BoolOr(params, "wal_mode", true); err != nil {
		return cfg, err
	}
	if cfg.BusyTimeout, err = factory.IntOr(params, "busy_timeout", defaultBusyTimeout); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// redisConfigFromParams reads addr, password, db, dial_timeout.
func redisConfigFromParams(params *configtree.Map) (config.RedisConfig, error) {
	var (
		cfg config.RedisConfig
		err error
	)
	if cfg.Addr, err = factory.StringOr(params, "addr", "localhost:6379"); err != nil {
		return cfg, err
	}
	if cfg.Password, err = factory.StringOr(params, "password", ""); err != nil {
		return cfg, err
	}
	if cfg.DB, err = factory.IntOr(params, "db", 0); err != nil {
		return cfg, err
	}
	if cfg.DB < 0 {
		return cfg, fmt.Errorf("db must not be negative, got %d", cfg.DB)
	}
	if cfg.DialTimeout, err = factory.IntOr(params, "dial_timeout", 5); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// mqttConfigFromParams maps mqtt.client params onto the same structure the
// process configuration uses, with the same defaults.
func mqttConfigFromParams(params *configtree.Map) (config.MQTTConfig, error) {
	cfg := config.MQTTConfig{Enabled: true}

	var err error
	b := &cfg.Broker
	if b.Host, err = factory.StringOr(params, "host", "localhost"); err != nil {
		return cfg, err
	}
	if b.Port, err = factory.IntOr(params, "port", 1883); err != nil {
		return cfg, err
	}
	if b.TLS, err = factory.BoolOr(params, "tls", false); err != nil {
		return cfg, err
	}
	if b.ClientID, err = factory.StringOr(params, "client_id", "graywire"); err != nil {
		return cfg, err
	}
	if cfg.Auth.Username, err = factory.StringOr(params, "username", ""); err != nil {
		return cfg, err
	}
	if cfg.Auth.Password, err = factory.StringOr(params, "password", ""); err != nil {
		return cfg, err
	}
	if cfg.QoS, err = factory.IntOr(params, "qos", 1); err != nil {
		return cfg, err
	}
	if cfg.QoS < 0 || cfg.QoS > 2 {
		return cfg, fmt.Errorf("qos must be 0, 1, or 2, got %d", cfg.QoS)
	}
	if cfg.TopicPrefix, err = factory.StringOr(params, "topic_prefix", "graywire"); err != nil {
		return cfg, err
	}

	reconnect, err := factory.MapOr(params, "reconnect")
	if err != nil {
		return cfg, err
	}
	if cfg.Reconnect.InitialDelay, err = factory.IntOr(reconnect, "initial_delay", 1); err != nil {
		return cfg, err
	}
	if cfg.Reconnect.MaxDelay, err = factory.IntOr(reconnect, "max_delay", 60); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// influxConfigFromParams reads url (required), token, org, bucket,
// batch_size, flush_interval.
func influxConfigFromParams(params *configtree.Map) (config.InfluxDBConfig, error) {
	cfg := config.InfluxDBConfig{Enabled: true}

	var err error
	if cfg.URL, err = factory.String(params, "url"); err != nil {
		return cfg, err
	}
	if cfg.Token, err = factory.StringOr(params, "token", ""); err != nil {
		return cfg, err
	}
	if cfg.Org, err = factory.StringOr(params, "org", ""); err != nil {
		return cfg, err
	}
	if cfg.Bucket, err = factory.StringOr(params, "bucket", ""); err != nil {
		return cfg, err
	}
	if cfg.BatchSize, err = factory.IntOr(params, "batch_size", 100); err != nil {
		return cfg, err
	}
	if cfg.FlushInterval, err = factory.IntOr(params, "flush_interval", 10); err != nil {
		return cfg, err
	}
	return cfg, nil
}
