// Package logging provides structured logging for graywire.
//
// This package wraps log/slog. Every entry carries the service and version
// fields, and child loggers add a component field:
//
//	logger := logging.New(cfg.Logging, version)
//	ldr.SetLogger(logger.Component("loader"))
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Never log secrets such as the MQTT password or InfluxDB token.
package logging
