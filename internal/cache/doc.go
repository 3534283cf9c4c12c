// Package cache provides key/value stores for resolved service configuration.
//
// Three backends are available:
//   - Memory: process-local, lost on restart
//   - SQLite: persisted in the config_cache table of the graywire database
//   - Redis: shared between processes, expired by the server
//
// Keys are prefixed with a namespace ("graywire:services.yaml") so several
// deployments can share one database. Payloads are opaque strings; the
// loader stores encoded configuration trees.
package cache
