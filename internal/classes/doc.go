// Package classes provides the built-in service classes.
//
//	container        *classes.Container   key/value bag of the params
//	cache.memory     *cache.Memory        namespace
//	cache.sqlite     *cache.SQLite        database ({ref}) or path; namespace
//	cache.redis      *cache.Redis         client ({ref}) or addr, ...; namespace
//	database.sqlite  *database.DB         path, wal_mode, busy_timeout
//	redis.client     *redis.Client        addr, password, db, dial_timeout
//	mqtt.client      *mqtt.Client         host, port, tls, client_id, ...
//	influxdb.client  *influxdb.Client     url, token, org, bucket, ...
//
// A service file can wire them together:
//
//	state_db:
//	  class: database.sqlite
//	  params: { path: ./data/state.db }
//	config_cache:
//	  class: cache.sqlite
//	  params: { database: "{state_db}", namespace: site-a }
package classes
