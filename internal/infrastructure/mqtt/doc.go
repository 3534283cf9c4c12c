// Package mqtt provides MQTT connectivity for graywire.
//
// graywire uses MQTT for two things:
//   - Publishing registry build events to <prefix>/registry/built/<name>
//   - Receiving cache invalidations on <prefix>/cache/invalidate
//
// A retained online/offline status is kept on <prefix>/system/status, with
// a Last Will so that crashes are visible to subscribers.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := client.Topics()
//	err = client.PublishJSON(topics.ServiceBuilt("db"), event, false)
//
// # Security Considerations
//
//   - Enable TLS (cfg.Broker.TLS) outside local development
//   - Prefer GRAYWIRE_MQTT_PASSWORD over a password in config.yaml
package mqtt
