// Package config handles loading and validating graywire process configuration.
//
// This is the configuration of the process itself (where service files
// live, which cache backend to use, optional telemetry and API settings),
// not the service definitions, which are read by the loader package.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (MQTT password, InfluxDB token) should be set via
//     environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Services.Files)
package config
