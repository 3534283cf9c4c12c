// Package api implements a read-only HTTP inspection API over a service
// registry.
//
// Endpoints (all under /api/v1):
//   - GET  /health                  status and number of configured names
//   - GET  /services                name and class of every service
//   - GET  /services/{name}         the resolved descriptor
//   - POST /services/{name}/config  descriptor with the body merged over params
//   - GET  /classes                 class identifiers the factory can build
//   - GET  /instances               cached instances in build order
//   - GET  /builds                  recorded builds, newest first (when enabled)
//
// When a metrics handler is supplied it is served at GET /metrics, outside
// the versioned prefix.
//
// Nothing here instantiates a service. Errors are returned as
// {"status", "code", "message"} objects.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
