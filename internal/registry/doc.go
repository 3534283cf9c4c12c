// Package registry builds service instances from a loaded configuration.
//
// A Registry is constructed from one or more sources, merged in order:
//
//	reg, err := registry.New(ctx, l, table,
//	    registry.File("services.yaml"),
//	    registry.Literal(overrides),
//	)
//
// # Building
//
// Get returns a shared instance, built on first use. GetWith accepts
// instance parameters, which are merged over the configured params, and a
// flag to bypass the instance cache. Only calls with no instance parameters
// and caching allowed read or populate the cache.
//
// # References
//
// A parameter value that is exactly "{name}" is replaced by the instance of
// service name before the factory is called. References are followed
// through nested mappings and lists. A reference back to a service already
// being built on the same path fails with service.ErrInfiniteRecursion.
//
// # Concurrency
//
// The configuration is immutable after construction. The instance cache is
// guarded by a mutex, and concurrent cache-eligible builds of one name share
// a single factory call.
package registry
