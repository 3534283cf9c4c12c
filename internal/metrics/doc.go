// Package metrics exposes Prometheus collectors for service builds and
// the configuration cache.
//
// Collectors live on a private registry so several instances can coexist
// in tests. Handler serves them in the Prometheus text format:
//
//	m := metrics.New()
//	m.WatchRegistry(reg)
//	reg.SetBuildHook(m.ObserveBuild)
//	store = m.InstrumentCache(store)
//	http.Handle("/metrics", m.Handler())
//
// Exported series:
//
//	graywire_service_builds_total{class,result}     result is built, cached, or failed
//	graywire_service_build_duration_seconds{class}  constructor time, uncached builds only
//	graywire_config_cache_lookups_total{result}     result is hit, miss, or error
//	graywire_config_cache_stores_total
//	graywire_services_configured
//	graywire_services_instantiated
package metrics
