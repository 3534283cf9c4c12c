package metrics

import (
	"context"
	"time"

	"github.com/nerrad567/graywire/internal/cache"
)

// Cache lookup results used as the "result" label.
const (
	LookupHit   = "hit"
	LookupMiss  = "miss"
	LookupError = "error"
)

// instrumentedStore counts lookups and writes on the wrapped store.
type instrumentedStore struct {
	inner cache.Store
	m     *Metrics
}

// InstrumentCache wraps store so its Fetch and Store calls are counted.
// A nil store stays nil.
func (m *Metrics) InstrumentCache(store cache.Store) cache.Store {
	if store == nil {
		return nil
	}
	return &instrumentedStore{inner: store, m: m}
}

func (s *instrumentedStore) Fetch(ctx context.Context, key string) (string, bool, error) {
	payload, ok, err := s.inner.Fetch(ctx, key)
	switch {
	case err != nil:
		s.m.cacheLookups.WithLabelValues(LookupError).Inc()
	case ok:
		s.m.cacheLookups.WithLabelValues(LookupHit).Inc()
	default:
		s.m.cacheLookups.WithLabelValues(LookupMiss).Inc()
	}
	return payload, ok, err
}

func (s *instrumentedStore) Store(ctx context.Context, key, payload string, lifetime time.Duration) error {
	if err := s.inner.Store(ctx, key, payload, lifetime); err != nil {
		return err
	}
	s.m.cacheStores.Inc()
	return nil
}

func (s *instrumentedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *instrumentedStore) Purge(ctx context.Context) (int, error) {
	return s.inner.Purge(ctx)
}
