package loader

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/nerrad567/graywire/internal/configtree"
	"github.com/nerrad567/graywire/internal/service"
)

// Top-level keys of a configuration fragment.
const (
	keyIncludes = "includes"
	keyPrefix   = "prefix"
	keyServices = "services"
)

// SourceLoader fetches the raw tree behind a source identifier.
//
// Implementations return an error wrapping service.ErrSourceNotFound when
// the identifier does not exist.
type SourceLoader interface {
	Load(ctx context.Context, sourceID string) (*configtree.Map, error)
}

// Cache stores serialised configuration keyed by source identifier.
// A lifetime of zero means the entry does not expire.
type Cache interface {
	Fetch(ctx context.Context, key string) (payload string, ok bool, err error)
	Store(ctx context.Context, key, payload string, lifetime time.Duration) error
}

// Logger is the logging interface used by the loader.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Loader expands configuration fragments into service configurations.
//
// It resolves includes, aliases, prefixes, and extends chains. Named sources
// go through the cache and are protected against include cycles.
//
// Thread Safety:
//   - LoadConfig and LoadFile are safe for concurrent use once the loader is
//     configured. Set* methods must be called before first use.
type Loader struct {
	sources  SourceLoader
	cache    Cache
	lifetime time.Duration
	logger   Logger
}

// New creates a Loader reading from sources, with no caching.
func New(sources SourceLoader) *Loader {
	return &Loader{
		sources: sources,
		cache:   noopCache{},
		logger:  noopLogger{},
	}
}

// SetCache sets the cache for named sources and the lifetime of new entries.
func (l *Loader) SetCache(cache Cache, lifetime time.Duration) {
	if cache == nil {
		cache = noopCache{}
	}
	l.cache = cache
	l.lifetime = lifetime
}

// SetLogger sets the logger.
func (l *Loader) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	l.logger = logger
}

// LoadConfig resolves an in-memory fragment. The fragment itself is not
// cached; the sources it includes are.
func (l *Loader) LoadConfig(ctx context.Context, raw *configtree.Map) (*service.Config, error) {
	services, err := l.resolve(ctx, raw, "config", nil)
	if err != nil {
		return nil, err
	}
	return service.NewConfig(services), nil
}

// LoadFile resolves the named source through the cache.
func (l *Loader) LoadFile(ctx context.Context, sourceID string) (*service.Config, error) {
	services, err := l.loadSource(ctx, sourceID, nil)
	if err != nil {
		return nil, err
	}
	return service.NewConfig(services), nil
}

// loadSource loads one named source. path holds the source ids currently
// being included above this one.
func (l *Loader) loadSource(ctx context.Context, sourceID string, path []string) (*configtree.Map, error) {
	if slices.Contains(path, sourceID) {
		l.logger.Warn("ignoring circular include", "source", sourceID, "path", path)
		return configtree.NewMap(), nil
	}

	payload, ok, err := l.cache.Fetch(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("fetching cached config %q: %w", sourceID, err)
	}
	if ok {
		cached, err := configtree.DecodeMap([]byte(payload))
		if err == nil {
			l.logger.Debug("config cache hit", "source", sourceID)
			return cached, nil
		}
		l.logger.Warn("discarding unreadable cached config", "source", sourceID, "error", err)
	}

	raw, err := l.sources.Load(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	services, err := l.resolve(ctx, raw, sourceID, append(slices.Clone(path), sourceID))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", sourceID, err)
	}

	if err := l.store(ctx, sourceID, services); err != nil {
		return nil, err
	}

	l.logger.Debug("config loaded", "source", sourceID, "services", services.Len())
	return services, nil
}

// store writes the expanded services of sourceID to the cache. Without a
// cache nothing is encoded.
func (l *Loader) store(ctx context.Context, sourceID string, services *configtree.Map) error {
	if _, ok := l.cache.(noopCache); ok {
		return nil
	}
	encoded, err := configtree.Encode(services)
	if err != nil {
		return fmt.Errorf("encoding config %q: %w", sourceID, err)
	}
	if err := l.cache.Store(ctx, sourceID, string(encoded), l.lifetime); err != nil {
		return fmt.Errorf("caching config %q: %w", sourceID, err)
	}
	return nil
}

// resolve expands one fragment. owner names the fragment in errors.
func (l *Loader) resolve(ctx context.Context, raw *configtree.Map, owner string, path []string) (*configtree.Map, error) {
	result := configtree.NewMap()

	includes, err := service.StringList(raw, keyIncludes, owner)
	if err != nil {
		return nil, err
	}
	for _, id := range includes {
		included, err := l.loadSource(ctx, id, path)
		if err != nil {
			return nil, err
		}
		result = service.MergeServices(result, included)
	}

	prefix, err := service.StringField(raw, keyPrefix, owner)
	if err != nil {
		return nil, err
	}

	own, err := l.ownServices(raw, owner)
	if err != nil {
		return nil, err
	}
	result = service.MergeServices(result, applyPrefix(own, prefix))

	resolved := configtree.NewMap()
	for _, name := range result.Keys() {
		desc, err := resolveExtends(result, name, prefix)
		if err != nil {
			return nil, err
		}
		resolved.Set(name, desc)
	}
	return resolved, nil
}

// ownServices returns the fragment's services block with aliases expanded.
func (l *Loader) ownServices(raw *configtree.Map, owner string) (*configtree.Map, error) {
	v, _ := raw.Get(keyServices)
	var declared *configtree.Map
	switch t := v.(type) {
	case nil:
		return configtree.NewMap(), nil
	case *configtree.Map:
		declared = t
	case []any:
		if len(t) == 0 {
			return configtree.NewMap(), nil
		}
		return nil, fmt.Errorf("%w: %s services must be a mapping", service.ErrTypeMismatch, owner)
	default:
		return nil, fmt.Errorf("%w: %s services must be a mapping, got %T", service.ErrTypeMismatch, owner, v)
	}

	out := declared.Clone()
	for name, desc := range declared.All() {
		m, ok := desc.(*configtree.Map)
		if !ok {
			if desc == nil {
				out.Set(name, configtree.NewMap())
				continue
			}
			return nil, fmt.Errorf("%w: service %q must be a mapping, got %T", service.ErrTypeMismatch, name, desc)
		}
		aliases, err := service.StringList(m, service.KeyAliases, name)
		if err != nil {
			return nil, err
		}
		for _, alias := range aliases {
			if declared.Has(alias) {
				l.logger.Warn("alias shadowed by existing service", "alias", alias, "service", name)
				continue
			}
			clone := m.Clone()
			clone.Delete(service.KeyAliases)
			out.Set(alias, clone)
		}
	}
	return out, nil
}

// applyPrefix renames every service to prefix.name. An empty prefix is a no-op.
func applyPrefix(services *configtree.Map, prefix string) *configtree.Map {
	if prefix == "" {
		return services
	}
	out := configtree.NewMap()
	for name, desc := range services.All() {
		out.Set(prefix+"."+name, desc)
	}
	return out
}

// resolveExtends returns the descriptor for name with its extends chain
// folded in. name is looked up by its exact key; parents are looked up as
// prefix.parent first, then parent.
func resolveExtends(services *configtree.Map, name, prefix string) (*configtree.Map, error) {
	desc, ok := services.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", service.ErrNoSuchService, name)
	}
	return extend(services, name, desc, prefix, nil)
}

func extend(services *configtree.Map, name string, desc any, prefix string, chain []string) (*configtree.Map, error) {
	m, ok := desc.(*configtree.Map)
	if !ok {
		return nil, fmt.Errorf("%w: service %q must be a mapping, got %T", service.ErrTypeMismatch, name, desc)
	}

	parentName, err := service.StringField(m, service.KeyExtends, name)
	if err != nil {
		return nil, err
	}
	if parentName == "" {
		out := m.Clone()
		out.Delete(service.KeyExtends)
		return out, nil
	}

	chain = append(chain, name)
	parentKey, parentDesc, ok := lookupParent(services, parentName, prefix)
	if !ok {
		return nil, fmt.Errorf("%w: %s (extended by %s)", service.ErrNoSuchService, parentName, name)
	}
	if slices.Contains(chain, parentKey) {
		return nil, fmt.Errorf("%w: extends cycle %v -> %s", service.ErrInfiniteRecursion, chain, parentKey)
	}

	parent, err := extend(services, parentKey, parentDesc, prefix, chain)
	if err != nil {
		return nil, err
	}

	child := m.Clone()
	child.Delete(service.KeyExtends)
	return configtree.MergeMaps(parent, child), nil
}

func lookupParent(services *configtree.Map, name, prefix string) (string, any, bool) {
	if prefix != "" {
		key := prefix + "." + name
		if desc, ok := services.Get(key); ok {
			return key, desc, true
		}
	}
	desc, ok := services.Get(name)
	return name, desc, ok
}

// noopCache never hits and discards stores.
type noopCache struct{}

func (noopCache) Fetch(context.Context, string) (string, bool, error) { return "", false, nil }

func (noopCache) Store(context.Context, string, string, time.Duration) error { return nil }

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
