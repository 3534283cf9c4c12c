package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nerrad567/graywire/internal/configtree"
	"github.com/nerrad567/graywire/internal/service"
)

// referencePattern matches a whole-string service reference such as
// "{db.main}". One trailing newline is allowed, as left by a YAML block
// scalar.
var referencePattern = regexp.MustCompile(`^\{([A-Za-z0-9_.\-]+)\}\n?$`)

// ConfigLoader produces service configurations from sources.
type ConfigLoader interface {
	LoadFile(ctx context.Context, sourceID string) (*service.Config, error)
	LoadConfig(ctx context.Context, raw *configtree.Map) (*service.Config, error)
}

// Factory creates a service instance from a class identifier and its
// resolved parameters.
type Factory interface {
	Create(ctx context.Context, class string, params *configtree.Map) (any, error)
}

// Logger is the logging interface used by the registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// BuildEvent describes one factory invocation.
type BuildEvent struct {
	Name     string
	Class    string
	Cached   bool
	Duration time.Duration
	Err      error
}

// Source is one configuration input to New: a named source or an in-memory
// fragment.
type Source struct {
	id  string
	raw *configtree.Map
}

// File returns a Source that loads sourceID through the loader and its cache.
func File(sourceID string) Source {
	return Source{id: sourceID}
}

// Literal returns a Source for an in-memory fragment.
func Literal(raw *configtree.Map) Source {
	if raw == nil {
		raw = configtree.NewMap()
	}
	return Source{raw: raw}
}

// Registry builds and caches service instances from a loaded configuration.
//
// The configuration is fixed at construction. Instances requested without
// instance parameters and with caching allowed are built once and shared.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Concurrent cache-eligible
//     requests for one name invoke the factory once.
type Registry struct {
	config  *service.Config
	factory Factory
	logger  Logger
	onBuild func(BuildEvent)

	mu        sync.RWMutex
	instances map[string]any
	order     []string
	flight    singleflight.Group
}

// New loads every source in order and merges them into one configuration.
// Later sources override earlier ones, descriptor by descriptor.
//
// Parameters:
//   - ctx: Context for source loading
//   - loader: Resolves sources into service configurations
//   - factory: Creates instances by class identifier
//   - sources: Files and literal fragments, lowest precedence first
//
// Returns:
//   - *Registry: Ready registry
//   - error: Any loader error (missing source, type mismatch, extends failure)
func New(ctx context.Context, loader ConfigLoader, factory Factory, sources ...Source) (*Registry, error) {
	cfg := service.NewConfig(configtree.NewMap())
	for _, src := range sources {
		var (
			loaded *service.Config
			err    error
		)
		if src.raw != nil {
			loaded, err = loader.LoadConfig(ctx, src.raw)
		} else {
			loaded, err = loader.LoadFile(ctx, src.id)
		}
		if err != nil {
			return nil, err
		}
		cfg = cfg.Merge(loaded)
	}
	return NewFromConfig(cfg, factory), nil
}

// NewFromConfig creates a Registry over an already loaded configuration.
func NewFromConfig(cfg *service.Config, factory Factory) *Registry {
	return &Registry{
		config:    cfg,
		factory:   factory,
		logger:    noopLogger{},
		instances: make(map[string]any),
	}
}

// SetLogger sets the logger.
func (r *Registry) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

// SetBuildHook registers fn to receive an event after every factory call.
// It must be set before the registry is shared.
func (r *Registry) SetBuildHook(fn func(BuildEvent)) {
	r.onBuild = fn
}

// Config returns the merged configuration.
func (r *Registry) Config() *service.Config {
	return r.config
}

// Names returns all configured service names in configuration order.
func (r *Registry) Names() []string {
	return r.config.Names()
}

// Instances returns the names of cached instances in build order.
func (r *Registry) Instances() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// GetConfig returns the descriptor for name with instanceParams merged over
// its configured params. A nil instanceParams leaves params unchanged.
func (r *Registry) GetConfig(name string, instanceParams *configtree.Map) (service.Descriptor, error) {
	d, err := r.config.Descriptor(name)
	if err != nil {
		return service.Descriptor{}, err
	}
	if instanceParams != nil {
		d.Params = configtree.MergeMaps(d.Params, instanceParams)
	}
	return d, nil
}

// Get returns the shared instance for name, building it on first use.
func (r *Registry) Get(ctx context.Context, name string) (any, error) {
	return r.GetWith(ctx, name, nil, true)
}

// GetWith returns an instance for name.
//
// The call is cache-eligible only when instanceParams is nil and allowCache
// is true; a non-nil empty map counts as supplied parameters. allowCache is
// passed on to every referenced service.
func (r *Registry) GetWith(ctx context.Context, name string, instanceParams *configtree.Map, allowCache bool) (any, error) {
	return r.get(ctx, name, instanceParams, allowCache, nil)
}

// Resolve returns the shared instance for name as a T.
func Resolve[T any](ctx context.Context, r *Registry, name string) (T, error) {
	var zero T
	inst, err := r.Get(ctx, name)
	if err != nil {
		return zero, err
	}
	typed, ok := inst.(T)
	if !ok {
		return zero, fmt.Errorf("%w: service %q is %T, want %T", service.ErrTypeMismatch, name, inst, zero)
	}
	return typed, nil
}

// get builds name. path holds the names currently being built above it.
func (r *Registry) get(ctx context.Context, name string, instanceParams *configtree.Map, allowCache bool, path []string) (any, error) {
	eligible := allowCache && instanceParams == nil
	if eligible {
		if inst, ok := r.cached(name); ok {
			return inst, nil
		}
	}

	d, err := r.GetConfig(name, instanceParams)
	if err != nil {
		return nil, err
	}
	if d.Class == "" {
		return nil, fmt.Errorf("%w: service %q has no class", service.ErrMissingKey, name)
	}

	path = append(slices.Clone(path), name)
	resolved, err := r.resolveValue(ctx, d.Params, allowCache, path)
	if err != nil {
		return nil, err
	}
	params := resolved.(*configtree.Map)

	if !eligible {
		return r.build(ctx, d, params, false)
	}

	inst, err, _ := r.flight.Do(name, func() (any, error) {
		if inst, ok := r.cached(name); ok {
			return inst, nil
		}
		inst, err := r.build(ctx, d, params, true)
		if err != nil {
			return nil, err
		}
		r.store(name, inst)
		return inst, nil
	})
	return inst, err
}

// resolveValue replaces references in v with instances.
func (r *Registry) resolveValue(ctx context.Context, v any, allowCache bool, path []string) (any, error) {
	switch t := v.(type) {
	case string:
		m := referencePattern.FindStringSubmatch(t)
		if m == nil {
			return t, nil
		}
		ref := m[1]
		if slices.Contains(path, ref) {
			return nil, fmt.Errorf("%w: %s referenced while building %v", service.ErrInfiniteRecursion, ref, path)
		}
		inst, err := r.get(ctx, ref, nil, allowCache, path)
		if err != nil {
			return nil, fmt.Errorf("resolving {%s} for %s: %w", ref, path[len(path)-1], err)
		}
		return inst, nil
	case *configtree.Map:
		out := configtree.NewMap()
		for k, item := range t.All() {
			resolved, err := r.resolveValue(ctx, item, allowCache, path)
			if err != nil {
				return nil, err
			}
			out.Set(k, resolved)
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			resolved, err := r.resolveValue(ctx, item, allowCache, path)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}

func (r *Registry) build(ctx context.Context, d service.Descriptor, params *configtree.Map, cached bool) (any, error) {
	start := time.Now()
	inst, err := r.factory.Create(ctx, d.Class, params)
	elapsed := time.Since(start)

	if r.onBuild != nil {
		r.onBuild(BuildEvent{Name: d.Name, Class: d.Class, Cached: cached, Duration: elapsed, Err: err})
	}
	if err != nil {
		r.logger.Error("service build failed", "service", d.Name, "class", d.Class, "error", err)
		return nil, fmt.Errorf("building %s (%s): %w", d.Name, d.Class, err)
	}

	r.logger.Debug("service built", "service", d.Name, "class", d.Class, "cached", cached, "duration", elapsed)
	return inst, nil
}

func (r *Registry) cached(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[name]
	return inst, ok
}

func (r *Registry) store(name string, inst any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instances[name]; ok {
		return
	}
	r.instances[name] = inst
	r.order = append(r.order, name)
}

// Close closes cached instances that implement io.Closer, most recently
// built first, and empties the cache. Errors are joined.
func (r *Registry) Close() error {
	r.mu.Lock()
	order := r.order
	instances := r.instances
	r.order = nil
	r.instances = make(map[string]any)
	r.mu.Unlock()

	var errs []error
	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		closer, ok := instances[name].(io.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
