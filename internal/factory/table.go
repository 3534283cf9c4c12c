package factory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/nerrad567/graywire/internal/configtree"
)

// Constructor builds one instance from resolved parameters.
type Constructor func(ctx context.Context, params *configtree.Map) (any, error)

// Table maps class identifiers to constructors. It satisfies the registry's
// Factory interface.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Table struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{ctors: make(map[string]Constructor)}
}

// Register adds a constructor for class.
//
// Returns:
//   - error: ErrInvalidClass for an empty id or nil constructor,
//     ErrDuplicateClass if class is already registered
func (t *Table) Register(class string, ctor Constructor) error {
	if class == "" || ctor == nil {
		return fmt.Errorf("%w: %q", ErrInvalidClass, class)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.ctors[class]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateClass, class)
	}
	t.ctors[class] = ctor
	return nil
}

// MustRegister is Register that panics on error. Use it for static setup.
func (t *Table) MustRegister(class string, ctor Constructor) {
	if err := t.Register(class, ctor); err != nil {
		panic(err)
	}
}

// Classes returns the registered class identifiers, sorted.
func (t *Table) Classes() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.ctors))
	for class := range t.ctors {
		out = append(out, class)
	}
	slices.Sort(out)
	return out
}

// Create invokes the constructor registered for class.
func (t *Table) Create(ctx context.Context, class string, params *configtree.Map) (any, error) {
	t.mu.RLock()
	ctor, ok := t.ctors[class]
	t.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, class)
	}
	if params == nil {
		params = configtree.NewMap()
	}
	return ctor(ctx, params)
}
