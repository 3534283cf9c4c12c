package classes

import (
	"iter"
	"sync"

	"github.com/nerrad567/graywire/internal/configtree"
)

// Container is a key/value bag built from a service's params. It is the
// simplest useful class: configuration data shared by name.
//
// Safe for concurrent use.
type Container struct {
	mu   sync.RWMutex
	data *configtree.Map
}

// NewContainer copies params into a new Container. nil yields an empty one.
func NewContainer(params *configtree.Map) *Container {
	return &Container{data: params.Clone()}
}

// Get returns the value under key.
func (c *Container) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Get(key)
}

// Has reports whether key is present.
func (c *Container) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Has(key)
}

// Set stores value under key.
func (c *Container) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Set(key, value)
}

// Delete removes key.
func (c *Container) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Delete(key)
}

// Len returns the number of entries.
func (c *Container) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Len()
}

// Keys returns the keys in insertion order.
func (c *Container) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Keys()
}

// All iterates over a snapshot of the entries in insertion order.
func (c *Container) All() iter.Seq2[string, any] {
	c.mu.RLock()
	snapshot := c.data.Clone()
	c.mu.RUnlock()
	return snapshot.All()
}
