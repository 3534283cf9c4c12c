package service

import (
	"fmt"

	"github.com/nerrad567/graywire/internal/configtree"
)

// Config is a fully loaded service configuration: an ordered mapping from
// service name to descriptor tree.
//
// A Config handed out by the loader contains no unresolved extends. It is
// read-only once built and may be shared between goroutines.
type Config struct {
	services *configtree.Map
}

// NewConfig wraps a name -> descriptor mapping. The mapping is copied.
func NewConfig(services *configtree.Map) *Config {
	return &Config{services: services.Clone()}
}

// Len returns the number of services.
func (c *Config) Len() int {
	return c.services.Len()
}

// Names returns service names in configuration order.
func (c *Config) Names() []string {
	return c.services.Keys()
}

// Has reports whether name is configured.
func (c *Config) Has(name string) bool {
	return c.services.Has(name)
}

// Raw returns a copy of the descriptor tree for name.
func (c *Config) Raw(name string) (*configtree.Map, bool) {
	v, ok := c.services.Get(name)
	if !ok {
		return nil, false
	}
	m, ok := v.(*configtree.Map)
	if !ok {
		return nil, false
	}
	return m.Clone(), true
}

// Descriptor returns the typed descriptor for name.
func (c *Config) Descriptor(name string) (Descriptor, error) {
	v, ok := c.services.Get(name)
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrNoSuchService, name)
	}
	return DecodeDescriptor(name, v)
}

// Tree returns a copy of the underlying mapping.
func (c *Config) Tree() *configtree.Map {
	return c.services.Clone()
}

// Merge returns a new Config with other layered over c. Descriptors are
// merged per service name with configtree.Merge; names only in other are
// appended.
func (c *Config) Merge(other *Config) *Config {
	return &Config{services: MergeServices(c.services, other.services)}
}

// MarshalJSON renders the configuration as an ordered JSON object.
func (c *Config) MarshalJSON() ([]byte, error) {
	return configtree.Encode(c.services)
}

// MergeServices layers override over base one service name at a time.
//
// Each descriptor pair is combined with configtree.Merge, so merging stays
// key-by-key even when every service name is integer-like.
func MergeServices(base, override *configtree.Map) *configtree.Map {
	out := base.Clone()
	for name, desc := range override.All() {
		existing, ok := out.Get(name)
		if !ok {
			out.Set(name, configtree.Clone(desc))
			continue
		}
		out.Set(name, configtree.Merge(existing, desc))
	}
	return out
}
