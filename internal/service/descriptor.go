package service

import (
	"fmt"

	"github.com/nerrad567/graywire/internal/configtree"
)

// Descriptor field names.
const (
	KeyClass   = "class"
	KeyParams  = "params"
	KeyExtends = "extends"
	KeyAliases = "aliases"
)

// Descriptor is the typed view of one service entry.
type Descriptor struct {
	// Name is the key the descriptor is registered under.
	Name string `json:"name"`

	// Class identifies the constructor in the object factory. It may be
	// empty in configuration; instantiation then fails with ErrMissingKey.
	Class string `json:"class,omitempty"`

	// Params are the constructor parameters. Never nil after decoding.
	Params *configtree.Map `json:"params"`

	// Extends names the parent descriptor. Always empty once loaded.
	Extends string `json:"extends,omitempty"`

	// Aliases lists additional names the descriptor is registered under.
	Aliases []string `json:"aliases,omitempty"`
}

// DecodeDescriptor builds a Descriptor from its tree form.
//
// A params sequence is accepted and indexed "0".."n-1". Any other field of
// the wrong shape yields ErrTypeMismatch.
func DecodeDescriptor(name string, raw any) (Descriptor, error) {
	d := Descriptor{Name: name, Params: configtree.NewMap()}
	if raw == nil {
		return d, nil
	}
	m, ok := raw.(*configtree.Map)
	if !ok {
		return d, fmt.Errorf("%w: service %q must be a mapping, got %T", ErrTypeMismatch, name, raw)
	}

	var err error
	if d.Class, err = StringField(m, KeyClass, name); err != nil {
		return d, err
	}
	if d.Extends, err = StringField(m, KeyExtends, name); err != nil {
		return d, err
	}
	if d.Aliases, err = StringList(m, KeyAliases, name); err != nil {
		return d, err
	}

	switch p := valueOf(m, KeyParams).(type) {
	case nil:
	case *configtree.Map:
		d.Params = p.Clone()
	case []any:
		d.Params = configtree.FromList(p)
	default:
		return d, fmt.Errorf("%w: service %q params must be a mapping, got %T", ErrTypeMismatch, name, p)
	}

	return d, nil
}

// Tree returns the descriptor in tree form, the inverse of DecodeDescriptor.
func (d Descriptor) Tree() *configtree.Map {
	m := configtree.NewMap()
	if d.Class != "" {
		m.Set(KeyClass, d.Class)
	}
	m.Set(KeyParams, d.Params.Clone())
	if d.Extends != "" {
		m.Set(KeyExtends, d.Extends)
	}
	if len(d.Aliases) > 0 {
		aliases := make([]any, len(d.Aliases))
		for i, a := range d.Aliases {
			aliases[i] = a
		}
		m.Set(KeyAliases, aliases)
	}
	return m
}

// StringList reads key from m as a sequence of strings. An absent or null
// key yields nil. owner names the enclosing entry in error messages.
func StringList(m *configtree.Map, key, owner string) ([]string, error) {
	switch v := valueOf(m, key).(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s %s[%d] must be a string, got %T", ErrTypeMismatch, owner, key, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	case *configtree.Map:
		if v.Len() == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s %s must be a list", ErrTypeMismatch, owner, key)
	default:
		return nil, fmt.Errorf("%w: %s %s must be a list, got %T", ErrTypeMismatch, owner, key, v)
	}
}

// StringField reads key from m as a string. An absent or null key yields "".
func StringField(m *configtree.Map, key, owner string) (string, error) {
	switch v := valueOf(m, key).(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %s %s must be a string, got %T", ErrTypeMismatch, owner, key, v)
	}
}

func valueOf(m *configtree.Map, key string) any {
	v, _ := m.Get(key)
	return v
}
