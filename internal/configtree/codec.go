package configtree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotMapping is returned by DecodeMap when the document root is not a mapping.
var ErrNotMapping = errors.New("configtree: document is not a mapping")

// ErrNonFinite is returned for infinite and NaN numbers, which JSON cannot
// carry.
var ErrNonFinite = errors.New("configtree: non-finite number")

// yamlMergeTag is the resolved tag of a "<<" merge key.
const yamlMergeTag = "!!merge"

// Decode parses a YAML document into a tree value.
//
// JSON documents are valid YAML and decode the same way, which is how cached
// payloads produced by Encode are read back. Mapping key order is retained.
// An empty document decodes to nil.
//
// Parameters:
//   - data: YAML or JSON bytes
//
// Returns:
//   - any: *Map, []any, or a scalar
//   - error: If the document cannot be parsed
func Decode(data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding config tree: %w", err)
	}
	if doc.Kind == 0 {
		return nil, nil
	}
	return fromNode(&doc)
}

// DecodeMap is Decode for documents whose root must be a mapping.
// An empty document yields an empty Map.
func DecodeMap(data []byte) (*Map, error) {
	v, err := Decode(data)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case nil:
		return NewMap(), nil
	case *Map:
		return t, nil
	case []any:
		if len(t) == 0 {
			return NewMap(), nil
		}
	}
	return nil, fmt.Errorf("%w: got %T", ErrNotMapping, v)
}

func fromNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		return mappingFromNode(n)
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("decoding scalar at line %d: %w", n.Line, err)
		}
		if f, ok := v.(float64); ok && !isFinite(f) {
			return nil, fmt.Errorf("%w: %s at line %d", ErrNonFinite, n.Value, n.Line)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported yaml node kind %d at line %d", n.Kind, n.Line)
	}
}

func mappingFromNode(n *yaml.Node) (*Map, error) {
	m := NewMap()
	var merged []*Map
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		v, err := fromNode(val)
		if err != nil {
			return nil, err
		}
		if key.Kind == yaml.ScalarNode && key.ShortTag() == yamlMergeTag {
			src, ok := v.(*Map)
			if !ok {
				return nil, fmt.Errorf("merge key at line %d must reference a mapping", key.Line)
			}
			merged = append(merged, src)
			continue
		}
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("mapping key at line %d is not a scalar", key.Line)
		}
		m.Set(key.Value, v)
	}
	// Explicit keys win over "<<" merged keys.
	for _, src := range merged {
		for k, v := range src.All() {
			if !m.Has(k) {
				m.Set(k, Clone(v))
			}
		}
	}
	return m, nil
}

// Encode renders a tree value as JSON.
//
// Mapping key order is retained, sequences stay arrays and floats always
// carry a fraction or exponent, so Decode(Encode(v)) reproduces v. Values that are not tree nodes are rendered with encoding/json.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler with key order retained.
func (m *Map) MarshalJSON() ([]byte, error) {
	return Encode(m)
}

func encodeValue(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case *Map:
		if t == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('{')
		for i, k := range t.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := encodeValue(buf, t.vals[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case float64:
		return encodeFloat(buf, t, 64)
	case float32:
		return encodeFloat(buf, float64(t), 32)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encoding %T: %w", v, err)
		}
		buf.Write(data)
	}
	return nil
}

// encodeFloat writes f so that it decodes as a float again: 1.0 is written
// as "1.0", not "1".
func encodeFloat(buf *bytes.Buffer, f float64, bits int) error {
	if !isFinite(f) {
		return fmt.Errorf("%w: %v", ErrNonFinite, f)
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	buf.WriteString(s)
	return nil
}

func isFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
