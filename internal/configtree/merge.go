package configtree

// Merge deep-merges override on top of base and returns the result.
//
// Rules, in order:
//  1. override is an associative mapping: every override key absent from
//     base is copied in; a key present in both recurses when both values
//     are associative mappings and is replaced by the override value
//     otherwise, so a nested list or an empty nested mapping replaces what
//     base held under that key. Base-only keys are retained. The result
//     keeps base order with override-only keys appended in override order.
//  2. override is list-like and non-empty: override replaces base.
//  3. override is empty: base is returned unchanged.
//  4. override is a scalar (including nil): override replaces base.
//
// Merge never mutates its inputs. Containers in the result are copies, so
// later mutation of the result cannot reach base or override.
func Merge(base, override any) any {
	switch o := override.(type) {
	case *Map:
		if o == nil {
			return nil
		}
		if o.Len() == 0 {
			return Clone(base)
		}
		if !IsAssoc(o) {
			return o.Clone()
		}
		return mergeAssoc(asMap(base), o)
	case []any:
		if len(o) == 0 {
			return Clone(base)
		}
		return Clone(o)
	default:
		return override
	}
}

// MergeMaps is Merge for two mappings.
//
// Neither argument is mutated. A nil argument is treated as empty.
func MergeMaps(base, override *Map) *Map {
	switch merged := Merge(base.Clone(), override.Clone()).(type) {
	case *Map:
		return merged
	case []any:
		return FromList(merged)
	default:
		return NewMap()
	}
}

// mergeAssoc applies rule 1. base is owned by the caller and is modified.
func mergeAssoc(base, override *Map) *Map {
	for key, ov := range override.All() {
		bv, ok := base.Get(key)
		if ok && IsAssoc(bv) && IsAssoc(ov) {
			base.Set(key, Merge(bv, ov))
			continue
		}
		base.Set(key, Clone(ov))
	}
	return base
}

// asMap returns a private mapping view of base for rule 1. A sequence is
// indexed; a scalar contributes nothing.
func asMap(base any) *Map {
	switch b := base.(type) {
	case *Map:
		return b.Clone()
	case []any:
		return FromList(b)
	default:
		return NewMap()
	}
}
