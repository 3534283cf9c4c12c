// Package configtree is the value model for service configuration.
//
// A tree value is one of:
//   - an ordered mapping (*Map) with string keys
//   - a sequence ([]any)
//   - a scalar (nil, bool, int, float64, string) or an opaque Go value such
//     as a live service instance placed into resolved parameters
//
// Mappings whose keys are all integer-like ("0", "1", ...) are list-like and
// are treated the same as sequences by Merge.
//
// # Merge
//
// Merge layers one tree over another. Associative mappings merge key by key,
// non-empty lists replace wholesale, empty overrides are ignored, and scalars
// replace:
//
//	base := configtree.MapOf("params", configtree.MapOf("color", "red", "size", 2))
//	over := configtree.MapOf("params", configtree.MapOf("color", "blue"))
//	merged := configtree.MergeMaps(base, over) // params: color=blue, size=2
//
// # Encoding
//
// Decode reads YAML (and therefore JSON) with key order retained; Encode
// writes ordered JSON. Cached configuration uses this pair.
package configtree
