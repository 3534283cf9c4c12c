package factory

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/nerrad567/graywire/internal/configtree"
	"github.com/nerrad567/graywire/internal/service"
)

// Parameter helpers for constructors. Absent keys yield service.ErrMissingKey,
// wrongly typed values service.ErrTypeMismatch. The *Or variants return the
// default when the key is absent but still reject a present value of the
// wrong type.

// Value returns the raw value under key.
func Value(params *configtree.Map, key string) (any, error) {
	v, ok := params.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", service.ErrMissingKey, key)
	}
	return v, nil
}

// String returns the string under key.
func String(params *configtree.Map, key string) (string, error) {
	v, err := Value(params, key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", mismatch(key, "a string", v)
	}
	return s, nil
}

// StringOr returns the string under key, or def when absent.
func StringOr(params *configtree.Map, key, def string) (string, error) {
	if !params.Has(key) {
		return def, nil
	}
	return String(params, key)
}

// Int returns the integer under key. Integral floats and decimal strings
// are accepted.
func Int(params *configtree.Map, key string) (int, error) {
	v, err := Value(params, key)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		if n > math.MaxInt {
			return 0, mismatch(key, "an int", v)
		}
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, mismatch(key, "an int", v)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, mismatch(key, "an int", v)
		}
		return i, nil
	default:
		return 0, mismatch(key, "an int", v)
	}
}

// IntOr returns the integer under key, or def when absent.
func IntOr(params *configtree.Map, key string, def int) (int, error) {
	if !params.Has(key) {
		return def, nil
	}
	return Int(params, key)
}

// Bool returns the boolean under key.
func Bool(params *configtree.Map, key string) (bool, error) {
	v, err := Value(params, key)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, mismatch(key, "a bool", v)
	}
	return b, nil
}

// BoolOr returns the boolean under key, or def when absent.
func BoolOr(params *configtree.Map, key string, def bool) (bool, error) {
	if !params.Has(key) {
		return def, nil
	}
	return Bool(params, key)
}

// Duration returns the duration under key: a Go duration string ("5s") or
// a whole number of seconds.
func Duration(params *configtree.Map, key string) (time.Duration, error) {
	v, err := Value(params, key)
	if err != nil {
		return 0, err
	}
	if s, ok := v.(string); ok {
		d, err := time.ParseDuration(s)
		if err == nil {
			return d, nil
		}
	}
	secs, err := Int(params, key)
	if err != nil {
		return 0, mismatch(key, "a duration", v)
	}
	return time.Duration(secs) * time.Second, nil
}

// DurationOr returns the duration under key, or def when absent.
func DurationOr(params *configtree.Map, key string, def time.Duration) (time.Duration, error) {
	if !params.Has(key) {
		return def, nil
	}
	return Duration(params, key)
}

// Strings returns the list of strings under key.
func Strings(params *configtree.Map, key string) ([]string, error) {
	if !params.Has(key) {
		return nil, fmt.Errorf("%w: %s", service.ErrMissingKey, key)
	}
	return service.StringList(params, key, "param")
}

// StringsOr returns the list of strings under key, or def when absent.
func StringsOr(params *configtree.Map, key string, def []string) ([]string, error) {
	if !params.Has(key) {
		return def, nil
	}
	return Strings(params, key)
}

// MapOr returns the mapping under key, or an empty mapping when absent.
// A list-like value is returned as an index-keyed mapping.
func MapOr(params *configtree.Map, key string) (*configtree.Map, error) {
	v, ok := params.Get(key)
	if !ok || v == nil {
		return configtree.NewMap(), nil
	}
	switch m := v.(type) {
	case *configtree.Map:
		return m, nil
	case []any:
		return configtree.FromList(m), nil
	default:
		return nil, mismatch(key, "a mapping", v)
	}
}

// Instance returns the value under key as a T, typically a service
// injected through a {reference}.
func Instance[T any](params *configtree.Map, key string) (T, error) {
	var zero T
	v, err := Value(params, key)
	if err != nil {
		return zero, err
	}
	inst, ok := v.(T)
	if !ok {
		return zero, mismatch(key, reflect.TypeFor[T]().String(), v)
	}
	return inst, nil
}

// InstanceOr returns the value under key as a T. When the key is absent,
// def is called to produce the value; it is not called otherwise.
func InstanceOr[T any](params *configtree.Map, key string, def func() (T, error)) (T, error) {
	if !params.Has(key) {
		return def()
	}
	return Instance[T](params, key)
}

func mismatch(key, want string, got any) error {
	return fmt.Errorf("%w: %s should be %s, got %T", service.ErrTypeMismatch, key, want, got)
}
