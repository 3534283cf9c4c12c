package service

import "errors"

// Domain errors shared by the loader, registry, and factories.
// Callers test for them with errors.Is; producers wrap them with context.
var (
	// ErrMissingKey is returned when a required key is absent, for example a
	// descriptor without a class at instantiation time.
	ErrMissingKey = errors.New("service: missing key")

	// ErrTypeMismatch is returned when a value has the wrong shape.
	ErrTypeMismatch = errors.New("service: type mismatch")

	// ErrNoSuchService is returned when a name (or an extends target) is not
	// present in the configuration.
	ErrNoSuchService = errors.New("service: no such service")

	// ErrInfiniteRecursion is returned when resolution revisits a name
	// already on the current path.
	ErrInfiniteRecursion = errors.New("service: infinite recursion")

	// ErrSourceNotFound is returned when a configuration source cannot be found.
	ErrSourceNotFound = errors.New("service: source not found")
)
