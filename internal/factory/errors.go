package factory

import "errors"

// Domain-specific errors for the factory table.
var (
	ErrUnknownClass   = errors.New("factory: unknown class")
	ErrDuplicateClass = errors.New("factory: class already registered")
	ErrInvalidClass   = errors.New("factory: invalid class registration")
)
