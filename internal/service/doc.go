// Package service holds the shared service configuration types: the typed
// Descriptor, the loaded Config, and the error values used across the
// loader, registry, and factories.
package service
