package config

import "context"

// Source abstracts where the YAML configuration document comes from.
// The loader applies the document on top of the built-in defaults.
type Source interface {
	// Get retrieves the complete configuration document.
	Get(ctx context.Context) ([]byte, error)

	// Close closes the source and cleans up any resources.
	Close() error
}
