package entity

import "context"

// Adapter is the backing-store contract a Store delegates to. Implementations
// own their connection or handle and must be safe for concurrent use.
type Adapter[K comparable, V any] interface {
	// InsertOrUpsert inserts value when its key is unset or absent and
	// replaces the stored record otherwise. The returned value carries the
	// key the store assigned. Uniqueness violations are returned as Conflict,
	// referential violations as InvalidInput.
	InsertOrUpsert(ctx context.Context, value *V) (*V, error)

	// SelectByKey returns ok=false when no record has the key.
	SelectByKey(ctx context.Context, key K) (value *V, ok bool, err error)

	// SelectAll returns every record, possibly none.
	SelectAll(ctx context.Context) ([]*V, error)
}

// Guard validates a value before it is handed to the adapter.
type Guard[V any] func(ctx context.Context, value *V) error
