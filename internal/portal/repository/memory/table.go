package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/songzhibin97/academia/pkg/entity"
)

// table stores one entity type. All methods take the owning repository's lock;
// checks and indexes run while it is held.
type table[T any] struct {
	repo    *Repository
	name    string
	rows    map[int64]*T
	seq     int64
	key     func(*T) int64
	setKey  func(*T, int64) // nil when the key is borrowed from another entity
	checks  []func(*T) error
	indexes []*uniqueIndex[T]

	// sanitize clears read-side fields that are not stored.
	sanitize func(*T)
}

func newTable[T any](repo *Repository, name string, key func(*T) int64, setKey func(*T, int64)) *table[T] {
	return &table[T]{
		repo:   repo,
		name:   name,
		rows:   make(map[int64]*T),
		key:    key,
		setKey: setKey,
	}
}

type uniqueIndex[T any] struct {
	column string
	field  func(*T) string
	owners map[string]int64
}

func newUniqueIndex[T any](column string, field func(*T) string) *uniqueIndex[T] {
	return &uniqueIndex[T]{column: column, field: field, owners: make(map[string]int64)}
}

// InsertOrUpsert implements entity.Adapter.
func (t *table[T]) InsertOrUpsert(ctx context.Context, value *T) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()

	if t.repo.closed {
		return nil, errClosed()
	}
	if value == nil {
		return nil, entity.NewInvalidInputError("INVALID_"+t.name, fmt.Sprintf("%s cannot be null", t.name))
	}

	// Copy to avoid external modifications
	row := *value
	if t.sanitize != nil {
		t.sanitize(&row)
	}

	id := t.key(&row)
	if id == 0 && t.setKey == nil {
		return nil, entity.NewInvalidInputError("INVALID_"+t.name+"_KEY", fmt.Sprintf("%s key is required", t.name))
	}
	if id < 0 {
		return nil, entity.NewInvalidInputError("INVALID_"+t.name+"_KEY",
			fmt.Sprintf("%s key must not be negative: %d", t.name, id))
	}

	for _, check := range t.checks {
		if err := check(&row); err != nil {
			return nil, err
		}
	}
	for _, idx := range t.indexes {
		if owner, taken := idx.owners[idx.field(&row)]; taken && owner != id {
			return nil, entity.NewConflictError("DUPLICATE_"+t.name,
				fmt.Sprintf("%s with %s %s already exists", t.name, idx.column, idx.field(&row)))
		}
	}

	if id == 0 {
		t.seq++
		id = t.seq
		t.setKey(&row, id)
	} else if id > t.seq {
		t.seq = id
	}

	if old, exists := t.rows[id]; exists {
		for _, idx := range t.indexes {
			delete(idx.owners, idx.field(old))
		}
	}
	for _, idx := range t.indexes {
		idx.owners[idx.field(&row)] = id
	}
	t.rows[id] = &row

	out := row
	return &out, nil
}

// SelectByKey implements entity.Adapter.
func (t *table[T]) SelectByKey(ctx context.Context, key int64) (*T, bool, error) {
	t.repo.mu.RLock()
	defer t.repo.mu.RUnlock()

	if t.repo.closed {
		return nil, false, errClosed()
	}

	row, exists := t.rows[key]
	if !exists {
		return nil, false, nil
	}
	out := *row
	return &out, true, nil
}

// SelectAll implements entity.Adapter. Rows are ordered by key.
func (t *table[T]) SelectAll(ctx context.Context) ([]*T, error) {
	t.repo.mu.RLock()
	defer t.repo.mu.RUnlock()

	if t.repo.closed {
		return nil, errClosed()
	}

	out := make([]*T, 0, len(t.rows))
	for _, row := range t.rows {
		c := *row
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return t.key(out[i]) < t.key(out[j]) })
	return out, nil
}

// exists reports whether key is present; the caller holds the repository lock.
func (t *table[T]) exists(key int64) bool {
	_, ok := t.rows[key]
	return ok
}

func (t *table[T]) reset() {
	t.rows = nil
	for _, idx := range t.indexes {
		idx.owners = nil
	}
}

func requiredRef[T any](target *table[T], name string, key int64) error {
	if key == 0 || !target.exists(key) {
		return entity.NewInvalidInputError("INVALID_REFERENCE",
			fmt.Sprintf("invalid reference: %s with ID %d does not exist", name, key))
	}
	return nil
}

func optionalRef[T any](target *table[T], name string, key int64) error {
	if key == 0 {
		return nil
	}
	return requiredRef(target, name, key)
}
