package bolt

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/songzhibin97/academia/pkg/entity"
	bolt "go.etcd.io/bbolt"
)

// bucket stores one entity type.
type bucket[T any] struct {
	repo    *Repository
	entity  string
	name    string
	key     func(*T) int64
	setKey  func(*T, int64) // nil when the key is borrowed from another entity
	checks  []func(*bolt.Tx, *T) error
	uniques []unique[T]

	encode   func(*T) ([]byte, error)
	decode   func([]byte) (*T, error)
	sanitize func(*T)
}

type unique[T any] struct {
	column string
	field  func(*T) string
}

func newBucket[T any](repo *Repository, entityName, name string, key func(*T) int64, setKey func(*T, int64)) *bucket[T] {
	return &bucket[T]{
		repo:   repo,
		entity: entityName,
		name:   name,
		key:    key,
		setKey: setKey,
		encode: func(v *T) ([]byte, error) { return json.Marshal(v) },
		decode: func(data []byte) (*T, error) {
			var v T
			if err := json.Unmarshal(data, &v); err != nil {
				return nil, err
			}
			return &v, nil
		},
	}
}

func itob(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

func btoi(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

// InsertOrUpsert implements entity.Adapter.
func (b *bucket[T]) InsertOrUpsert(ctx context.Context, value *T) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if value == nil {
		return nil, entity.NewInvalidInputError("INVALID_"+b.entity, fmt.Sprintf("%s cannot be null", b.entity))
	}

	row := *value
	if b.sanitize != nil {
		b.sanitize(&row)
	}

	id := b.key(&row)
	if id == 0 && b.setKey == nil {
		return nil, entity.NewInvalidInputError("INVALID_"+b.entity+"_KEY", fmt.Sprintf("%s key is required", b.entity))
	}
	if id < 0 {
		return nil, entity.NewInvalidInputError("INVALID_"+b.entity+"_KEY",
			fmt.Sprintf("%s key must not be negative: %d", b.entity, id))
	}

	err := b.repo.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(b.name))

		for _, check := range b.checks {
			if err := check(tx, &row); err != nil {
				return err
			}
		}
		if err := b.checkUnique(bk, &row, id); err != nil {
			return err
		}

		if id == 0 {
			seq, err := bk.NextSequence()
			if err != nil {
				return err
			}
			id = int64(seq)
			b.setKey(&row, id)
		} else if uint64(id) > bk.Sequence() {
			if err := bk.SetSequence(uint64(id)); err != nil {
				return err
			}
		}

		data, err := b.encode(&row)
		if err != nil {
			return err
		}
		return bk.Put(itob(id), data)
	})
	if err != nil {
		return nil, classify(b.entity, b.name, "SAVE", err)
	}

	return &row, nil
}

func (b *bucket[T]) checkUnique(bk *bolt.Bucket, row *T, id int64) error {
	if len(b.uniques) == 0 {
		return nil
	}
	return bk.ForEach(func(k, v []byte) error {
		if btoi(k) == id {
			return nil
		}
		existing, err := b.decode(v)
		if err != nil {
			return err
		}
		for _, u := range b.uniques {
			if u.field(existing) == u.field(row) {
				return entity.NewConflictError("DUPLICATE_"+b.entity,
					fmt.Sprintf("%s with %s %s already exists", b.entity, u.column, u.field(row)))
			}
		}
		return nil
	})
}

// SelectByKey implements entity.Adapter.
func (b *bucket[T]) SelectByKey(ctx context.Context, key int64) (*T, bool, error) {
	var out *T
	err := b.repo.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(b.name)).Get(itob(key))
		if data == nil {
			return nil
		}
		v, err := b.decode(data)
		out = v
		return err
	})
	if err != nil {
		return nil, false, classify(b.entity, b.name, "GET", err)
	}
	return out, out != nil, nil
}

// SelectAll implements entity.Adapter. bbolt iterates keys in byte order,
// which for big-endian IDs is ascending key order.
func (b *bucket[T]) SelectAll(ctx context.Context) ([]*T, error) {
	var out []*T
	err := b.repo.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(b.name)).ForEach(func(_, data []byte) error {
			v, err := b.decode(data)
			if err != nil {
				return err
			}
			out = append(out, v)
			return nil
		})
	})
	if err != nil {
		return nil, classify(b.entity, b.name, "LIST", err)
	}
	return out, nil
}

func exists[T any](tx *bolt.Tx, target *bucket[T], key int64) bool {
	return tx.Bucket([]byte(target.name)).Get(itob(key)) != nil
}

func requiredRef[T any](tx *bolt.Tx, target *bucket[T], key int64) error {
	if key == 0 || !exists(tx, target, key) {
		return entity.NewInvalidInputError("INVALID_REFERENCE",
			fmt.Sprintf("invalid reference: %s with ID %d does not exist", target.entity, key))
	}
	return nil
}

func optionalRef[T any](tx *bolt.Tx, target *bucket[T], key int64) error {
	if key == 0 {
		return nil
	}
	return requiredRef(tx, target, key)
}
