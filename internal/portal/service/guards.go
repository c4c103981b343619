package service

import (
	"context"
	"fmt"

	"github.com/songzhibin97/academia/pkg/entity"
)

// reference returns a guard that rejects values pointing at a missing record
// of target. A zero key passes when the reference is optional.
func reference[V any, R any](target *entity.Store[int64, R], key func(*V) int64, optional bool) entity.Guard[V] {
	return func(ctx context.Context, value *V) error {
		id := key(value)
		if id == 0 && optional {
			return nil
		}

		_, err := target.GetByKey(ctx, id)
		if entity.IsNotFound(err) {
			return entity.NewInvalidInputError("INVALID_REFERENCE",
				fmt.Sprintf("No %s found with ID: %d", target.Name(), id))
		}
		return err
	}
}
