package memory

import (
	"context"

	"github.com/songzhibin97/academia/pkg/portal"
)

type accountAdapter struct {
	*table[portal.Account]
}

// SelectByUsernameOrEmail implements portal.AccountAdapter. When the identifier
// is one account's username and another's email, the lower ID wins.
func (a *accountAdapter) SelectByUsernameOrEmail(ctx context.Context, identifier string) (*portal.Account, bool, error) {
	a.repo.mu.RLock()
	defer a.repo.mu.RUnlock()

	if a.repo.closed {
		return nil, false, errClosed()
	}

	var match int64
	for _, idx := range a.indexes {
		if id, ok := idx.owners[identifier]; ok && (match == 0 || id < match) {
			match = id
		}
	}
	if match == 0 {
		return nil, false, nil
	}

	out := *a.rows[match]
	return &out, true, nil
}
