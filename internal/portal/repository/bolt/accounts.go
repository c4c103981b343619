package bolt

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/songzhibin97/academia/pkg/portal"
	bolt "go.etcd.io/bbolt"
)

// accountRecord is the stored form of an account; portal.Account hides the
// password hash from JSON.
type accountRecord struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     portal.Role `json:"role"`
}

func encodeAccount(a *portal.Account) ([]byte, error) {
	return json.Marshal(accountRecord(*a))
}

func decodeAccount(data []byte) (*portal.Account, error) {
	var rec accountRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	a := portal.Account(rec)
	return &a, nil
}

type accountAdapter struct {
	*bucket[portal.Account]
}

// SelectByUsernameOrEmail implements portal.AccountAdapter. Accounts are
// scanned in key order, so the lowest matching ID wins.
func (a *accountAdapter) SelectByUsernameOrEmail(ctx context.Context, identifier string) (*portal.Account, bool, error) {
	var out *portal.Account
	err := a.repo.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(a.name)).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			account, err := a.decode(v)
			if err != nil {
				return err
			}
			if account.Username == identifier || account.Email == identifier {
				out = account
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, classify(a.entity, a.name, "GET", err)
	}
	return out, out != nil, nil
}
