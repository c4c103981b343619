package service

import (
	"context"

	"github.com/songzhibin97/academia/pkg/entity"
	"github.com/songzhibin97/academia/pkg/log"
	"github.com/songzhibin97/academia/pkg/portal"
)

// ProfilePtr constrains PV to the pointer type of a profile struct V.
type ProfilePtr[V any] interface {
	*V
	portal.Profile
}

// Profiles stores one kind of role profile. A profile's key is its owner's
// account ID, and the owner must exist before the profile is saved.
type Profiles[V any, PV ProfilePtr[V]] struct {
	store    *entity.Store[int64, V]
	accounts *entity.Store[int64, portal.Account]
	logger   log.Logger
}

// NewProfiles creates a profile service. departments may be nil when the
// profile kind carries no department.
func NewProfiles[V any, PV ProfilePtr[V]](
	adapter entity.Adapter[int64, V],
	desc entity.Descriptor[int64, V],
	accounts *entity.Store[int64, portal.Account],
	departments *entity.Store[int64, portal.Department],
	department func(*V) int64,
) *Profiles[V, PV] {
	opts := []entity.Option[int64, V]{
		entity.WithGuard[int64, V](reference[V](accounts, func(v *V) int64 { return PV(v).OwnerID() }, false)),
	}
	if departments != nil && department != nil {
		opts = append(opts, entity.WithGuard[int64, V](reference[V](departments, department, true)))
	}

	return &Profiles[V, PV]{
		store:    entity.NewStore(adapter, desc, opts...),
		accounts: accounts,
		logger:   log.Component("profile"),
	}
}

// Store exposes the underlying kernel store.
func (s *Profiles[V, PV]) Store() *entity.Store[int64, V] {
	return s.store
}

// Save creates or replaces the profile of an existing account.
func (s *Profiles[V, PV]) Save(ctx context.Context, profile *V) (*V, error) {
	return s.store.Save(ctx, profile)
}

// Get returns the profile of the given account with the owning account attached.
func (s *Profiles[V, PV]) Get(ctx context.Context, accountID int64) (*V, error) {
	profile, err := s.store.GetByKey(ctx, accountID)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByKey(ctx, accountID)
	switch {
	case err == nil:
		PV(profile).AttachAccount(account)
	case entity.IsNotFound(err):
		s.logger.WithContext(ctx).Warn("Profile owner missing",
			log.String(log.FieldEntity, s.store.Name()),
			log.Int64(log.FieldAccountID, accountID))
	default:
		return nil, err
	}
	return profile, nil
}
