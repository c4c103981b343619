package auth

import (
	"context"
	"errors"

	"github.com/songzhibin97/academia/pkg/entity"
	"github.com/songzhibin97/academia/pkg/portal"
)

// ErrBadCredentials is returned for unknown identifiers and wrong passwords alike.
var ErrBadCredentials = errors.New("bad credentials")

// Principal is what the authenticator needs to check a login.
type Principal struct {
	AccountID    int64
	Username     string // the account email
	PasswordHash string
	Role         portal.Role
	Authorities  []string
}

// AccountFinder resolves a login identifier to an account.
type AccountFinder interface {
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*portal.Account, error)
}

// PrincipalLoader loads principals by username or email.
type PrincipalLoader struct {
	accounts AccountFinder
}

// NewPrincipalLoader creates a loader over accounts.
func NewPrincipalLoader(accounts AccountFinder) *PrincipalLoader {
	return &PrincipalLoader{accounts: accounts}
}

// LoadByIdentifier returns the principal for identifier, or ErrBadCredentials
// when no account matches.
func (l *PrincipalLoader) LoadByIdentifier(ctx context.Context, identifier string) (*Principal, error) {
	account, err := l.accounts.FindByUsernameOrEmail(ctx, identifier)
	if entity.IsNotFound(err) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}

	return &Principal{
		AccountID:    account.ID,
		Username:     account.Email,
		PasswordHash: account.Password,
		Role:         account.Role,
		Authorities:  []string{account.Role.Authority()},
	}, nil
}

// Authenticator checks identifier/password pairs.
type Authenticator struct {
	loader *PrincipalLoader
	hasher *PasswordHasher
}

// NewAuthenticator creates an authenticator.
func NewAuthenticator(loader *PrincipalLoader, hasher *PasswordHasher) *Authenticator {
	return &Authenticator{loader: loader, hasher: hasher}
}

// Authenticate returns the principal when password matches, ErrBadCredentials otherwise.
func (a *Authenticator) Authenticate(ctx context.Context, identifier, password string) (*Principal, error) {
	principal, err := a.loader.LoadByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if err := a.hasher.VerifyPassword(password, principal.PasswordHash); err != nil {
		return nil, ErrBadCredentials
	}
	return principal, nil
}
