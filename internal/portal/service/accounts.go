package service

import (
	"context"
	"fmt"

	"github.com/songzhibin97/academia/pkg/entity"
	"github.com/songzhibin97/academia/pkg/log"
	"github.com/songzhibin97/academia/pkg/portal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/songzhibin97/academia/internal/portal/service"

// Accounts registers accounts and resolves login identifiers.
type Accounts struct {
	store   *entity.Store[int64, portal.Account]
	adapter portal.AccountAdapter
	logger  log.Logger
	tracer  trace.Tracer
}

// NewAccounts creates the account service over adapter.
func NewAccounts(adapter portal.AccountAdapter) *Accounts {
	return &Accounts{
		store:   entity.NewStore[int64, portal.Account](adapter, portal.AccountDescriptor),
		adapter: adapter,
		logger:  log.Component("account"),
		tracer:  otel.Tracer(tracerName),
	}
}

// Store exposes the underlying kernel store.
func (s *Accounts) Store() *entity.Store[int64, portal.Account] {
	return s.store
}

// Register saves a new account. The email must not belong to any account yet,
// whether as an email or as a username.
func (s *Accounts) Register(ctx context.Context, account *portal.Account) (*portal.Account, error) {
	ctx, span := s.tracer.Start(ctx, "account.register")
	defer span.End()
	logger := s.logger.WithContext(ctx)

	if account == nil {
		return nil, fail(span, entity.NewInvalidInputError("ACCOUNT_REQUIRED", "Account cannot be null"))
	}

	_, taken, err := s.adapter.SelectByUsernameOrEmail(ctx, account.Email)
	if err != nil {
		logger.Error("Failed to check email availability", log.Error(err))
		return nil, fail(span, err)
	}
	if taken {
		logger.Warn("Registration rejected, email in use", log.String(log.FieldIdentifier, account.Email))
		return nil, fail(span, entity.NewConflictError("EMAIL_ALREADY_REGISTERED",
			fmt.Sprintf("Email is already registered: %s", account.Email)))
	}

	saved, err := s.store.Save(ctx, account)
	if err != nil {
		return nil, fail(span, err)
	}

	logger.Info("Account registered",
		log.Int64(log.FieldAccountID, saved.ID),
		log.String(log.FieldRole, string(saved.Role)))
	return saved, nil
}

// FindByUsernameOrEmail returns the account whose username or email equals
// identifier exactly.
func (s *Accounts) FindByUsernameOrEmail(ctx context.Context, identifier string) (*portal.Account, error) {
	ctx, span := s.tracer.Start(ctx, "account.find_by_username_or_email")
	defer span.End()

	account, ok, err := s.adapter.SelectByUsernameOrEmail(ctx, identifier)
	if err != nil {
		s.logger.WithContext(ctx).Error("Failed to look up account", log.Error(err))
		return nil, fail(span, err)
	}
	if !ok {
		s.logger.WithContext(ctx).Warn("Account not found", log.String(log.FieldIdentifier, identifier))
		return nil, fail(span, entity.NewNotFoundError("ACCOUNT_NOT_FOUND",
			fmt.Sprintf("No user found with username or email: %s", identifier)))
	}
	return account, nil
}

// Get returns the account with the given ID.
func (s *Accounts) Get(ctx context.Context, id int64) (*portal.Account, error) {
	return s.store.GetByKey(ctx, id)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, entity.MessageOf(err))
	return err
}
