// Package account implements the account service: input validation, partial
// updates and dev seeding on top of a record store that enforces id and
// username uniqueness.
package account

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/accountrix/internal/accounts"
	"github.com/tinoosan/accountrix/internal/errs"
)

// Store is the record store contract. Implementations return errs.ErrNotFound,
// errs.ErrAlreadyExists or errs.ErrCreateFailed (wrapped) for the matching cases.
type Store interface {
	List(ctx context.Context) ([]accounts.Account, error)
	Get(ctx context.Context, id uuid.UUID) (accounts.Account, error)
	Create(ctx context.Context, a accounts.Account) (accounts.Account, error)
	Update(ctx context.Context, id uuid.UUID, a accounts.Account) (accounts.Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type Service interface {
	List(ctx context.Context) ([]accounts.Account, error)
	Get(ctx context.Context, id uuid.UUID) (accounts.Account, error)
	Create(ctx context.Context, username string, balance decimal.Decimal) (accounts.Account, error)
	Replace(ctx context.Context, id uuid.UUID, username string, balance decimal.Decimal) (accounts.Account, error)
	Patch(ctx context.Context, id uuid.UUID, p accounts.Patch) (accounts.Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
	EnsureSeed(ctx context.Context, seed []accounts.Account) ([]accounts.Account, error)
}

type service struct {
	store Store
	log   *slog.Logger
}

func New(store Store, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &service{store: store, log: logger}
}

func (s *service) List(ctx context.Context) ([]accounts.Account, error) {
	out, err := s.store.List(ctx)
	observe("list", err)
	if err != nil {
		return nil, err
	}
	s.log.Debug("listed accounts", "count", len(out))
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (accounts.Account, error) {
	a, err := s.store.Get(ctx, id)
	observe("get", err)
	return a, err
}

func (s *service) Create(ctx context.Context, username string, balance decimal.Decimal) (accounts.Account, error) {
	a, err := accounts.New(username, balance)
	if err != nil {
		observe("create", err)
		return accounts.Account{}, err
	}
	created, err := s.store.Create(ctx, a)
	observe("create", err)
	if err != nil {
		s.logFailure("create account failed", err, "username", username)
		return accounts.Account{}, err
	}
	s.log.Info("account created", "id", created.ID)
	return created, nil
}

// Replace overwrites every field of the account under id.
func (s *service) Replace(ctx context.Context, id uuid.UUID, username string, balance decimal.Decimal) (accounts.Account, error) {
	a := accounts.Account{ID: id, Username: username, Balance: balance}
	if err := a.Validate(); err != nil {
		observe("update", err)
		return accounts.Account{}, err
	}
	updated, err := s.store.Update(ctx, id, a)
	observe("update", err)
	if err != nil {
		s.logFailure("replace account failed", err, "id", id)
		return accounts.Account{}, err
	}
	s.log.Info("account updated", "id", id)
	return updated, nil
}

// Patch loads the current account, applies p and writes the result back.
// An empty patch returns the current account without a write.
func (s *service) Patch(ctx context.Context, id uuid.UUID, p accounts.Patch) (accounts.Account, error) {
	current, err := s.store.Get(ctx, id)
	observe("get", err)
	if err != nil {
		return accounts.Account{}, err
	}
	if p.Empty() {
		return current, nil
	}
	next := p.Apply(current)
	if err := next.Validate(); err != nil {
		observe("update", err)
		return accounts.Account{}, err
	}
	updated, err := s.store.Update(ctx, id, next)
	observe("update", err)
	if err != nil {
		s.logFailure("patch account failed", err, "id", id)
		return accounts.Account{}, err
	}
	s.log.Info("account updated", "id", id)
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.store.Delete(ctx, id)
	observe("delete", err)
	if err != nil {
		s.logFailure("delete account failed", err, "id", id)
		return err
	}
	s.log.Info("account deleted", "id", id)
	return nil
}

// EnsureSeed creates the seed accounts when the store is empty and returns them.
// A non-empty store is left alone and nil is returned.
func (s *service) EnsureSeed(ctx context.Context, seed []accounts.Account) ([]accounts.Account, error) {
	existing, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, nil
	}
	created := make([]accounts.Account, 0, len(seed))
	for _, a := range seed {
		acc, err := s.Create(ctx, a.Username, a.Balance)
		if err != nil {
			return nil, err
		}
		created = append(created, acc)
	}
	return created, nil
}

// logFailure keeps expected outcomes (missing ids, taken usernames) at INFO.
func (s *service) logFailure(msg string, err error, args ...any) {
	args = append(args, "err", err)
	switch {
	case errors.Is(err, errs.ErrNotFound), errors.Is(err, errs.ErrAlreadyExists), errors.Is(err, errs.ErrInvalid):
		s.log.Info(msg, args...)
	default:
		s.log.Error(msg, args...)
	}
}
