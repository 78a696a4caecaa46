// Package memory provides an in-memory account store used for development and tests.
// It follows the same contract as the file store without touching disk.
package memory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/tinoosan/accountrix/internal/accounts"
	"github.com/tinoosan/accountrix/internal/errs"
)

// MaxIDAttempts bounds how many identifiers Create tries before giving up.
const MaxIDAttempts = 10

// Store is an in-memory implementation of the account store.
// It is guarded by an RWMutex for concurrent reads/writes.
type Store struct {
	mu    sync.RWMutex
	doc   accounts.Document
	log   *slog.Logger
	newID func() uuid.UUID
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for store diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithIDGenerator replaces uuid.New, mainly for collision tests.
func WithIDGenerator(gen func() uuid.UUID) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// New constructs an empty in-memory store.
func New(opts ...Option) *Store {
	s := &Store{
		doc:   accounts.Document{},
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID: uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed adds accounts directly, bypassing validation. Intended for local dev/tests.
func (s *Store) Seed(accs ...accounts.Account) {
	s.mu.Lock()
	for _, a := range accs {
		s.doc[a.ID] = a
	}
	s.mu.Unlock()
}

// Reset drops every account.
func (s *Store) Reset() {
	s.mu.Lock()
	s.doc = accounts.Document{}
	s.mu.Unlock()
}

// Ready always succeeds unless ctx is done.
func (s *Store) Ready(ctx context.Context) error { return ctx.Err() }

func (s *Store) List(ctx context.Context) ([]accounts.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Sorted(), nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (accounts.Account, error) {
	if err := ctx.Err(); err != nil {
		return accounts.Account{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.doc[id]
	if !ok {
		return accounts.Account{}, fmt.Errorf("account %s: %w", id, errs.ErrNotFound)
	}
	return a, nil
}

func (s *Store) Create(ctx context.Context, a accounts.Account) (accounts.Account, error) {
	if err := ctx.Err(); err != nil {
		return accounts.Account{}, err
	}
	if err := a.Validate(); err != nil {
		return accounts.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc.UsernameTaken(a.Username, uuid.Nil) {
		return accounts.Account{}, fmt.Errorf("username %q: %w", a.Username, errs.ErrAlreadyExists)
	}
	if a.ID == uuid.Nil {
		a.ID = s.newID()
	}
	for attempt := 1; ; attempt++ {
		if _, taken := s.doc[a.ID]; !taken {
			break
		}
		if attempt >= MaxIDAttempts {
			return accounts.Account{}, fmt.Errorf("no free id after %d attempts: %w", attempt, errs.ErrCreateFailed)
		}
		s.log.Warn("account id already in use; generating a new one", "id", a.ID)
		a.ID = s.newID()
	}
	s.doc[a.ID] = a
	return a, nil
}

func (s *Store) Update(ctx context.Context, id uuid.UUID, a accounts.Account) (accounts.Account, error) {
	if err := ctx.Err(); err != nil {
		return accounts.Account{}, err
	}
	if err := a.Validate(); err != nil {
		return accounts.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doc[id]; !ok {
		return accounts.Account{}, fmt.Errorf("account %s: %w", id, errs.ErrNotFound)
	}
	if s.doc.UsernameTaken(a.Username, id) {
		return accounts.Account{}, fmt.Errorf("username %q: %w", a.Username, errs.ErrAlreadyExists)
	}
	a.ID = id
	s.doc[id] = a
	return a, nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doc[id]; !ok {
		return fmt.Errorf("account %s: %w", id, errs.ErrNotFound)
	}
	delete(s.doc, id)
	return nil
}
