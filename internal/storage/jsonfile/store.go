// Package jsonfile is the record store backed by a single JSON document on disk.
//
// Every operation reads the whole document; every mutating operation rewrites it
// through a temp file and rename, so a crash loses at most the in-flight change.
// The store keeps no state between calls and does not coordinate with other
// processes or other Store values pointed at the same file.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"

	"github.com/tinoosan/accountrix/internal/accounts"
	"github.com/tinoosan/accountrix/internal/errs"
)

// MaxIDAttempts bounds how many identifiers Create tries before giving up.
const MaxIDAttempts = 10

const filePerm = 0o644

// Store implements the account record store over one file.
type Store struct {
	path  string
	log   *slog.Logger
	newID func() uuid.UUID
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger sets the logger used for operation tracing.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithIDGenerator replaces uuid.New as the source of fresh identifiers.
func WithIDGenerator(fn func() uuid.UUID) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// Open returns a store for path, creating parent directories and an empty
// document when the file does not exist yet. An existing file is not touched.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:  path,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID: uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

func (s *Store) ensureFile() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", s.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	s.log.Debug("initializing empty accounts document", "path", s.path)
	return s.save(accounts.Document{})
}

func (s *Store) load() (accounts.Document, error) {
	s.log.Debug("loading accounts document", "path", s.path)
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	doc, err := accounts.DecodeDocument(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	s.log.Debug("loaded accounts document", "count", len(doc))
	return doc, nil
}

func (s *Store) save(doc accounts.Document) error {
	b, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := renameio.WriteFile(s.path, b, filePerm); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	s.log.Debug("saved accounts document", "path", s.path, "count", len(doc))
	return nil
}

// Ready reports whether the backing document can be read and decoded.
func (s *Store) Ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.load()
	return err
}

// List returns every account in stored order (ascending identifier).
func (s *Store) List(ctx context.Context) ([]accounts.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Sorted(), nil
}

// Get returns the account stored under id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (accounts.Account, error) {
	if err := ctx.Err(); err != nil {
		return accounts.Account{}, err
	}
	doc, err := s.load()
	if err != nil {
		return accounts.Account{}, err
	}
	a, ok := doc[id]
	if !ok {
		return accounts.Account{}, fmt.Errorf("account %s: %w", id, errs.ErrNotFound)
	}
	return a, nil
}

// Create stores a new account. The username must be free. If a's identifier is nil
// or already in use a fresh one is drawn, up to MaxIDAttempts identifiers in total.
func (s *Store) Create(ctx context.Context, a accounts.Account) (accounts.Account, error) {
	if err := ctx.Err(); err != nil {
		return accounts.Account{}, err
	}
	if err := a.Validate(); err != nil {
		return accounts.Account{}, err
	}
	doc, err := s.load()
	if err != nil {
		return accounts.Account{}, err
	}
	if doc.UsernameTaken(a.Username, uuid.Nil) {
		return accounts.Account{}, fmt.Errorf("username %q: %w", a.Username, errs.ErrAlreadyExists)
	}

	if a.ID == uuid.Nil {
		a.ID = s.newID()
	}
	for attempt := 1; ; attempt++ {
		if _, taken := doc[a.ID]; !taken {
			break
		}
		if attempt >= MaxIDAttempts {
			s.log.Error("no free account id", "attempts", attempt)
			return accounts.Account{}, fmt.Errorf("no free id after %d attempts: %w", attempt, errs.ErrCreateFailed)
		}
		s.log.Warn("account id already in use; generating a new one", "id", a.ID)
		a.ID = s.newID()
	}

	doc[a.ID] = a
	if err := s.save(doc); err != nil {
		return accounts.Account{}, err
	}
	s.log.Debug("account created", "id", a.ID)
	return a, nil
}

// Update replaces the account stored under id. Any identifier carried by a is
// ignored. The username may stay the same but must not belong to another account.
func (s *Store) Update(ctx context.Context, id uuid.UUID, a accounts.Account) (accounts.Account, error) {
	if err := ctx.Err(); err != nil {
		return accounts.Account{}, err
	}
	if err := a.Validate(); err != nil {
		return accounts.Account{}, err
	}
	doc, err := s.load()
	if err != nil {
		return accounts.Account{}, err
	}
	if _, ok := doc[id]; !ok {
		return accounts.Account{}, fmt.Errorf("account %s: %w", id, errs.ErrNotFound)
	}
	if doc.UsernameTaken(a.Username, id) {
		return accounts.Account{}, fmt.Errorf("username %q: %w", a.Username, errs.ErrAlreadyExists)
	}
	a.ID = id
	doc[id] = a
	if err := s.save(doc); err != nil {
		return accounts.Account{}, err
	}
	s.log.Debug("account updated", "id", id)
	return a, nil
}

// Delete removes the account stored under id.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := doc[id]; !ok {
		return fmt.Errorf("account %s: %w", id, errs.ErrNotFound)
	}
	delete(doc, id)
	if err := s.save(doc); err != nil {
		return err
	}
	s.log.Debug("account deleted", "id", id)
	return nil
}
