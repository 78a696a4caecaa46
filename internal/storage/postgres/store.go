// Package postgres provides a pgx-backed account store with the same contract
// and error kinds as the JSON file store. It is selected when DATABASE_URL is set.
//
// The schema is created on Open. Username uniqueness is backed by a unique
// constraint; identifier collisions are detected with ON CONFLICT DO NOTHING.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/accountrix/internal/accounts"
	"github.com/tinoosan/accountrix/internal/errs"
)

// MaxIDAttempts bounds how many identifiers Create tries before giving up.
const MaxIDAttempts = 10

const uniqueViolation = "23505"

// Store holds a pgx connection pool. All methods are safe for concurrent use.
type Store struct {
	pool  *pgxpool.Pool
	log   *slog.Logger
	newID func() uuid.UUID
}

// Option customizes a Store.
type Option func(*Store)

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

// Open establishes a pgx pool using the provided connection string and applies the schema.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{pool: pool, log: slog.New(slog.NewTextHandler(io.Discard, nil)), newID: uuid.New}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`create table if not exists accounts (
			id uuid primary key,
			username text not null,
			balance numeric not null,
			constraint accounts_username_key unique (username)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// List returns every account ordered by identifier string.
func (s *Store) List(ctx context.Context) ([]accounts.Account, error) {
	rows, err := s.pool.Query(ctx, `
		select id, username, balance::text
		from accounts
		order by id::text
	`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()
	out := make([]accounts.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

// Get fetches a single account by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (accounts.Account, error) {
	row := s.pool.QueryRow(ctx, `select id, username, balance::text from accounts where id = $1`, id)
	a, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return accounts.Account{}, fmt.Errorf("account %s: %w", id, errs.ErrNotFound)
	}
	return a, err
}

// Create inserts a new account, drawing fresh identifiers on collision.
func (s *Store) Create(ctx context.Context, a accounts.Account) (accounts.Account, error) {
	if err := a.Validate(); err != nil {
		return accounts.Account{}, err
	}
	var taken bool
	if err := s.pool.QueryRow(ctx, `select exists(select 1 from accounts where username = $1)`, a.Username).Scan(&taken); err != nil {
		return accounts.Account{}, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return accounts.Account{}, fmt.Errorf("username %q: %w", a.Username, errs.ErrAlreadyExists)
	}

	if a.ID == uuid.Nil {
		a.ID = s.newID()
	}
	for attempt := 1; ; attempt++ {
		ct, err := s.pool.Exec(ctx, `
			insert into accounts (id, username, balance)
			values ($1, $2, $3::numeric)
			on conflict (id) do nothing
		`, a.ID, a.Username, a.Balance.String())
		if err != nil {
			return accounts.Account{}, mapWriteErr(err, a.Username)
		}
		if ct.RowsAffected() == 1 {
			return a, nil
		}
		if attempt >= MaxIDAttempts {
			s.log.Error("no free account id", "attempts", attempt)
			return accounts.Account{}, fmt.Errorf("no free id after %d attempts: %w", attempt, errs.ErrCreateFailed)
		}
		s.log.Warn("account id already in use; generating a new one", "id", a.ID)
		a.ID = s.newID()
	}
}

// Update replaces username and balance of the account under id.
func (s *Store) Update(ctx context.Context, id uuid.UUID, a accounts.Account) (accounts.Account, error) {
	if err := a.Validate(); err != nil {
		return accounts.Account{}, err
	}
	ct, err := s.pool.Exec(ctx, `
		update accounts
		set username = $1, balance = $2::numeric
		where id = $3
	`, a.Username, a.Balance.String(), id)
	if err != nil {
		return accounts.Account{}, mapWriteErr(err, a.Username)
	}
	if ct.RowsAffected() == 0 {
		return accounts.Account{}, fmt.Errorf("account %s: %w", id, errs.ErrNotFound)
	}
	a.ID = id
	return a, nil
}

// Delete removes the account under id.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := s.pool.Exec(ctx, `delete from accounts where id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("account %s: %w", id, errs.ErrNotFound)
	}
	return nil
}

func scanAccount(row pgx.Row) (accounts.Account, error) {
	var a accounts.Account
	var balance string
	if err := row.Scan(&a.ID, &a.Username, &balance); err != nil {
		return accounts.Account{}, err
	}
	d, err := decimal.NewFromString(balance)
	if err != nil {
		return accounts.Account{}, fmt.Errorf("account %s balance %q: %w", a.ID, balance, errs.ErrCorruptDocument)
	}
	a.Balance = d
	return a, nil
}

func mapWriteErr(err error, username string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("username %q: %w", username, errs.ErrAlreadyExists)
	}
	return fmt.Errorf("write account: %w", err)
}
