package jsonfile

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/accountrix/internal/accounts"
	"github.com/tinoosan/accountrix/internal/errs"
)

func setupStore(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accounts.json")
	s, err := Open(path, opts...)
	require.NoError(t, err, "open store")
	return s, path
}

// seedDocument writes count accounts straight to the backing file.
func seedDocument(t *testing.T, path string, count int) accounts.Document {
	t.Helper()
	doc := accounts.Document{}
	for idx := 0; idx < count; idx++ {
		a := accounts.Account{ID: uuid.New(), Username: fmt.Sprintf("user_%d", idx), Balance: decimal.NewFromInt(int64((idx + 1) * 10))}
		doc[a.ID] = a
	}
	b, err := doc.Encode()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return doc
}

func mustAccount(t *testing.T, username string, balance int64) accounts.Account {
	t.Helper()
	a, err := accounts.New(username, decimal.NewFromInt(balance))
	require.NoError(t, err)
	return a
}

func TestOpen_CreatesEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "accounts_v2.json")
	s, err := Open(path)
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "{}", string(b))

	list, err := s.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestOpen_LeavesExistingFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	seeded := seedDocument(t, path, 3)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	s, err := Open(path)
	require.NoError(t, err)
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before, after)

	list, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, len(seeded))
}

func TestList(t *testing.T) {
	ctx := context.Background()
	s, path := setupStore(t)

	seeded := seedDocument(t, path, 5)
	first, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 5)
	for _, a := range first {
		require.True(t, seeded[a.ID].Equal(a), "account %s differs from seed", a.ID)
	}

	second, err := s.List(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second, "list must be stable without mutation")

	seedDocument(t, path, 0)
	empty, err := s.List(ctx)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	s, path := setupStore(t)
	seeded := seedDocument(t, path, 10)

	ids := make([]uuid.UUID, 0, len(seeded))
	for id := range seeded {
		ids = append(ids, id)
	}
	selected := ids[rand.Intn(len(ids))]
	got, err := s.Get(ctx, selected)
	require.NoError(t, err)
	require.True(t, seeded[selected].Equal(got))

	_, err = s.Get(ctx, uuid.New())
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCreateThenGet(t *testing.T) {
	ctx := context.Background()
	s, _ := setupStore(t)

	in := mustAccount(t, "DogPool", 42)
	created, err := s.Create(ctx, in)
	require.NoError(t, err)
	require.Equal(t, in.ID, created.ID)
	require.Equal(t, "42", created.Balance.String())

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, created.Equal(got))
}

func TestCreate_AssignsIDWhenNil(t *testing.T) {
	s, _ := setupStore(t)
	created, err := s.Create(context.Background(), accounts.Account{Username: "Knuckles", Balance: decimal.Zero})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
}

func TestCreate_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	s, _ := setupStore(t)

	_, err := s.Create(ctx, mustAccount(t, "DogPool", 1))
	require.NoError(t, err)

	_, err = s.Create(ctx, mustAccount(t, "DogPool", 2))
	require.ErrorIs(t, err, errs.ErrAlreadyExists)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	// case-sensitive comparison
	_, err = s.Create(ctx, mustAccount(t, "dogpool", 3))
	require.NoError(t, err)
}

func TestCreate_RejectsInvalidAccount(t *testing.T) {
	ctx := context.Background()
	s, path := setupStore(t)
	before, _ := os.ReadFile(path)

	_, err := s.Create(ctx, accounts.Account{ID: uuid.New(), Username: " ", Balance: decimal.Zero})
	require.ErrorIs(t, err, errs.ErrInvalid)

	after, _ := os.ReadFile(path)
	require.Equal(t, before, after)
}

func TestCreate_IDCollisionGetsFreshID(t *testing.T) {
	ctx := context.Background()
	s, _ := setupStore(t)

	shared := uuid.New()
	a := accounts.Account{ID: shared, Username: "first", Balance: decimal.NewFromInt(1)}
	b := accounts.Account{ID: shared, Username: "second", Balance: decimal.NewFromInt(2)}

	ca, err := s.Create(ctx, a)
	require.NoError(t, err)
	cb, err := s.Create(ctx, b)
	require.NoError(t, err)
	require.NotEqual(t, ca.ID, cb.ID)

	for _, want := range []accounts.Account{ca, cb} {
		got, err := s.Get(ctx, want.ID)
		require.NoError(t, err)
		require.True(t, want.Equal(got))
	}
}

func TestCreate_FailsAfterBoundedAttempts(t *testing.T) {
	ctx := context.Background()
	stuck := uuid.New()
	calls := 0
	s, path := setupStore(t, WithIDGenerator(func() uuid.UUID {
		calls++
		return stuck
	}))

	_, err := s.Create(ctx, accounts.Account{ID: stuck, Username: "first", Balance: decimal.Zero})
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = s.Create(ctx, accounts.Account{ID: stuck, Username: "second", Balance: decimal.Zero})
	require.ErrorIs(t, err, errs.ErrCreateFailed)
	require.Equal(t, MaxIDAttempts-1, calls, "explicit id plus regenerated ids must total MaxIDAttempts")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before, after, "failed create must not touch the document")
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s, _ := setupStore(t)

	x, err := s.Create(ctx, mustAccount(t, "DogPool", 42))
	require.NoError(t, err)

	// keeping its own username is not a conflict
	updated, err := s.Update(ctx, x.ID, accounts.Account{Username: "DogPool", Balance: decimal.NewFromInt(100)})
	require.NoError(t, err)
	require.Equal(t, x.ID, updated.ID)
	require.Equal(t, "100", updated.Balance.String())

	got, err := s.Get(ctx, x.ID)
	require.NoError(t, err)
	require.True(t, updated.Equal(got))
}

func TestUpdate_IgnoresPayloadID(t *testing.T) {
	ctx := context.Background()
	s, _ := setupStore(t)
	x, err := s.Create(ctx, mustAccount(t, "DogPool", 1))
	require.NoError(t, err)

	updated, err := s.Update(ctx, x.ID, accounts.Account{ID: uuid.New(), Username: "Knuckles", Balance: decimal.NewFromInt(5)})
	require.NoError(t, err)
	require.Equal(t, x.ID, updated.ID)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Knuckles", list[0].Username)
}

func TestUpdate_UsernameOfOtherAccount(t *testing.T) {
	ctx := context.Background()
	s, _ := setupStore(t)
	_, err := s.Create(ctx, mustAccount(t, "DogPool", 1))
	require.NoError(t, err)
	k, err := s.Create(ctx, mustAccount(t, "Knuckles", 2))
	require.NoError(t, err)

	_, err = s.Update(ctx, k.ID, accounts.Account{Username: "DogPool", Balance: decimal.NewFromInt(2)})
	require.ErrorIs(t, err, errs.ErrAlreadyExists)

	got, err := s.Get(ctx, k.ID)
	require.NoError(t, err)
	require.Equal(t, "Knuckles", got.Username)
}

func TestUpdate_MissingLeavesDocumentUnmodified(t *testing.T) {
	ctx := context.Background()
	s, path := setupStore(t)
	seedDocument(t, path, 3)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = s.Update(ctx, uuid.New(), accounts.Account{Username: "ghost", Balance: decimal.Zero})
	require.ErrorIs(t, err, errs.ErrNotFound)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := setupStore(t)

	created, err := s.Create(ctx, mustAccount(t, "DogPool", 42))
	require.NoError(t, err)
	require.Equal(t, "42", created.Balance.String())

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.True(t, created.Equal(list[0]))

	require.NoError(t, s.Delete(ctx, created.ID))

	_, err = s.Get(ctx, created.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	require.ErrorIs(t, s.Delete(ctx, created.ID), errs.ErrNotFound)
}

func TestPersistedLayout(t *testing.T) {
	ctx := context.Background()
	s, path := setupStore(t)
	created, err := s.Create(ctx, accounts.Account{Username: "DogPool", Balance: decimal.RequireFromString("0.1")})
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, fmt.Sprintf(`{%q: {"id": %q, "username": "DogPool", "balance": "0.1"}}`, created.ID, created.ID), string(b))

	// a second store over the same file sees the same data
	other, err := Open(path)
	require.NoError(t, err)
	got, err := other.Get(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, created.Equal(got))
}

func TestCorruptDocument(t *testing.T) {
	ctx := context.Background()
	s, path := setupStore(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"broken": `), 0o644))

	_, err := s.List(ctx)
	require.ErrorIs(t, err, errs.ErrCorruptDocument)
	_, err = s.Create(ctx, mustAccount(t, "DogPool", 1))
	require.ErrorIs(t, err, errs.ErrCorruptDocument)
	require.ErrorIs(t, s.Ready(ctx), errs.ErrCorruptDocument)
}

func TestMissingFileAfterOpen(t *testing.T) {
	s, path := setupStore(t)
	require.NoError(t, os.Remove(path))
	_, err := s.List(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCanceledContext(t *testing.T) {
	s, _ := setupStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.List(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
