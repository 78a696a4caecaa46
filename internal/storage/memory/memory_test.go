package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/accountrix/internal/accounts"
	"github.com/tinoosan/accountrix/internal/errs"
)

func mustAccount(t *testing.T, username string, balance int64) accounts.Account {
	t.Helper()
	a, err := accounts.New(username, decimal.NewFromInt(balance))
	require.NoError(t, err)
	return a
}

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	a, err := s.Create(ctx, mustAccount(t, "DogPool", 42))
	require.NoError(t, err)

	_, err = s.Create(ctx, mustAccount(t, "DogPool", 1))
	require.ErrorIs(t, err, errs.ErrAlreadyExists)

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, got.Equal(a))

	a.Balance = decimal.NewFromInt(7)
	updated, err := s.Update(ctx, a.ID, a)
	require.NoError(t, err)
	require.Equal(t, "7", updated.Balance.String())

	_, err = s.Update(ctx, uuid.New(), a)
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, s.Delete(ctx, a.ID))
	require.ErrorIs(t, s.Delete(ctx, a.ID), errs.ErrNotFound)
	_, err = s.Get(ctx, a.ID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestStore_CreateFailsAfterBoundedAttempts(t *testing.T) {
	ctx := context.Background()
	taken := mustAccount(t, "DogPool", 1)
	calls := 0
	s := New(WithIDGenerator(func() uuid.UUID { calls++; return taken.ID }))
	s.Seed(taken)

	fresh := mustAccount(t, "Knuckles", 0)
	fresh.ID = taken.ID
	_, err := s.Create(ctx, fresh)
	require.ErrorIs(t, err, errs.ErrCreateFailed)
	require.Equal(t, MaxIDAttempts-1, calls)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestStore_ConcurrentCreatesKeepUsernamesUnique(t *testing.T) {
	ctx := context.Background()
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		a := mustAccount(t, "DogPool", int64(i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Create(ctx, a)
		}()
	}
	wg.Wait()
	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestStore_CreateRejectsOutOfRangeBalance(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.Create(ctx, accounts.Account{Username: "DogPool", Balance: decimal.New(1, 1000000000)})
	require.ErrorIs(t, err, errs.ErrInvalid)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}
