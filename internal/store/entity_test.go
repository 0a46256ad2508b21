package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curatorapp/curator-server/internal/domain"
	"github.com/curatorapp/curator-server/internal/store"
)

func newTestUser(id, email string) *domain.User {
	now := time.Now()
	return &domain.User{ID: id, Email: email, DisplayName: "Test User", CreatedAt: now, UpdatedAt: now}
}

func TestUsers_CreateAndGet(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	u := newTestUser("usr-1", "Reader@Example.com")
	require.NoError(t, s.Users.Create(ctx, u.ID, u))

	got, err := s.Users.Get(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, "Reader@Example.com", got.Email)

	byEmail, err := s.Users.GetByIndex(ctx, "email", "  reader@example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", byEmail.ID)
}

func TestUsers_EmailUniqueCaseInsensitive(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, s.Users.Create(ctx, "usr-1", newTestUser("usr-1", "reader@example.com")))

	err := s.Users.Create(ctx, "usr-2", newTestUser("usr-2", "READER@example.com"))
	require.ErrorIs(t, err, store.ErrEmailTaken)

	err = s.Users.Create(ctx, "usr-1", newTestUser("usr-1", "other@example.com"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestUsers_GetMissing(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.Users.Get(context.Background(), "usr-404")
	require.ErrorIs(t, err, store.ErrUserNotFound)

	_, err = s.Users.GetByIndex(context.Background(), "email", "nobody@example.com")
	require.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestUsers_UpdateMovesEmailIndex(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	u := newTestUser("usr-1", "old@example.com")
	require.NoError(t, s.Users.Create(ctx, u.ID, u))

	u.Email = "new@example.com"
	require.NoError(t, s.Users.Update(ctx, u.ID, u))

	_, err := s.Users.GetByIndex(ctx, "email", "old@example.com")
	require.ErrorIs(t, err, store.ErrUserNotFound)

	got, err := s.Users.GetByIndex(ctx, "email", "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "usr-1", got.ID)
}

func TestStacks_ListByUserAndDelete(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for _, st := range []*domain.Stack{
		{Owned: domain.Owned{ID: "stk-1", UserID: "usr-1"}, Name: "Later"},
		{Owned: domain.Owned{ID: "stk-2", UserID: "usr-1"}, Name: "Favorites", Filters: map[string]string{"favorite": "true"}},
		{Owned: domain.Owned{ID: "stk-3", UserID: "usr-2"}, Name: "Other"},
	} {
		require.NoError(t, s.Stacks.Create(ctx, st.ID, st))
	}

	stacks, err := s.ListStacksByUser(ctx, "usr-1")
	require.NoError(t, err)
	require.Len(t, stacks, 2)
	assert.Equal(t, "Favorites", stacks[0].Name)
	assert.Equal(t, "Later", stacks[1].Name)

	require.NoError(t, s.Stacks.Delete(ctx, "stk-2"))
	stacks, err = s.ListStacksByUser(ctx, "usr-1")
	require.NoError(t, err)
	require.Len(t, stacks, 1)

	require.ErrorIs(t, s.Stacks.Delete(ctx, "stk-2"), store.ErrStackNotFound)
}
