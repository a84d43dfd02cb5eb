// ABOUTME: Tests for account store methods
// ABOUTME: Covers creation, duplicate handling, lookup, listing, and role counts

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateUser(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	account := &Account{
		Username:       "alice",
		PasswordDigest: "deadbeef$cafebabe",
		Role:           RoleUser,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}

	err := store.CreateUser(ctx, account)
	require.NoError(t, err)

	retrieved, err := store.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", retrieved.Username)
	assert.Equal(t, "deadbeef$cafebabe", retrieved.PasswordDigest)
	assert.Equal(t, RoleUser, retrieved.Role)
}

func TestStore_CreateUser_Duplicate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	account := &Account{
		Username:       "bob",
		PasswordDigest: "digest-one",
		Role:           RoleUser,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, store.CreateUser(ctx, account))

	dup := &Account{
		Username:       "bob",
		PasswordDigest: "digest-two",
		Role:           RoleUser,
		CreatedAt:      time.Now().UTC(),
	}
	err := store.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, ErrUsernameExists)

	// The original digest survives the losing attempt
	retrieved, err := store.GetUser(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "digest-one", retrieved.PasswordDigest)
}

func TestStore_GetUser_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.GetUser(ctx, "nonexistent")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStore_ListUsers(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, name := range []string{"carol", "alice", "bob"} {
		account := &Account{
			Username:       name,
			PasswordDigest: "digest",
			Role:           RoleUser,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.CreateUser(ctx, account))
	}

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)

	// Ordered by creation time
	assert.Equal(t, "carol", users[0].Username)
	assert.Equal(t, "alice", users[1].Username)
	assert.Equal(t, "bob", users[2].Username)
}

func TestStore_CountUsersAndAdmins(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, &Account{
		Username: "alice", PasswordDigest: "d", Role: RoleUser, CreatedAt: time.Now(),
	}))
	require.NoError(t, store.CreateUser(ctx, &Account{
		Username: "root", PasswordDigest: "d", Role: RoleAdmin, CreatedAt: time.Now(),
	}))

	users, err := store.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), users)

	admins, err := store.CountAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), admins)
}
