package sqlite

import (
	"context"
	"testing"
	"time"

	"tasktracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUsers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	u := &domain.User{Username: "alice", PasswordHash: "hash", IsSuperuser: true}
	require.NoError(t, db.Create(ctx, u))
	assert.NotZero(t, u.ID)

	got, err := db.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, got.IsSuperuser)

	byID, err := db.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "alice", byID.Username)

	missing, err := db.GetByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.ErrorIs(t, db.Create(ctx, &domain.User{Username: "alice", PasswordHash: "x"}), domain.ErrDuplicate)

	count, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSessions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepo(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, &domain.Session{Token: "live", UserID: 1, UserAgent: "ua", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &domain.Session{Token: "stale", UserID: 1, ExpiresAt: now.Add(-time.Hour)}))

	s, err := repo.GetByToken(ctx, "live")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "ua", s.UserAgent)

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, repo.Delete(ctx, "live"))
	s, err = repo.GetByToken(ctx, "live")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestTasksScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepo(db)
	ctx := context.Background()
	now := time.Now().UTC()

	t1 := &domain.Task{UserID: 1, Title: "one", Description: "first", CreatedAt: now, UpdatedAt: now}
	t2 := &domain.Task{UserID: 1, Title: "two", Description: "", CreatedAt: now, UpdatedAt: now}
	foreign := &domain.Task{UserID: 2, Title: "theirs", Description: "x", CreatedAt: now, UpdatedAt: now}
	for _, task := range []*domain.Task{t1, t2, foreign} {
		require.NoError(t, repo.Insert(ctx, task))
	}

	list, err := repo.FindAllByOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, t2.ID, list[0].ID)
	assert.Equal(t, t1.ID, list[1].ID)

	_, err = repo.FindByID(ctx, 1, foreign.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	t1.Title = "renamed"
	t1.Description = ""
	t1.UserID = 2
	require.NoError(t, repo.Update(ctx, 1, t1))
	got, err := repo.FindByID(ctx, 1, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.Equal(t, "", got.Description)
	assert.EqualValues(t, 1, got.UserID)

	assert.ErrorIs(t, repo.Update(ctx, 2, t1), domain.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 2, t1.ID), domain.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, 1, t1.ID))
	assert.ErrorIs(t, repo.Delete(ctx, 1, t1.ID), domain.ErrNotFound)

	_, err = repo.FindByID(ctx, 2, foreign.ID)
	assert.NoError(t, err)
}
