package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"tasktracker/internal/domain"
)

func TestTaskRepository(t *testing.T) {
	db := New()
	repo := db.NewTaskRepo()
	ctx := context.Background()
	userID := int64(1)

	// Insert
	first := &domain.Task{Title: "first", Description: "a", UserID: userID}
	if err := repo.Insert(ctx, first); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	second := &domain.Task{Title: "second", Description: "b", UserID: userID}
	_ = repo.Insert(ctx, second)
	if first.ID == 0 || second.ID <= first.ID {
		t.Fatalf("expected increasing IDs, got %d then %d", first.ID, second.ID)
	}

	// List is newest first
	tasks, err := repo.FindAllByOwner(ctx, userID)
	if err != nil {
		t.Fatalf("FindAllByOwner: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != second.ID || tasks[1].ID != first.ID {
		t.Fatalf("unexpected order: %+v", tasks)
	}

	// Other user sees nothing
	others, _ := repo.FindAllByOwner(ctx, 999)
	if len(others) != 0 {
		t.Error("expected 0 tasks for other user")
	}
	if _, err := repo.FindByID(ctx, 999, first.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for other user, got %v", err)
	}

	// Update keeps the stored owner
	first.Title = "renamed"
	first.UserID = 999
	if err := repo.Update(ctx, userID, first); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := repo.FindByID(ctx, userID, first.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Title != "renamed" || got.UserID != userID {
		t.Errorf("unexpected task after update: %+v", got)
	}
	if err := repo.Update(ctx, 999, first); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound updating as other user, got %v", err)
	}

	// Delete
	if err := repo.Delete(ctx, 999, first.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting as other user, got %v", err)
	}
	if err := repo.Delete(ctx, userID, first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, userID, first.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestUserRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	u := &domain.User{Username: "bob", PasswordHash: "hash"}
	if err := db.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID == 0 {
		t.Error("expected ID to be assigned")
	}

	u2, err := db.GetByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if u2 == nil || u2.ID != u.ID {
		t.Error("failed to retrieve user")
	}

	if err := db.Create(ctx, &domain.User{Username: "bob"}); !errors.Is(err, domain.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	missing, err := db.GetByID(ctx, 42)
	if err != nil || missing != nil {
		t.Errorf("expected (nil, nil) for missing user, got (%v, %v)", missing, err)
	}

	count, _ := db.Count(ctx)
	if count != 1 {
		t.Errorf("expected 1 user, got %d", count)
	}
}

func TestSessionRepository(t *testing.T) {
	db := New()
	repo := db.NewSessionRepo()
	ctx := context.Background()
	now := time.Now()

	err := repo.Create(ctx, &domain.Session{Token: "token123", UserID: 1, ExpiresAt: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = repo.Create(ctx, &domain.Session{Token: "stale", UserID: 1, ExpiresAt: now.Add(-time.Hour)})

	sess, err := repo.GetByToken(ctx, "token123")
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session, got nil")
	}

	n, err := repo.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 purged session, got %d", n)
	}

	_ = repo.Delete(ctx, "token123")
	sess, _ = repo.GetByToken(ctx, "token123")
	if sess != nil {
		t.Error("expected nil (deleted)")
	}
}
