package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"tasktracker/internal/domain"
)

func strPtr(s string) *string { return &s }

func newTaskFixture() (*TaskService, *fakeTaskStore) {
	store := newFakeTaskStore()
	svc := NewTaskService(store)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc, store
}

var (
	alice = &domain.User{ID: 1, Username: "alice"}
	bob   = &domain.User{ID: 2, Username: "bob"}
)

func TestTaskService_CreateAssignsPrincipal(t *testing.T) {
	ctx := context.Background()
	svc, store := newTaskFixture()

	task, err := svc.Create(ctx, alice, "buy milk", "2 liters")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.ID == 0 {
		t.Error("expected ID to be assigned")
	}
	if store.tasks[task.ID].UserID != alice.ID {
		t.Errorf("expected owner %d, got %d", alice.ID, store.tasks[task.ID].UserID)
	}
	if task.CreatedAt.IsZero() || !task.CreatedAt.Equal(task.UpdatedAt) {
		t.Errorf("unexpected timestamps: %v / %v", task.CreatedAt, task.UpdatedAt)
	}
}

func TestTaskService_ListIsScopedAndOrdered(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTaskFixture()

	first, _ := svc.Create(ctx, alice, "a", "")
	_, _ = svc.Create(ctx, bob, "b", "")
	third, _ := svc.Create(ctx, alice, "c", "")

	got, err := svc.List(ctx, alice)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != third.ID || got[1].ID != first.ID {
		t.Fatalf("unexpected list: %+v", got)
	}
}

func TestTaskService_ListEmptyIsNotNil(t *testing.T) {
	svc, _ := newTaskFixture()

	got, err := svc.List(context.Background(), alice)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestTaskService_ForeignTaskLooksMissing(t *testing.T) {
	ctx := context.Background()
	svc, store := newTaskFixture()

	task, _ := svc.Create(ctx, alice, "private", "x")

	if _, err := svc.Get(ctx, bob, task.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get: expected ErrNotFound, got %v", err)
	}
	_, err := svc.Update(ctx, bob, task.ID, domain.TaskUpdate{Title: strPtr("stolen")}, domain.UpdatePartial)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Update: expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, bob, task.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Delete: expected ErrNotFound, got %v", err)
	}
	if store.tasks[task.ID].Title != "private" {
		t.Error("foreign principal changed the task")
	}
}

func TestTaskService_Update(t *testing.T) {
	tests := []struct {
		name      string
		update    domain.TaskUpdate
		mode      domain.UpdateMode
		wantTitle string
		wantDesc  string
		wantErr   bool
	}{
		{
			name:      "partial title only",
			update:    domain.TaskUpdate{Title: strPtr("new")},
			mode:      domain.UpdatePartial,
			wantTitle: "new",
			wantDesc:  "old desc",
		},
		{
			name:      "partial empty body",
			mode:      domain.UpdatePartial,
			wantTitle: "old",
			wantDesc:  "old desc",
		},
		{
			name:      "full replace",
			update:    domain.TaskUpdate{Title: strPtr("t"), Description: strPtr("")},
			mode:      domain.UpdateFull,
			wantTitle: "t",
			wantDesc:  "",
		},
		{
			name:    "full missing description",
			update:  domain.TaskUpdate{Title: strPtr("t")},
			mode:    domain.UpdateFull,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, store := newTaskFixture()
			task, _ := svc.Create(ctx, alice, "old", "old desc")

			got, err := svc.Update(ctx, alice, task.ID, tt.update, tt.mode)
			if tt.wantErr {
				if !domain.IsValidation(err) {
					t.Fatalf("expected validation error, got %v", err)
				}
				if store.tasks[task.ID].Title != "old" {
					t.Error("rejected update was persisted")
				}
				return
			}
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			if got.Title != tt.wantTitle || got.Description != tt.wantDesc {
				t.Errorf("got %q/%q, want %q/%q", got.Title, got.Description, tt.wantTitle, tt.wantDesc)
			}
			if got.UserID != alice.ID || store.updateOwner != alice.ID {
				t.Errorf("owner changed: task=%d store=%d", got.UserID, store.updateOwner)
			}
		})
	}
}

func TestTaskService_NilPrincipal(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTaskFixture()

	if _, err := svc.List(ctx, nil); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("List: expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.Create(ctx, nil, "t", "d"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("Create: expected ErrUnauthorized, got %v", err)
	}
	if err := svc.Delete(ctx, nil, 1); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("Delete: expected ErrUnauthorized, got %v", err)
	}
}

func TestTaskService_StoreErrorPropagates(t *testing.T) {
	svc, store := newTaskFixture()
	boom := errors.New("connection reset")
	store.findErr = boom

	if _, err := svc.Get(context.Background(), alice, 1); !errors.Is(err, boom) {
		t.Errorf("expected store error, got %v", err)
	}
}
