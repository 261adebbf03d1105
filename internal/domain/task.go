package domain

import (
	"context"
	"time"
)

// Task is a personal to-do record owned by exactly one user.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	UserID      int64     `json:"-"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// OwnerID returns the owning user's ID.
func (t *Task) OwnerID() int64 { return t.UserID }

// SetOwnerID assigns the owning user. Only called on records that have not
// been stored yet.
func (t *Task) SetOwnerID(id int64) { t.UserID = id }

// UpdateMode selects how a TaskUpdate is merged into a stored task.
type UpdateMode int

const (
	// UpdatePartial changes only the fields present in the update.
	UpdatePartial UpdateMode = iota
	// UpdateFull replaces every writable field.
	UpdateFull
)

func (m UpdateMode) String() string {
	if m == UpdateFull {
		return "full"
	}
	return "partial"
}

// TaskUpdate carries the writable task fields of an update request. A nil
// field was not supplied. There is deliberately no owner field.
type TaskUpdate struct {
	Title       *string
	Description *string
}

// Apply merges u into t according to mode.
func (u TaskUpdate) Apply(t *Task, mode UpdateMode) error {
	if mode == UpdateFull {
		if u.Title == nil {
			return Invalid("title", "this field is required")
		}
		if u.Description == nil {
			return Invalid("description", "this field is required")
		}
	}
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	return nil
}

// OwnedStore is the persistence port for records that belong to a single
// user. Every method that addresses one record filters by owner in the same
// lookup, so a record owned by someone else is reported as ErrNotFound.
type OwnedStore[T any] interface {
	FindByID(ctx context.Context, ownerID, id int64) (*T, error)
	// FindAllByOwner returns the owner's records, newest ID first.
	FindAllByOwner(ctx context.Context, ownerID int64) ([]T, error)
	Insert(ctx context.Context, item *T) error
	Update(ctx context.Context, ownerID int64, item *T) error
	Delete(ctx context.Context, ownerID, id int64) error
}

// TaskRepository is the port for task persistence.
type TaskRepository = OwnedStore[Task]
