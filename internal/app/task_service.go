package app

import (
	"context"
	"time"

	"tasktracker/internal/domain"
)

// TaskService encapsulates the task use cases for an authenticated principal.
type TaskService struct {
	tasks *ScopedResource[domain.Task]
	now   func() time.Time
}

// NewTaskService creates a TaskService backed by the given repository.
func NewTaskService(repo domain.TaskRepository) *TaskService {
	return &TaskService{
		tasks: NewScopedResource(repo, Ownership[domain.Task]{
			Owner:    (*domain.Task).OwnerID,
			SetOwner: (*domain.Task).SetOwnerID,
		}),
		now: time.Now,
	}
}

// List returns the principal's tasks ordered by ID descending.
func (s *TaskService) List(ctx context.Context, principal *domain.User) ([]domain.Task, error) {
	return s.tasks.List(ctx, principal)
}

// Get returns one of the principal's tasks.
func (s *TaskService) Get(ctx context.Context, principal *domain.User, id int64) (*domain.Task, error) {
	return s.tasks.Get(ctx, principal, id)
}

// Create stores a new task owned by principal.
func (s *TaskService) Create(ctx context.Context, principal *domain.User, title, description string) (*domain.Task, error) {
	now := s.now().UTC()
	t := &domain.Task{
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.Create(ctx, principal, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update merges u into one of the principal's tasks.
func (s *TaskService) Update(ctx context.Context, principal *domain.User, id int64, u domain.TaskUpdate, mode domain.UpdateMode) (*domain.Task, error) {
	return s.tasks.Modify(ctx, principal, id, func(t *domain.Task) error {
		if err := u.Apply(t, mode); err != nil {
			return err
		}
		t.UpdatedAt = s.now().UTC()
		return nil
	})
}

// Delete permanently removes one of the principal's tasks.
func (s *TaskService) Delete(ctx context.Context, principal *domain.User, id int64) error {
	return s.tasks.Delete(ctx, principal, id)
}
