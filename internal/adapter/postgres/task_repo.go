package postgres

import (
	"context"
	"database/sql"
	"errors"

	"tasktracker/internal/domain"
)

var _ domain.TaskRepository = (*TaskRepo)(nil)

// TaskRepo implements task persistence on DB. Every statement that touches a
// single row carries the owner in its WHERE clause.
type TaskRepo struct {
	db *DB
}

// NewTaskRepo wraps a DB as a TaskRepository.
func NewTaskRepo(db *DB) *TaskRepo {
	return &TaskRepo{db: db}
}

// FindByID returns the task with id if it belongs to ownerID.
func (r *TaskRepo) FindByID(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	var t domain.Task
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT id, user_id, title, description, created_at, updated_at FROM tasks WHERE id = $1 AND user_id = $2",
		id, ownerID,
	).Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindAllByOwner returns the owner's tasks, highest ID first.
func (r *TaskRepo) FindAllByOwner(ctx context.Context, ownerID int64) ([]domain.Task, error) {
	rows, err := r.db.sql.QueryContext(ctx,
		"SELECT id, user_id, title, description, created_at, updated_at FROM tasks WHERE user_id = $1 ORDER BY id DESC",
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := make([]domain.Task, 0)
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Insert stores a new task and assigns its ID.
func (r *TaskRepo) Insert(ctx context.Context, t *domain.Task) error {
	return r.db.sql.QueryRowContext(ctx,
		"INSERT INTO tasks (user_id, title, description, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		t.UserID, t.Title, t.Description, t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
	).Scan(&t.ID)
}

// Update writes the title and description of a task owned by ownerID. The
// user_id column is never part of the SET list.
func (r *TaskRepo) Update(ctx context.Context, ownerID int64, t *domain.Task) error {
	res, err := r.db.sql.ExecContext(ctx,
		"UPDATE tasks SET title = $1, description = $2, updated_at = $3 WHERE id = $4 AND user_id = $5",
		t.Title, t.Description, t.UpdatedAt.UTC(), t.ID, ownerID,
	)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// Delete removes a task owned by ownerID.
func (r *TaskRepo) Delete(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.sql.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1 AND user_id = $2", id, ownerID)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}
