// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"tasktracker/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	users    []*domain.User
	sessions map[string]*domain.Session
	tasks    map[int64]domain.Task

	userIDCounter int64
	taskIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		sessions: make(map[string]*domain.Session),
		tasks:    make(map[int64]domain.Task),
	}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)
var _ domain.TaskRepository = (*TaskRepo)(nil)

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// Create stores a new user and assigns its ID.
func (db *DB) Create(ctx context.Context, u *domain.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, existing := range db.users {
		if existing.Username == u.Username {
			return domain.ErrDuplicate
		}
	}

	db.userIDCounter++
	u.ID = db.userIDCounter
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	cp := *u
	db.users = append(db.users, &cp)
	return nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cp := *s
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	r.db.sessions[s.Token] = &cp
	return nil
}

// GetByToken retrieves a session by token. Expiry is left to the caller.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all sessions that expired before now.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
			n++
		}
	}
	return n, nil
}

// --- TaskRepository ---

// TaskRepo implements task persistence on top of DB.
type TaskRepo struct {
	db *DB
}

// NewTaskRepo creates a new task repository.
func (db *DB) NewTaskRepo() *TaskRepo {
	return &TaskRepo{db: db}
}

// FindByID returns the task with id if it belongs to ownerID.
func (r *TaskRepo) FindByID(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.tasks[id]
	if !ok || t.UserID != ownerID {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

// FindAllByOwner returns the owner's tasks, highest ID first.
func (r *TaskRepo) FindAllByOwner(ctx context.Context, ownerID int64) ([]domain.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	out := make([]domain.Task, 0)
	for _, t := range r.db.tasks {
		if t.UserID == ownerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Insert stores a new task and assigns its ID.
func (r *TaskRepo) Insert(ctx context.Context, t *domain.Task) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.taskIDCounter++
	t.ID = r.db.taskIDCounter
	r.db.tasks[t.ID] = *t
	return nil
}

// Update overwrites the title and description of a task owned by ownerID.
func (r *TaskRepo) Update(ctx context.Context, ownerID int64, t *domain.Task) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.tasks[t.ID]
	if !ok || stored.UserID != ownerID {
		return domain.ErrNotFound
	}
	stored.Title = t.Title
	stored.Description = t.Description
	stored.UpdatedAt = t.UpdatedAt
	r.db.tasks[t.ID] = stored
	return nil
}

// Delete removes a task owned by ownerID.
func (r *TaskRepo) Delete(ctx context.Context, ownerID, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.tasks[id]
	if !ok || t.UserID != ownerID {
		return domain.ErrNotFound
	}
	delete(r.db.tasks, id)
	return nil
}
