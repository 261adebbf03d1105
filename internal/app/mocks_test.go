package app

import (
	"context"
	"time"

	"tasktracker/internal/domain"
)

type mockUserRepo struct {
	getByUsernameFn func(ctx context.Context, username string) (*domain.User, error)
	getByIDFn       func(ctx context.Context, id int64) (*domain.User, error)
	createFn        func(ctx context.Context, u *domain.User) error
	countFn         func(ctx context.Context) (int, error)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	u.ID = 1
	return nil
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

type mockSessionRepo struct {
	createFn        func(ctx context.Context, s *domain.Session) error
	getByTokenFn    func(ctx context.Context, token string) (*domain.Session, error)
	deleteFn        func(ctx context.Context, token string) error
	deleteExpiredFn func(ctx context.Context, now time.Time) (int64, error)
}

func (m *mockSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	return nil
}

func (m *mockSessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, token string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx, now)
	}
	return 0, nil
}

// fakeTaskStore is a minimal owner-filtering TaskRepository. It records
// the owner passed to Update so tests can check what the service asked for.
type fakeTaskStore struct {
	tasks       map[int64]domain.Task
	nextID      int64
	updateOwner int64
	findErr     error
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[int64]domain.Task)}
}

func (f *fakeTaskStore) FindByID(_ context.Context, ownerID, id int64) (*domain.Task, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	t, ok := f.tasks[id]
	if !ok || t.UserID != ownerID {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (f *fakeTaskStore) FindAllByOwner(_ context.Context, ownerID int64) ([]domain.Task, error) {
	var out []domain.Task
	for id := f.nextID; id > 0; id-- {
		if t, ok := f.tasks[id]; ok && t.UserID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) Insert(_ context.Context, t *domain.Task) error {
	f.nextID++
	t.ID = f.nextID
	f.tasks[t.ID] = *t
	return nil
}

func (f *fakeTaskStore) Update(_ context.Context, ownerID int64, t *domain.Task) error {
	f.updateOwner = ownerID
	stored, ok := f.tasks[t.ID]
	if !ok || stored.UserID != ownerID {
		return domain.ErrNotFound
	}
	f.tasks[t.ID] = *t
	return nil
}

func (f *fakeTaskStore) Delete(_ context.Context, ownerID, id int64) error {
	t, ok := f.tasks[id]
	if !ok || t.UserID != ownerID {
		return domain.ErrNotFound
	}
	delete(f.tasks, id)
	return nil
}
