// Package sqlite implements the domain repositories on SQLite through GORM.
// It is meant for single-node deployments that do not want a PostgreSQL
// server.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tasktracker/internal/domain"

	sqlitedriver "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type userRow struct {
	ID           int64  `gorm:"primaryKey"`
	Username     string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	IsSuperuser  bool   `gorm:"not null"`
	CreatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

type sessionRow struct {
	Token     string `gorm:"primaryKey"`
	UserID    int64  `gorm:"index;not null"`
	UserAgent string
	IP        string
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
}

func (sessionRow) TableName() string { return "sessions" }

type taskRow struct {
	ID          int64  `gorm:"primaryKey"`
	UserID      int64  `gorm:"index;not null"`
	Title       string `gorm:"not null"`
	Description string `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (taskRow) TableName() string { return "tasks" }

func (r taskRow) toDomain() domain.Task {
	return domain.Task{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// DB wraps a *gorm.DB and implements domain repository interfaces.
type DB struct {
	gorm *gorm.DB
}

// Open opens (or creates) the SQLite database at path and migrates the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*DB, error) {
	g, err := gorm.Open(sqlitedriver.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := g.DB()
	if err != nil {
		return nil, err
	}
	// SQLite serialises writers anyway, and an in-memory database exists
	// only on the connection that created it.
	sqlDB.SetMaxOpenConns(1)

	if err := g.AutoMigrate(&userRow{}, &sessionRow{}, &taskRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &DB{gorm: g}, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- UserRepository ---

var _ domain.UserRepository = (*DB)(nil)

func (d *DB) findUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var row userRow
	err := d.gorm.WithContext(ctx).Where(query, arg).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.User{
		ID:           row.ID,
		Username:     row.Username,
		PasswordHash: row.PasswordHash,
		IsSuperuser:  row.IsSuperuser,
		CreatedAt:    row.CreatedAt,
	}, nil
}

// GetByUsername retrieves a user by username.
func (d *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return d.findUser(ctx, "username = ?", username)
}

// GetByID retrieves a user by ID.
func (d *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return d.findUser(ctx, "id = ?", id)
}

// Create inserts a new user and fills in its ID.
func (d *DB) Create(ctx context.Context, u *domain.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	row := userRow{
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		IsSuperuser:  u.IsSuperuser,
		CreatedAt:    u.CreatedAt,
	}
	if err := d.gorm.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return err
	}
	u.ID = row.ID
	return nil
}

// Count returns the total number of users.
func (d *DB) Count(ctx context.Context) (int, error) {
	var n int64
	err := d.gorm.WithContext(ctx).Model(&userRow{}).Count(&n).Error
	return int(n), err
}

// --- SessionRepository ---

// SessionRepo implements session persistence on DB.
type SessionRepo struct {
	db *DB
}

var _ domain.SessionRepository = (*SessionRepo)(nil)

// NewSessionRepo wraps a DB as a SessionRepository.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	return r.db.gorm.WithContext(ctx).Create(&sessionRow{
		Token:     s.Token,
		UserID:    s.UserID,
		UserAgent: s.UserAgent,
		IP:        s.IP,
		ExpiresAt: s.ExpiresAt,
		CreatedAt: s.CreatedAt,
	}).Error
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	var row sessionRow
	err := r.db.gorm.WithContext(ctx).Where("token = ?", token).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.Session{
		Token:     row.Token,
		UserID:    row.UserID,
		UserAgent: row.UserAgent,
		IP:        row.IP,
		ExpiresAt: row.ExpiresAt,
		CreatedAt: row.CreatedAt,
	}, nil
}

// Delete deletes a session by token.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	return r.db.gorm.WithContext(ctx).Where("token = ?", token).Delete(&sessionRow{}).Error
}

// DeleteExpired deletes all sessions that expired before now.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.gorm.WithContext(ctx).Where("expires_at < ?", now).Delete(&sessionRow{})
	return res.RowsAffected, res.Error
}

// --- TaskRepository ---

// TaskRepo implements task persistence on DB.
type TaskRepo struct {
	db *DB
}

var _ domain.TaskRepository = (*TaskRepo)(nil)

// NewTaskRepo wraps a DB as a TaskRepository.
func NewTaskRepo(db *DB) *TaskRepo {
	return &TaskRepo{db: db}
}

// FindByID returns the task with id if it belongs to ownerID.
func (r *TaskRepo) FindByID(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	var row taskRow
	err := r.db.gorm.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t := row.toDomain()
	return &t, nil
}

// FindAllByOwner returns the owner's tasks, highest ID first.
func (r *TaskRepo) FindAllByOwner(ctx context.Context, ownerID int64) ([]domain.Task, error) {
	var rows []taskRow
	if err := r.db.gorm.WithContext(ctx).Where("user_id = ?", ownerID).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// Insert stores a new task and assigns its ID.
func (r *TaskRepo) Insert(ctx context.Context, t *domain.Task) error {
	row := taskRow{
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if err := r.db.gorm.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	t.ID = row.ID
	return nil
}

// Update writes the title and description of a task owned by ownerID.
func (r *TaskRepo) Update(ctx context.Context, ownerID int64, t *domain.Task) error {
	res := r.db.gorm.WithContext(ctx).Model(&taskRow{}).
		Where("id = ? AND user_id = ?", t.ID, ownerID).
		Updates(map[string]any{
			"title":       t.Title,
			"description": t.Description,
			"updated_at":  t.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a task owned by ownerID.
func (r *TaskRepo) Delete(ctx context.Context, ownerID, id int64) error {
	res := r.db.gorm.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).Delete(&taskRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
