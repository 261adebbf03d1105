package app

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"

	"tasktracker/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// UserOption sets optional attributes on a user before it is stored.
type UserOption func(*domain.User)

// WithSuperuser marks the new user as a superuser.
func WithSuperuser() UserOption {
	return func(u *domain.User) { u.IsSuperuser = true }
}

// IdentityService owns account creation and credential checks.
type IdentityService struct {
	users domain.UserRepository
	cost  int
}

// NewIdentityService creates an IdentityService that hashes with bcrypt's default cost.
func NewIdentityService(users domain.UserRepository) *IdentityService {
	return &IdentityService{users: users, cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *IdentityService) WithHashCost(cost int) *IdentityService {
	s.cost = cost
	return s
}

// CreateUser validates the credentials, hashes the password and stores a new user.
func (s *IdentityService) CreateUser(ctx context.Context, username, password string, opts ...UserOption) (*domain.User, error) {
	if username == "" {
		return nil, domain.Invalid("username", "must not be empty")
	}
	if utf8.RuneCountInString(password) < domain.MinPasswordLength {
		return nil, domain.Invalid("password", "must be at least %d characters", domain.MinPasswordLength)
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return nil, domain.Invalid("username", "already exists")
	}

	hash, err := hashPassword(password, s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{Username: username, PasswordHash: string(hash)}
	for _, opt := range opts {
		opt(u)
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.Invalid("username", "already exists")
		}
		return nil, err
	}
	return u, nil
}

// CreateSuperuser is CreateUser with the superuser flag set in the same write.
func (s *IdentityService) CreateSuperuser(ctx context.Context, username, password string) (*domain.User, error) {
	return s.CreateUser(ctx, username, password, WithSuperuser())
}

// VerifyCredential reports whether password matches the user's stored hash.
func (s *IdentityService) VerifyCredential(u *domain.User, password string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), prehash(password)) == nil
}

// prehash reduces a password of any length to 44 bytes of base64, below
// bcrypt's 72-byte input limit and free of NUL bytes.
func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

func hashPassword(password string, cost int) ([]byte, error) {
	return bcrypt.GenerateFromPassword(prehash(password), cost)
}
