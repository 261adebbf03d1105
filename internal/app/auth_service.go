// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"tasktracker/internal/domain"
)

var (
	// ErrInvalidCredentials indicates that the provided username or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsersExist is returned by CreateInitialUser once any account exists.
	ErrUsersExist = errors.New("users already exist")
	// ErrNoRemoteUser is returned when a forward-auth request carries no user.
	ErrNoRemoteUser = errors.New("no remote user header")
)

const defaultSessionTTL = 24 * time.Hour

// AuthService resolves principals from sessions, API tokens and trusted
// upstream identities.
type AuthService struct {
	users      domain.UserRepository
	sessions   domain.SessionRepository
	identity   *IdentityService
	tokens     *TokenIssuer
	sessionTTL time.Duration
	now        func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository, identity *IdentityService, tokens *TokenIssuer) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		identity:   identity,
		tokens:     tokens,
		sessionTTL: defaultSessionTTL,
		now:        time.Now,
	}
}

// WithSessionTTL sets how long new sessions stay valid.
func (s *AuthService) WithSessionTTL(d time.Duration) *AuthService {
	if d > 0 {
		s.sessionTTL = d
	}
	return s
}

// SessionTTL reports the lifetime given to new sessions.
func (s *AuthService) SessionTTL() time.Duration { return s.sessionTTL }

// Authenticate checks a username/password pair.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !s.identity.VerifyCredential(user, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates a user and creates a session.
func (s *AuthService) Login(ctx context.Context, username, password, userAgent, ip string) (string, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	return s.startSession(ctx, user, userAgent, ip)
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// ValidateSession checks if a session token is valid and matches the user agent.
func (s *AuthService) ValidateSession(ctx context.Context, token, userAgent string) (*domain.User, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if s.now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	if session.UserAgent != userAgent {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	return s.userByID(ctx, session.UserID)
}

// IssueToken authenticates a username/password pair and returns a bearer token.
func (s *AuthService) IssueToken(ctx context.Context, username, password string) (string, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	return s.tokens.Issue(user)
}

// ValidateToken resolves the user behind a bearer token.
func (s *AuthService) ValidateToken(ctx context.Context, raw string) (*domain.User, error) {
	id, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	return s.userByID(ctx, id)
}

// CreateInitialUser creates the first user, as a superuser, if no users exist.
func (s *AuthService) CreateInitialUser(ctx context.Context, username, password string) (*domain.User, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUsersExist
	}
	return s.identity.CreateSuperuser(ctx, username, password)
}

// ValidateForwardAuth validates a request from Authelia forward auth.
// It checks for the Remote-User header set by Authelia.
func (s *AuthService) ValidateForwardAuth(ctx context.Context, remoteUser string) (*domain.User, error) {
	if remoteUser == "" {
		return nil, ErrNoRemoteUser
	}
	return s.provision(ctx, remoteUser)
}

// LoginWithUser creates a session for an already authenticated user (e.g. via SSO).
func (s *AuthService) LoginWithUser(ctx context.Context, username, userAgent, ip string) (string, error) {
	user, err := s.provision(ctx, username)
	if err != nil {
		return "", err
	}
	return s.startSession(ctx, user, userAgent, ip)
}

// PurgeExpiredSessions removes every session past its expiry.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}

// provision returns the named user, creating it on first sight. Users that
// arrive through an upstream identity provider get a random password nobody
// knows, so they cannot log in with a password.
func (s *AuthService) provision(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	password, err := generateToken()
	if err != nil {
		return nil, err
	}
	user, err = s.identity.CreateUser(ctx, username, password)
	if err == nil {
		return user, nil
	}
	// Lost a race with a concurrent provision of the same name.
	if domain.IsValidation(err) {
		if user, lookupErr := s.users.GetByUsername(ctx, username); lookupErr == nil && user != nil {
			return user, nil
		}
	}
	return nil, fmt.Errorf("provision %q: %w", username, err)
}

func (s *AuthService) startSession(ctx context.Context, user *domain.User, userAgent, ip string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	now := s.now()
	err = s.sessions.Create(ctx, &domain.Session{
		Token:     token,
		UserID:    user.ID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *AuthService) userByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
