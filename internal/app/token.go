package app

import (
	"errors"
	"strconv"
	"time"

	"tasktracker/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when an API token cannot be verified.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when an API token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// TokenConfig holds the API token settings.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

type tokenClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 bearer tokens for API clients.
type TokenIssuer struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokenIssuer creates a TokenIssuer.
func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	return &TokenIssuer{cfg: cfg, now: time.Now}
}

// Issue returns a signed token whose subject is the user's ID.
func (t *TokenIssuer) Issue(u *domain.User) (string, error) {
	now := t.now()
	claims := tokenClaims{
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.cfg.Issuer,
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(t.cfg.Secret))
}

// Parse verifies raw and returns the user ID it was issued for.
func (t *TokenIssuer) Parse(raw string) (int64, error) {
	token, err := jwt.ParseWithClaims(raw, &tokenClaims{}, func(*jwt.Token) (any, error) {
		return []byte(t.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(t.cfg.Issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrInvalidToken
	}
	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}
