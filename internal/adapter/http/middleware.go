package adapthttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tasktracker/internal/app"
	"tasktracker/internal/domain"

	"github.com/google/uuid"
)

type contextKey string

const (
	userContextKey      contextKey = "user"
	requestIDContextKey contextKey = "request_id"
)

// userFromContext returns the principal resolved by authMiddleware, or nil.
func userFromContext(r *http.Request) *domain.User {
	u, _ := r.Context().Value(userContextKey).(*domain.User)
	return u
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// requireUser wraps h in authMiddleware.
func (s *Server) requireUser(h http.HandlerFunc) http.Handler {
	return s.authMiddleware(h)
}

// authMiddleware resolves the principal from a bearer token, a trusted
// forward-auth header or the session cookie, in that order. Requests
// without one are rejected before reaching next.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.resolvePrincipal(r)
		switch {
		case err == nil && user != nil:
			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		case err == nil, isAuthFailure(err):
			w.Header().Set("WWW-Authenticate", `Bearer realm="tasktracker"`)
			writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized)
		default:
			s.logger.ErrorContext(r.Context(), "resolve principal", "err", err, "request_id", requestID(r.Context()))
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		}
	})
}

func (s *Server) resolvePrincipal(r *http.Request) (*domain.User, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return nil, app.ErrInvalidToken
		}
		return s.authSvc.ValidateToken(r.Context(), token)
	}

	if s.forwardAuth {
		if remoteUser := r.Header.Get("Remote-User"); remoteUser != "" {
			return s.authSvc.ValidateForwardAuth(r.Context(), remoteUser)
		}
	}

	cookie, err := r.Cookie("session")
	if err != nil {
		return nil, nil
	}
	return s.authSvc.ValidateSession(r.Context(), cookie.Value, r.UserAgent())
}

func isAuthFailure(err error) bool {
	return errors.Is(err, app.ErrSessionNotFound) ||
		errors.Is(err, app.ErrSessionExpired) ||
		errors.Is(err, app.ErrUserNotFound) ||
		errors.Is(err, app.ErrInvalidToken) ||
		errors.Is(err, app.ErrTokenExpired) ||
		errors.Is(err, domain.ErrUnauthorized)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware tags each request with an ID and logs it once served.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDContextKey, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		s.logger.LogAttrs(ctx, slog.LevelInfo, "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", id),
		)
	})
}
