package adapthttp

import (
	"log/slog"
	"net/http"

	"tasktracker/internal/app"
)

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	tasks       *app.TaskService
	authSvc     *app.AuthService
	oidcConfig  *OIDCConfig
	forwardAuth bool
	logger      *slog.Logger
}

// New creates a Server wired to the given application services.
func New(tasks *app.TaskService, authSvc *app.AuthService) *Server {
	return &Server{
		tasks:      tasks,
		authSvc:    authSvc,
		oidcConfig: &OIDCConfig{},
		logger:     slog.Default(),
	}
}

// WithLogger replaces the request and error logger.
func (s *Server) WithLogger(l *slog.Logger) *Server {
	s.logger = l
	return s
}

// WithOIDC enables SSO login through the given provider.
func (s *Server) WithOIDC(cfg *OIDCConfig) *Server {
	if cfg != nil {
		s.oidcConfig = cfg
	}
	return s
}

// WithForwardAuth trusts the Remote-User header set by a reverse proxy.
// Only enable this when the proxy strips the header from client requests.
func (s *Server) WithForwardAuth(enabled bool) *Server {
	s.forwardAuth = enabled
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.HandleFunc("POST /auth/token", s.handleToken)
	mux.HandleFunc("POST /auth/setup", s.handleSetupUser)
	mux.HandleFunc("GET /auth/config", s.handleConfig)
	mux.HandleFunc("GET /auth/sso/login", s.handleSSOLogin)
	mux.HandleFunc("GET /auth/sso/callback", s.handleSSOCallback)
	mux.Handle("GET /auth/me", s.requireUser(s.handleMe))

	mux.Handle("GET /tasks", s.requireUser(s.handleTaskList))
	mux.Handle("POST /tasks", s.requireUser(s.handleTaskCreate))
	mux.Handle("GET /tasks/{id}", s.requireUser(s.handleTaskGet))
	mux.Handle("PUT /tasks/{id}", s.requireUser(s.handleTaskReplace))
	mux.Handle("PATCH /tasks/{id}", s.requireUser(s.handleTaskPatch))
	mux.Handle("DELETE /tasks/{id}", s.requireUser(s.handleTaskDelete))

	return s.loggingMiddleware(withNoCache(mux))
}
