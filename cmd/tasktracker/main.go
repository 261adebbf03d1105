package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	adapthttp "tasktracker/internal/adapter/http"
	"tasktracker/internal/app"
	"tasktracker/internal/config"
	"tasktracker/internal/db"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flagSet := pflag.NewFlagSet("tasktracker", pflag.ContinueOnError)
	configPath := flagSet.StringP("config", "c", os.Getenv("TASKTRACKER_CONFIG"), "path to a YAML config file")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	store, err := db.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer func() { _ = store.Close() }()

	identity := app.NewIdentityService(store.Users)
	tokens := app.NewTokenIssuer(app.TokenConfig{
		Secret: cfg.Auth.JWTSecret,
		TTL:    cfg.Auth.TokenTTL,
		Issuer: cfg.Auth.TokenIssuer,
	})
	authSvc := app.NewAuthService(store.Users, store.Sessions, identity, tokens).
		WithSessionTTL(cfg.Auth.SessionTTL)
	taskSvc := app.NewTaskService(store.Tasks)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Auth.BootstrapUser != "" {
		bootstrap(ctx, logger, authSvc, cfg.Auth.BootstrapUser, cfg.Auth.BootstrapPassword)
	}

	srv := adapthttp.New(taskSvc, authSvc).
		WithLogger(logger).
		WithForwardAuth(cfg.Auth.TrustForwardAuth)
	if cfg.OIDC.Enabled() {
		oidcCfg, err := adapthttp.NewOIDCConfig(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID, cfg.OIDC.ClientSecret, cfg.OIDC.RedirectURL)
		if err != nil {
			return err
		}
		srv.WithOIDC(oidcCfg)
	}

	go purgeSessions(ctx, logger, authSvc, cfg.Auth.SessionPurgeInterval)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("listening", "addr", cfg.Addr, "store", store.Kind)
	return serve(logger, httpServer, cfg.ShutdownTimeout)
}

// serve runs httpServer until a shutdown signal arrives or the listener
// fails, whichever comes first.
func serve(logger *slog.Logger, httpServer *http.Server, timeout time.Duration) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	wait := gfshutdown.GracefulShutdown(context.Background(), timeout, map[string]gfshutdown.Operation{
		"http-server": func(ctx context.Context) error {
			logger.Info("shutting down")
			return httpServer.Shutdown(ctx)
		},
	})
	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case code := <-wait:
		if code != 0 {
			return fmt.Errorf("shutdown exited with code %d", code)
		}
		return nil
	}
}

// bootstrap creates the first superuser on an empty store.
func bootstrap(ctx context.Context, logger *slog.Logger, authSvc *app.AuthService, username, password string) {
	u, err := authSvc.CreateInitialUser(ctx, username, password)
	switch {
	case errors.Is(err, app.ErrUsersExist):
		logger.Debug("bootstrap skipped, users exist")
	case err != nil:
		logger.Error("bootstrap user", "username", username, "err", err)
	default:
		logger.Info("bootstrap superuser created", "username", u.Username, "id", u.ID)
	}
}

func purgeSessions(ctx context.Context, logger *slog.Logger, authSvc *app.AuthService, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := authSvc.PurgeExpiredSessions(ctx)
			if err != nil {
				logger.Warn("purge expired sessions", "err", err)
				continue
			}
			if n > 0 {
				logger.Info("purged expired sessions", "count", n)
			}
		}
	}
}
