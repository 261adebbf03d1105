// Package db opens the persistence backend selected in configuration and
// exposes it through the domain repository ports.
package db

import (
	"fmt"

	"tasktracker/internal/adapter/memory"
	"tasktracker/internal/adapter/postgres"
	"tasktracker/internal/adapter/sqlite"
	"tasktracker/internal/config"
	"tasktracker/internal/domain"
)

// DB bundles the repositories of one backend.
type DB struct {
	Kind     string
	Users    domain.UserRepository
	Sessions domain.SessionRepository
	Tasks    domain.TaskRepository

	close func() error
}

// Open connects to the backend described by cfg and migrates its schema.
func Open(cfg config.StoreConfig) (*DB, error) {
	switch cfg.Kind {
	case config.StoreMemory:
		m := memory.New()
		return &DB{
			Kind:     cfg.Kind,
			Users:    m,
			Sessions: m.NewSessionRepo(),
			Tasks:    m.NewTaskRepo(),
			close:    func() error { return nil },
		}, nil
	case config.StorePostgres:
		pg, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return &DB{
			Kind:     cfg.Kind,
			Users:    pg,
			Sessions: postgres.NewSessionRepo(pg),
			Tasks:    postgres.NewTaskRepo(pg),
			close:    pg.Close,
		}, nil
	case config.StoreSQLite:
		lite, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return &DB{
			Kind:     cfg.Kind,
			Users:    lite,
			Sessions: sqlite.NewSessionRepo(lite),
			Tasks:    sqlite.NewTaskRepo(lite),
			close:    lite.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Kind)
	}
}

// Close releases the backend's connections.
func (d *DB) Close() error {
	return d.close()
}
