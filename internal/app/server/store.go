package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"readiness/internal/domain/leads"
	"readiness/internal/platform/config"
	"readiness/internal/platform/db"
)

// Store is the lead store chosen from configuration: Postgres when
// DATABASE_URL is set, SQLite when SQLITE_PATH is set, memory otherwise.
type Store struct {
	Kind     string
	Leads    leads.StoreAPI
	Postgres *pgxpool.Pool
	sqlite   *leads.SQLiteStore
}

func OpenStore(ctx context.Context, cfg config.Config) (*Store, error) {
	switch {
	case cfg.DatabaseURL != "":
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrations: %w", err)
			}
		}
		return &Store{Kind: "postgres", Leads: leads.NewPostgresStore(pool), Postgres: pool}, nil
	case cfg.SQLitePath != "":
		sqlite, err := leads.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if cfg.RunMigrations {
			if err := sqlite.Migrate(ctx); err != nil {
				_ = sqlite.Close()
				return nil, fmt.Errorf("sqlite migrations: %w", err)
			}
		}
		return &Store{Kind: "sqlite", Leads: sqlite, sqlite: sqlite}, nil
	default:
		slog.Warn("no database configured, leads are kept in memory")
		return &Store{Kind: "memory", Leads: leads.NewMemoryStore()}, nil
	}
}

func (s *Store) Ping(ctx context.Context) error {
	switch {
	case s.Postgres != nil:
		return s.Postgres.Ping(ctx)
	case s.sqlite != nil:
		return s.sqlite.Ping(ctx)
	}
	return nil
}

func (s *Store) Close() {
	if s.Postgres != nil {
		s.Postgres.Close()
	}
	if s.sqlite != nil {
		if err := s.sqlite.Close(); err != nil {
			slog.Warn("sqlite close failed", "err", err)
		}
	}
}
