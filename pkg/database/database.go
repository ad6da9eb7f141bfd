// Package database manages the PostgreSQL connection pool and ties its
// health checks and teardown into the application lifecycle.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/cascade/pkg/lifecycle"
)

// System exposes the shared connection pool and hooks the pool into
// startup and shutdown.
type System interface {
	// Connection returns the pool. Safe to share across repositories.
	Connection() *sql.DB
	// Start registers the startup ping and shutdown close with lc.
	Start(lc *lifecycle.Coordinator) error
}

type database struct {
	db          *sql.DB
	logger      *slog.Logger
	pingTimeout time.Duration
}

// New opens the pool described by cfg. sql.Open validates the DSN and
// applies pool limits without dialing; the first connection is
// established by the startup ping or the first query.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	db, err := sql.Open("pgx", cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &database{
		db:          db,
		logger:      logger.With("system", "database"),
		pingTimeout: cfg.ConnTimeoutDuration(),
	}, nil
}

func (d *database) Connection() *sql.DB {
	return d.db
}

func (d *database) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() {
		d.ping(lc.Context())
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		d.close()
	})

	return nil
}

// ping verifies the pool can reach Postgres. Failure is logged rather
// than fatal; the pool retries on the next query.
func (d *database) ping(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, d.pingTimeout)
	defer cancel()

	if err := d.db.PingContext(ctx); err != nil {
		d.logger.Error("postgres unreachable", "error", err)
		return
	}
	d.logger.Info("postgres connection verified")
}

func (d *database) close() {
	if err := d.db.Close(); err != nil {
		d.logger.Error("closing connection pool", "error", err)
		return
	}
	d.logger.Info("connection pool closed")
}
