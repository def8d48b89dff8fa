// Package postgres is the durable ledger.Store. Update wraps the transaction
// closure in a database transaction that locks every row it reads, so
// concurrent operations on the same campaign or pool serialize instead of
// clobbering each other. Claim uniqueness rides on the table's primary key.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/propvest/ledger/internal/ledger"
	"github.com/propvest/ledger/internal/metrics"
)

// Config holds the postgres store configuration.
type Config struct {
	Logger *slog.Logger

	// DSN is the postgres connection string. Ignored when Pool is set.
	DSN string

	// Pool lets callers share an existing connection pool, mainly tests.
	Pool *pgxpool.Pool

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.DSN == "" && c.Pool == nil {
		return fmt.Errorf("dsn or pool is required")
	}
	if c.MaxConns == 0 {
		c.MaxConns = 10
	}
	if c.MinConns == 0 {
		c.MinConns = 2
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = time.Hour
	}
	if c.MaxConnIdleTime == 0 {
		c.MaxConnIdleTime = 30 * time.Minute
	}
	return nil
}

type Store struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

// NewStore connects the pool and pings it. The caller owns Close.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate postgres config: %w", err)
	}

	pool := cfg.Pool
	if pool == nil {
		poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to parse postgres config: %w", err)
		}
		poolCfg.MaxConns = cfg.MaxConns
		poolCfg.MinConns = cfg.MinConns
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		pool, err = pgxpool.NewWithConfig(pingCtx, poolCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping postgres: %w", err)
		}
	}

	return &Store{log: cfg.Logger, pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Ping reports pool health, for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Update(ctx context.Context, fn func(tx ledger.Tx) error) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, true, fn)
}

func (s *Store) View(ctx context.Context, fn func(tx ledger.Tx) error) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadOnly}, false, fn)
}

func (s *Store) run(ctx context.Context, opts pgx.TxOptions, forUpdate bool, fn func(tx ledger.Tx) error) error {
	pgtx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		metrics.StoreTransactionsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// no-op after commit
		if err := pgtx.Rollback(context.WithoutCancel(ctx)); err != nil && err != pgx.ErrTxClosed {
			s.log.Error("failed to rollback transaction", "error", err)
		}
	}()

	if err := fn(&tx{ctx: ctx, tx: pgtx, forUpdate: forUpdate}); err != nil {
		metrics.StoreTransactionsTotal.WithLabelValues("rolled_back").Inc()
		return err
	}
	if err := pgtx.Commit(ctx); err != nil {
		metrics.StoreTransactionsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	metrics.StoreTransactionsTotal.WithLabelValues("committed").Inc()
	return nil
}
