// Package ledger implements the escrow-backed financial state machine for
// equity-style crowdfunding: campaign lifecycle and investor accounting,
// platform/creator settlement splits, and epoch-based pro-rata income
// distribution. Every state-mutating operation runs as one atomic store
// transaction; a failed precondition or failed checked-arithmetic step aborts
// with zero side effects, so retries are always safe.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/propvest/ledger/internal/metrics"
)

type Config struct {
	Logger  *slog.Logger
	Store   Store
	Rail    PaymentRail
	Mint    TokenMint
	Clock   clockwork.Clock
	Emitter Emitter // optional, defaults to logging events
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Store == nil {
		return errors.New("store is required")
	}
	if cfg.Rail == nil {
		return errors.New("payment rail is required")
	}
	if cfg.Mint == nil {
		return errors.New("token mint is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Emitter == nil {
		cfg.Emitter = LogEmitter{Log: cfg.Logger}
	}
	return nil
}

// Service owns the CampaignLedger, DividendEngine, and platform registry
// operations. It holds no in-process locks; record-level exclusivity is the
// store's transaction guarantee.
type Service struct {
	log   *slog.Logger
	cfg   Config
	store Store
	rail  PaymentRail
	mint  TokenMint
	clock clockwork.Clock
	emit  Emitter
}

func New(cfg Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Service{
		log:   cfg.Logger,
		cfg:   cfg,
		store: cfg.Store,
		rail:  cfg.Rail,
		mint:  cfg.Mint,
		clock: cfg.Clock,
		emit:  cfg.Emitter,
	}, nil
}

// finish records operation metrics and, on success, emits the operation's
// events. Events are emitted only after the transaction has committed.
func (s *Service) finish(ctx context.Context, op string, start time.Time, err error, evs ...Event) error {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.OperationsTotal.WithLabelValues(op, status).Inc()
	metrics.OperationDuration.WithLabelValues(op).Observe(s.clock.Since(start).Seconds())
	if err != nil {
		s.log.Debug("ledger operation rejected", "op", op, "code", Code(err), "error", err)
		return err
	}
	for _, ev := range evs {
		s.emit.Emit(ctx, ev)
	}
	return nil
}
