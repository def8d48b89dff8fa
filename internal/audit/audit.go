// Package audit persists committed ledger events to ClickHouse. The recorder
// is a ledger.Emitter: it buffers events in memory and flushes them in batches
// so event emission never blocks an operation on a round trip.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/propvest/ledger/internal/ledger"
	"github.com/propvest/ledger/internal/metrics"
)

const (
	eventsTable = "ledger_events"

	insertEventsQuery = `INSERT INTO ` + eventsTable + ` (event_id, event_type, payload, emitted_at)`

	createEventsTableQuery = `
		CREATE TABLE IF NOT EXISTS ` + eventsTable + ` (
			event_id UUID,
			event_type LowCardinality(String),
			payload String,
			emitted_at DateTime64(3, 'UTC')
		) ENGINE = MergeTree()
		ORDER BY (event_type, emitted_at)`
)

// Config holds the audit recorder configuration.
type Config struct {
	Logger *slog.Logger
	Client Client

	// FlushInterval bounds how long an event sits in the buffer.
	FlushInterval time.Duration

	// BatchSize triggers an early flush when the buffer reaches it.
	BatchSize int

	Clock clockwork.Clock
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}
	if c.FlushInterval == 0 {
		c.FlushInterval = 5 * time.Second
	}
	if c.BatchSize == 0 {
		c.BatchSize = 256
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	return nil
}

type record struct {
	id        uuid.UUID
	eventType string
	payload   string
	emittedAt time.Time
}

// Recorder buffers committed events and writes them to ClickHouse.
type Recorder struct {
	log   *slog.Logger
	cfg   Config
	clock clockwork.Clock

	mu     sync.Mutex
	buf    []record
	kick   chan struct{}
	closed bool
}

func NewRecorder(cfg Config) (*Recorder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate audit config: %w", err)
	}
	return &Recorder{
		log:   cfg.Logger,
		cfg:   cfg,
		clock: cfg.Clock,
		kick:  make(chan struct{}, 1),
	}, nil
}

// EnsureSchema creates the events table if missing.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	conn, err := r.cfg.Client.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()
	if err := conn.Exec(ctx, createEventsTableQuery); err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}
	return nil
}

// Emit implements ledger.Emitter. It never fails the calling operation; an
// event that cannot be serialized is logged and dropped.
func (r *Recorder) Emit(ctx context.Context, ev ledger.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		r.log.Error("failed to serialize audit event", "type", ev.EventType(), "error", err)
		return
	}
	rec := record{
		id:        uuid.New(),
		eventType: ev.EventType(),
		payload:   string(payload),
		emittedAt: r.clock.Now().UTC(),
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.log.Warn("audit recorder closed, dropping event", "type", ev.EventType())
		return
	}
	r.buf = append(r.buf, rec)
	full := len(r.buf) >= r.cfg.BatchSize
	r.mu.Unlock()

	metrics.AuditEventsTotal.WithLabelValues(ev.EventType()).Inc()
	if full {
		select {
		case r.kick <- struct{}{}:
		default:
		}
	}
}

// Run flushes on an interval until ctx is cancelled, then drains the buffer
// one last time.
func (r *Recorder) Run(ctx context.Context) error {
	ticker := r.clock.NewTicker(r.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			r.closed = true
			r.mu.Unlock()
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			if err := r.Flush(drainCtx); err != nil {
				r.log.Error("failed to drain audit buffer", "error", err)
			}
			return ctx.Err()
		case <-ticker.Chan():
			if err := r.Flush(ctx); err != nil {
				r.log.Error("failed to flush audit buffer", "error", err)
			}
		case <-r.kick:
			if err := r.Flush(ctx); err != nil {
				r.log.Error("failed to flush audit buffer", "error", err)
			}
		}
	}
}

// Flush writes all buffered events in one batch. On failure the events are
// put back so the next flush retries them.
func (r *Recorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	batch := r.buf
	r.buf = nil
	r.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	if err := r.insert(ctx, batch); err != nil {
		metrics.AuditFlushesTotal.WithLabelValues("error").Inc()
		r.mu.Lock()
		r.buf = append(batch, r.buf...)
		r.mu.Unlock()
		return err
	}

	metrics.AuditFlushesTotal.WithLabelValues("ok").Inc()
	r.log.Debug("flushed audit events", "count", len(batch))
	return nil
}

func (r *Recorder) insert(ctx context.Context, batch []record) error {
	conn, err := r.cfg.Client.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	b, err := conn.PrepareBatch(ctx, insertEventsQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	for _, rec := range batch {
		if err := b.Append(rec.id, rec.eventType, rec.payload, rec.emittedAt); err != nil {
			return fmt.Errorf("failed to append event: %w", err)
		}
	}
	if err := b.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	return nil
}
