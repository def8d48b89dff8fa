package ledger_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/propvest/ledger/internal/ledger"
	"github.com/propvest/ledger/internal/ledger/ledgertest"
	"github.com/propvest/ledger/internal/store/memory"
)

const (
	admin          = "admin-wallet"
	platformWallet = "platform-wallet"
	creator        = "creator-wallet"
	propertyMint   = "property-mint"
)

var baseTime = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

type harness struct {
	clock *clockwork.FakeClock
	store *memory.Store
	rail  *ledgertest.Rail
	mint  *ledgertest.Mint
	svc   *ledger.Service

	mu     sync.Mutex
	events []ledger.Event
}

func (h *harness) Emit(ctx context.Context, ev ledger.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
}

func (h *harness) lastEvent() ledger.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.events) == 0 {
		return nil
	}
	return h.events[len(h.events)-1]
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock: clockwork.NewFakeClockAt(baseTime),
		store: memory.NewStore(),
		rail:  ledgertest.NewRail(),
		mint:  ledgertest.NewMint(),
	}
	svc, err := ledger.New(ledger.Config{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:   h.store,
		Rail:    h.rail,
		Mint:    h.mint,
		Clock:   h.clock,
		Emitter: h,
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

// newPlatformHarness additionally initializes the platform and whitelists
// the default creator.
func newPlatformHarness(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.svc.InitializePlatform(ctx, admin, platformWallet))
	require.NoError(t, h.svc.AddToWhitelist(ctx, admin, creator))
	return h
}

func (h *harness) createCampaign(t *testing.T, p ledger.CreateCampaignParams) *ledger.Campaign {
	t.Helper()
	if p.Creator == "" {
		p.Creator = creator
	}
	if p.PropertyID == "" {
		p.PropertyID = "prop-1"
	}
	if p.PropertyMint == "" {
		p.PropertyMint = propertyMint
	}
	if p.FundingGoal == 0 {
		p.FundingGoal = 1000
	}
	if p.FundingDeadline.IsZero() {
		p.FundingDeadline = h.clock.Now().Add(30 * 24 * time.Hour)
	}
	if p.TokenPrice == 0 {
		p.TokenPrice = 10
	}
	if p.TotalTokens == 0 {
		p.TotalTokens = 100
	}
	c, err := h.svc.CreateCampaign(context.Background(), p)
	require.NoError(t, err)
	return c
}

func (h *harness) fund(account string, amount uint64) {
	h.rail.Deposit(account, amount)
}
