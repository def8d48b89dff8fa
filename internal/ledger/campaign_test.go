package ledger_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/propvest/ledger/internal/ledger"
)

func TestLedger_Campaign_Create(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates an active campaign", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{
			FundingGoal:       1000,
			PlatformEquityBps: 1000,
			TokenPrice:        10,
			TotalTokens:       100,
		})

		require.Equal(t, ledger.CampaignStatusActive, c.Status)
		require.Equal(t, ledger.CampaignID("prop-1", creator), c.ID)
		require.NotEmpty(t, c.EscrowVault)
		require.Zero(t, c.TotalRaised)
		require.Zero(t, c.TokensSold)
		require.Zero(t, c.InvestorCount)

		p, err := h.svc.GetPlatform(ctx)
		require.NoError(t, err)
		require.Equal(t, uint64(1), p.TotalCampaigns)

		ev, ok := h.lastEvent().(ledger.CampaignCreated)
		require.True(t, ok)
		require.Equal(t, uint64(10), ev.PlatformTokens)
		require.Equal(t, uint64(90), ev.TokensAvailable)
	})

	t.Run("rejects non-whitelisted creator", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		_, err := h.svc.CreateCampaign(ctx, ledger.CreateCampaignParams{
			Creator:         "stranger",
			PropertyID:      "prop-1",
			PropertyMint:    propertyMint,
			FundingGoal:     1000,
			FundingDeadline: h.clock.Now().Add(time.Hour),
			TokenPrice:      10,
			TotalTokens:     100,
		})
		require.ErrorIs(t, err, ledger.ErrNotWhitelisted)
	})

	t.Run("rejects removed creator", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		require.NoError(t, h.svc.RemoveFromWhitelist(ctx, admin, creator))
		_, err := h.svc.CreateCampaign(ctx, ledger.CreateCampaignParams{
			Creator:         creator,
			PropertyID:      "prop-1",
			PropertyMint:    propertyMint,
			FundingGoal:     1000,
			FundingDeadline: h.clock.Now().Add(time.Hour),
			TokenPrice:      10,
			TotalTokens:     100,
		})
		require.ErrorIs(t, err, ledger.ErrNotWhitelisted)
	})

	t.Run("validates parameters", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		base := ledger.CreateCampaignParams{
			Creator:         creator,
			PropertyID:      "prop-1",
			PropertyMint:    propertyMint,
			FundingGoal:     1000,
			FundingDeadline: h.clock.Now().Add(time.Hour),
			TokenPrice:      10,
			TotalTokens:     100,
		}

		tests := []struct {
			name   string
			mutate func(*ledger.CreateCampaignParams)
			want   error
		}{
			{"property id too long", func(p *ledger.CreateCampaignParams) { p.PropertyID = strings.Repeat("x", 65) }, ledger.ErrPropertyIDTooLong},
			{"zero funding goal", func(p *ledger.CreateCampaignParams) { p.FundingGoal = 0 }, ledger.ErrInvalidFundingGoal},
			{"equity above 50%", func(p *ledger.CreateCampaignParams) { p.PlatformEquityBps = 5001 }, ledger.ErrPlatformEquityTooHigh},
			{"deadline in the past", func(p *ledger.CreateCampaignParams) { p.FundingDeadline = h.clock.Now().Add(-time.Hour) }, ledger.ErrInvalidDeadline},
			{"deadline exactly now", func(p *ledger.CreateCampaignParams) { p.FundingDeadline = h.clock.Now() }, ledger.ErrInvalidDeadline},
			{"zero token price", func(p *ledger.CreateCampaignParams) { p.TokenPrice = 0 }, ledger.ErrInvalidTokenPrice},
			{"zero total tokens", func(p *ledger.CreateCampaignParams) { p.TotalTokens = 0 }, ledger.ErrInvalidTokenCount},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				p := base
				tc.mutate(&p)
				_, err := h.svc.CreateCampaign(ctx, p)
				require.ErrorIs(t, err, tc.want)
			})
		}
	})

	t.Run("rejects duplicate property and creator pair", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		h.createCampaign(t, ledger.CreateCampaignParams{})
		_, err := h.svc.CreateCampaign(ctx, ledger.CreateCampaignParams{
			Creator:         creator,
			PropertyID:      "prop-1",
			PropertyMint:    propertyMint,
			FundingGoal:     1000,
			FundingDeadline: h.clock.Now().Add(time.Hour),
			TokenPrice:      10,
			TotalTokens:     100,
		})
		require.ErrorIs(t, err, ledger.ErrCampaignExists)
	})
}

func TestLedger_Campaign_Invest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("accumulates position and moves funds to escrow", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{})
		h.fund("investor-1", 1000)

		rec, err := h.svc.Invest(ctx, c.ID, "investor-1", 250)
		require.NoError(t, err)
		require.Equal(t, uint64(250), rec.AmountInvested)
		require.Equal(t, uint64(25), rec.TokensPurchased)
		require.Equal(t, uint64(250), h.rail.Balance(string(c.EscrowVault)))
		require.Equal(t, uint64(750), h.rail.Balance("investor-1"))

		rec, err = h.svc.Invest(ctx, c.ID, "investor-1", 130)
		require.NoError(t, err)
		require.Equal(t, uint64(380), rec.AmountInvested)
		require.Equal(t, uint64(38), rec.TokensPurchased)

		got, err := h.svc.GetCampaign(ctx, c.ID)
		require.NoError(t, err)
		require.Equal(t, uint64(380), got.TotalRaised)
		require.Equal(t, uint64(38), got.TokensSold)
		require.Equal(t, uint32(1), got.InvestorCount)
	})

	t.Run("remainder buys nothing and is not refunded", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{TokenPrice: 10})
		h.fund("investor-1", 100)

		rec, err := h.svc.Invest(ctx, c.ID, "investor-1", 99)
		require.NoError(t, err)
		require.Equal(t, uint64(9), rec.TokensPurchased)
		require.Equal(t, uint64(99), rec.AmountInvested)
		require.Equal(t, uint64(99), h.rail.Balance(string(c.EscrowVault)))
	})

	t.Run("counts each investor once", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{})
		h.fund("investor-1", 500)
		h.fund("investor-2", 500)

		_, err := h.svc.Invest(ctx, c.ID, "investor-1", 100)
		require.NoError(t, err)
		_, err = h.svc.Invest(ctx, c.ID, "investor-1", 100)
		require.NoError(t, err)
		_, err = h.svc.Invest(ctx, c.ID, "investor-2", 100)
		require.NoError(t, err)

		got, err := h.svc.GetCampaign(ctx, c.ID)
		require.NoError(t, err)
		require.Equal(t, uint32(2), got.InvestorCount)
	})

	t.Run("total raised equals sum of investor records", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{FundingGoal: 100000, TotalTokens: 100000})
		investors := []struct {
			name    string
			amounts []uint64
		}{
			{"investor-1", []uint64{110, 250}},
			{"investor-2", []uint64{90}},
			{"investor-3", []uint64{10, 10, 10}},
		}
		for _, inv := range investors {
			h.fund(inv.name, 10000)
			for _, amt := range inv.amounts {
				_, err := h.svc.Invest(ctx, c.ID, inv.name, amt)
				require.NoError(t, err)
			}
		}

		got, err := h.svc.GetCampaign(ctx, c.ID)
		require.NoError(t, err)
		recs, err := h.svc.ListInvestorRecords(ctx, c.ID)
		require.NoError(t, err)
		var sum uint64
		for _, r := range recs {
			sum += r.AmountInvested
		}
		require.Equal(t, got.TotalRaised, sum)
	})

	t.Run("rejects amounts below one token", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{TokenPrice: 10})
		h.fund("investor-1", 100)

		_, err := h.svc.Invest(ctx, c.ID, "investor-1", 0)
		require.ErrorIs(t, err, ledger.ErrInvalidAmount)
		_, err = h.svc.Invest(ctx, c.ID, "investor-1", 9)
		require.ErrorIs(t, err, ledger.ErrAmountBelowMinimum)
	})

	t.Run("rejects after deadline", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{
			FundingDeadline: h.clock.Now().Add(time.Hour),
		})
		h.fund("investor-1", 100)
		h.clock.Advance(time.Hour)

		_, err := h.svc.Invest(ctx, c.ID, "investor-1", 50)
		require.ErrorIs(t, err, ledger.ErrCampaignExpired)
		require.Equal(t, uint64(100), h.rail.Balance("investor-1"))
	})

	t.Run("respects platform token reservation", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		// 100 tokens, 10% reserved: only 90 ever sellable.
		c := h.createCampaign(t, ledger.CreateCampaignParams{
			FundingGoal:       100000,
			PlatformEquityBps: 1000,
			TokenPrice:        10,
			TotalTokens:       100,
		})
		h.fund("investor-1", 10000)

		_, err := h.svc.Invest(ctx, c.ID, "investor-1", 910)
		require.ErrorIs(t, err, ledger.ErrInsufficientTokens)
		require.Equal(t, uint64(10000), h.rail.Balance("investor-1"))

		_, err = h.svc.Invest(ctx, c.ID, "investor-1", 900)
		require.NoError(t, err)
		got, err := h.svc.GetCampaign(ctx, c.ID)
		require.NoError(t, err)
		require.Equal(t, uint64(90), got.TokensSold)

		_, err = h.svc.Invest(ctx, c.ID, "investor-1", 10)
		require.ErrorIs(t, err, ledger.ErrInsufficientTokens)
	})

	t.Run("rejects unknown campaign", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		_, err := h.svc.Invest(ctx, ledger.CampaignID("nope", creator), "investor-1", 50)
		require.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("failed transfer leaves no state behind", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{})
		// investor has no funds; the rail fails closed.
		_, err := h.svc.Invest(ctx, c.ID, "investor-1", 50)
		require.Error(t, err)

		got, err := h.svc.GetCampaign(ctx, c.ID)
		require.NoError(t, err)
		require.Zero(t, got.TotalRaised)
		require.Zero(t, got.TokensSold)
		require.Zero(t, got.InvestorCount)
		_, err = h.svc.GetInvestorRecord(ctx, c.ID, "investor-1")
		require.ErrorIs(t, err, ledger.ErrNotFound)
	})
}

func TestLedger_Campaign_Finalize(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("splits settlement between platform and creator", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{
			FundingGoal:       1000,
			PlatformEquityBps: 1000,
			TokenPrice:        10,
			TotalTokens:       1000,
		})
		h.fund("investor-1", 500)
		h.fund("investor-2", 600)
		_, err := h.svc.Invest(ctx, c.ID, "investor-1", 500)
		require.NoError(t, err)
		_, err = h.svc.Invest(ctx, c.ID, "investor-2", 600)
		require.NoError(t, err)

		got, err := h.svc.FinalizeCampaign(ctx, c.ID, creator)
		require.NoError(t, err)
		require.Equal(t, ledger.CampaignStatusFunded, got.Status)
		require.Equal(t, uint64(110), h.rail.Balance(platformWallet))
		require.Equal(t, uint64(990), h.rail.Balance(creator))
		require.Zero(t, h.rail.Balance(string(c.EscrowVault)))

		ev, ok := h.lastEvent().(ledger.CampaignFinalized)
		require.True(t, ok)
		require.Equal(t, uint64(110), ev.PlatformShare)
		require.Equal(t, uint64(990), ev.CreatorShare)
		require.Equal(t, ev.TotalRaised, ev.PlatformShare+ev.CreatorShare)
	})

	t.Run("skips zero-amount transfers", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{
			FundingGoal:       100,
			PlatformEquityBps: 0,
		})
		h.fund("investor-1", 100)
		_, err := h.svc.Invest(ctx, c.ID, "investor-1", 100)
		require.NoError(t, err)

		_, err = h.svc.FinalizeCampaign(ctx, c.ID, creator)
		require.NoError(t, err)
		require.Zero(t, h.rail.Balance(platformWallet))
		require.Equal(t, uint64(100), h.rail.Balance(creator))
	})

	t.Run("requires the creator", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{FundingGoal: 100})
		h.fund("investor-1", 100)
		_, err := h.svc.Invest(ctx, c.ID, "investor-1", 100)
		require.NoError(t, err)

		_, err = h.svc.FinalizeCampaign(ctx, c.ID, "investor-1")
		require.ErrorIs(t, err, ledger.ErrUnauthorized)
	})

	t.Run("rejects before goal and deadline", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{FundingGoal: 1000})
		h.fund("investor-1", 100)
		_, err := h.svc.Invest(ctx, c.ID, "investor-1", 100)
		require.NoError(t, err)

		_, err = h.svc.FinalizeCampaign(ctx, c.ID, creator)
		require.ErrorIs(t, err, ledger.ErrCannotFinalizeYet)
	})

	t.Run("allows partial funding after deadline", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{
			FundingGoal:     1000,
			FundingDeadline: h.clock.Now().Add(time.Hour),
		})
		h.fund("investor-1", 100)
		_, err := h.svc.Invest(ctx, c.ID, "investor-1", 100)
		require.NoError(t, err)
		h.clock.Advance(2 * time.Hour)

		got, err := h.svc.FinalizeCampaign(ctx, c.ID, creator)
		require.NoError(t, err)
		require.Equal(t, ledger.CampaignStatusFunded, got.Status)
	})

	t.Run("rejects zero raised even after deadline", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{
			FundingDeadline: h.clock.Now().Add(time.Hour),
		})
		h.clock.Advance(2 * time.Hour)

		_, err := h.svc.FinalizeCampaign(ctx, c.ID, creator)
		require.ErrorIs(t, err, ledger.ErrCannotFinalizeYet)
	})

	t.Run("is terminal", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{FundingGoal: 100})
		h.fund("investor-1", 100)
		_, err := h.svc.Invest(ctx, c.ID, "investor-1", 100)
		require.NoError(t, err)
		_, err = h.svc.FinalizeCampaign(ctx, c.ID, creator)
		require.NoError(t, err)

		_, err = h.svc.FinalizeCampaign(ctx, c.ID, creator)
		require.ErrorIs(t, err, ledger.ErrCampaignNotActive)
		require.ErrorIs(t, h.svc.CancelCampaign(ctx, c.ID, creator), ledger.ErrCampaignNotActive)
	})
}

func TestLedger_Campaign_Cancel(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("cancels without moving funds", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{})
		h.fund("investor-1", 100)
		_, err := h.svc.Invest(ctx, c.ID, "investor-1", 100)
		require.NoError(t, err)

		require.NoError(t, h.svc.CancelCampaign(ctx, c.ID, creator))
		got, err := h.svc.GetCampaign(ctx, c.ID)
		require.NoError(t, err)
		require.Equal(t, ledger.CampaignStatusCancelled, got.Status)
		require.Equal(t, uint64(100), h.rail.Balance(string(c.EscrowVault)))

		ev, ok := h.lastEvent().(ledger.CampaignCancelled)
		require.True(t, ok)
		require.Equal(t, "campaign_cancelled", ev.EventType())
		require.Equal(t, uint64(100), ev.TotalRaised)
		require.Equal(t, uint32(1), ev.InvestorsToRefund)
	})

	t.Run("requires the creator", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{})
		require.ErrorIs(t, h.svc.CancelCampaign(ctx, c.ID, "stranger"), ledger.ErrUnauthorized)
	})

	t.Run("is terminal", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{})
		require.NoError(t, h.svc.CancelCampaign(ctx, c.ID, creator))
		require.ErrorIs(t, h.svc.CancelCampaign(ctx, c.ID, creator), ledger.ErrCampaignNotActive)
		_, err := h.svc.FinalizeCampaign(ctx, c.ID, creator)
		require.ErrorIs(t, err, ledger.ErrCampaignNotActive)
	})
}

func TestLedger_Campaign_ClaimRefund(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("refunds the full accumulated amount once", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{})
		h.fund("investor-1", 500)
		_, err := h.svc.Invest(ctx, c.ID, "investor-1", 200)
		require.NoError(t, err)
		_, err = h.svc.Invest(ctx, c.ID, "investor-1", 100)
		require.NoError(t, err)
		require.NoError(t, h.svc.CancelCampaign(ctx, c.ID, creator))

		refund, err := h.svc.ClaimRefund(ctx, c.ID, "investor-1")
		require.NoError(t, err)
		require.Equal(t, uint64(300), refund)
		require.Equal(t, uint64(500), h.rail.Balance("investor-1"))
		require.Zero(t, h.rail.Balance(string(c.EscrowVault)))

		_, err = h.svc.ClaimRefund(ctx, c.ID, "investor-1")
		require.ErrorIs(t, err, ledger.ErrAlreadyRefunded)
		require.Equal(t, uint64(500), h.rail.Balance("investor-1"))
	})

	t.Run("requires a cancelled campaign", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{})
		h.fund("investor-1", 100)
		_, err := h.svc.Invest(ctx, c.ID, "investor-1", 100)
		require.NoError(t, err)

		_, err = h.svc.ClaimRefund(ctx, c.ID, "investor-1")
		require.ErrorIs(t, err, ledger.ErrCampaignNotCancelled)
	})

	t.Run("rejects non-investors", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{})
		require.NoError(t, h.svc.CancelCampaign(ctx, c.ID, creator))

		_, err := h.svc.ClaimRefund(ctx, c.ID, "stranger")
		require.ErrorIs(t, err, ledger.ErrNothingToRefund)
	})
}

func TestLedger_Campaign_ClaimTokens(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("mints purchased tokens once", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{FundingGoal: 100})
		// The campaign entity holds mint authority over the property token.
		h.mint.SetAuthority(propertyMint, c.ID)
		h.fund("investor-1", 100)
		_, err := h.svc.Invest(ctx, c.ID, "investor-1", 100)
		require.NoError(t, err)
		_, err = h.svc.FinalizeCampaign(ctx, c.ID, creator)
		require.NoError(t, err)

		tokens, err := h.svc.ClaimTokens(ctx, c.ID, "investor-1")
		require.NoError(t, err)
		require.Equal(t, uint64(10), tokens)

		balance, err := h.mint.Balance(ctx, propertyMint, "investor-1")
		require.NoError(t, err)
		require.Equal(t, uint64(10), balance)

		_, err = h.svc.ClaimTokens(ctx, c.ID, "investor-1")
		require.ErrorIs(t, err, ledger.ErrTokensAlreadyClaimed)
		balance, err = h.mint.Balance(ctx, propertyMint, "investor-1")
		require.NoError(t, err)
		require.Equal(t, uint64(10), balance)
	})

	t.Run("requires a funded campaign", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{})
		h.fund("investor-1", 100)
		_, err := h.svc.Invest(ctx, c.ID, "investor-1", 100)
		require.NoError(t, err)

		_, err = h.svc.ClaimTokens(ctx, c.ID, "investor-1")
		require.ErrorIs(t, err, ledger.ErrCampaignNotFunded)
	})

	t.Run("rejects non-investors", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{FundingGoal: 100})
		h.fund("investor-1", 100)
		_, err := h.svc.Invest(ctx, c.ID, "investor-1", 100)
		require.NoError(t, err)
		_, err = h.svc.FinalizeCampaign(ctx, c.ID, creator)
		require.NoError(t, err)

		_, err = h.svc.ClaimTokens(ctx, c.ID, "stranger")
		require.ErrorIs(t, err, ledger.ErrNoTokensToClaim)
	})

	t.Run("each investor claims floor of amount over price", func(t *testing.T) {
		t.Parallel()
		h := newPlatformHarness(t)
		c := h.createCampaign(t, ledger.CreateCampaignParams{
			FundingGoal:       1000,
			PlatformEquityBps: 1000,
			TokenPrice:        10,
			TotalTokens:       1000,
		})
		h.mint.SetAuthority(propertyMint, c.ID)
		h.fund("investor-1", 500)
		h.fund("investor-2", 605)
		_, err := h.svc.Invest(ctx, c.ID, "investor-1", 500)
		require.NoError(t, err)
		_, err = h.svc.Invest(ctx, c.ID, "investor-2", 605)
		require.NoError(t, err)
		_, err = h.svc.FinalizeCampaign(ctx, c.ID, creator)
		require.NoError(t, err)

		tokens, err := h.svc.ClaimTokens(ctx, c.ID, "investor-1")
		require.NoError(t, err)
		require.Equal(t, uint64(50), tokens)
		tokens, err = h.svc.ClaimTokens(ctx, c.ID, "investor-2")
		require.NoError(t, err)
		require.Equal(t, uint64(60), tokens)
	})
}
