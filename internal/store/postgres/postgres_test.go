package postgres_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/propvest/ledger/internal/ledger"
	"github.com/propvest/ledger/internal/store/postgres"
)

func newTestStore(t *testing.T) *postgres.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ledger"),
		tcpostgres.WithUsername("ledger"),
		tcpostgres.WithPassword("ledger"),
		tcpostgres.BasicWaitStrategies(),
		tcpostgres.WithSQLDriver("pgx"),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		terminateCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = container.Terminate(terminateCtx)
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, postgres.MigrateUp(log, dsn))

	poolCfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store, err := postgres.NewStore(ctx, postgres.Config{Logger: log, Pool: pool})
	require.NoError(t, err)
	return store
}

func TestLedger_PostgresStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("platform round trip", func(t *testing.T) {
		err := s.Update(ctx, func(tx ledger.Tx) error {
			_, err := tx.Platform()
			require.ErrorIs(t, err, ledger.ErrNotFound)
			return tx.SavePlatform(&ledger.Platform{Admin: "a", Wallet: "w", TotalCampaigns: 3})
		})
		require.NoError(t, err)

		err = s.View(ctx, func(tx ledger.Tx) error {
			p, err := tx.Platform()
			require.NoError(t, err)
			require.Equal(t, "a", p.Admin)
			require.Equal(t, "w", p.Wallet)
			require.Equal(t, uint64(3), p.TotalCampaigns)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		id := ledger.CampaignID("rollback", "creator")
		err := s.Update(ctx, func(tx ledger.Tx) error {
			require.NoError(t, tx.SaveCampaign(&ledger.Campaign{
				ID: id, Creator: "creator", PropertyID: "rollback", PropertyMint: "m",
				EscrowVault: "v", FundingGoal: 1, FundingDeadline: now, TokenPrice: 1,
				TotalTokens: 1, Status: ledger.CampaignStatusActive, CreatedAt: now,
			}))
			return boom
		})
		require.ErrorIs(t, err, boom)

		err = s.View(ctx, func(tx ledger.Tx) error {
			_, err := tx.Campaign(id)
			require.ErrorIs(t, err, ledger.ErrNotFound)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("campaign and investor records round trip", func(t *testing.T) {
		c := &ledger.Campaign{
			ID:                ledger.CampaignID("prop-1", "creator"),
			Creator:           "creator",
			PropertyID:        "prop-1",
			PropertyMint:      "mint",
			EscrowVault:       "vault",
			FundingGoal:       1000,
			TotalRaised:       110,
			PlatformEquityBps: 1000,
			FundingDeadline:   now.Add(24 * time.Hour),
			TokenPrice:        10,
			TotalTokens:       100,
			TokensSold:        11,
			InvestorCount:     2,
			Status:            ledger.CampaignStatusActive,
			CreatedAt:         now,
		}
		err := s.Update(ctx, func(tx ledger.Tx) error {
			if err := tx.SaveCampaign(c); err != nil {
				return err
			}
			return tx.SaveInvestorRecord(&ledger.InvestorRecord{
				Campaign: c.ID, Investor: "inv-1", AmountInvested: 110,
				TokensPurchased: 11, InvestedAt: now,
			})
		})
		require.NoError(t, err)

		err = s.View(ctx, func(tx ledger.Tx) error {
			got, err := tx.Campaign(c.ID)
			require.NoError(t, err)
			require.Equal(t, c.Creator, got.Creator)
			require.Equal(t, c.TotalRaised, got.TotalRaised)
			require.Equal(t, c.PlatformEquityBps, got.PlatformEquityBps)
			require.True(t, c.FundingDeadline.Equal(got.FundingDeadline))

			recs, err := tx.ListInvestorRecords(c.ID)
			require.NoError(t, err)
			require.Len(t, recs, 1)
			require.Equal(t, uint64(110), recs[0].AmountInvested)

			all, err := tx.ListCampaigns()
			require.NoError(t, err)
			require.NotEmpty(t, all)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("pool with no distribution yet", func(t *testing.T) {
		p := &ledger.DividendPool{
			ID:            ledger.PoolID("mint-2"),
			Authority:     "auth",
			PropertyMint:  "mint-2",
			Vault:         "pool-vault",
			PropertyID:    "prop-2",
			FrequencyDays: 30,
		}
		err := s.Update(ctx, func(tx ledger.Tx) error { return tx.SavePool(p) })
		require.NoError(t, err)

		err = s.View(ctx, func(tx ledger.Tx) error {
			got, err := tx.Pool(p.ID)
			require.NoError(t, err)
			require.True(t, got.LastDistributionAt.IsZero())
			require.Zero(t, got.CurrentEpoch)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("creation inserts are once only", func(t *testing.T) {
		err := s.Update(ctx, func(tx ledger.Tx) error {
			return tx.CreatePlatform(&ledger.Platform{Admin: "b", Wallet: "x"})
		})
		require.ErrorIs(t, err, ledger.ErrPlatformInitialized)

		id := ledger.CampaignID("create-once", "creator")
		create := func(tx ledger.Tx) error {
			return tx.CreateCampaign(&ledger.Campaign{
				ID: id, Creator: "creator", PropertyID: "create-once", PropertyMint: "m-once",
				EscrowVault: "v-once", FundingGoal: 1, FundingDeadline: now, TokenPrice: 1,
				TotalTokens: 1, Status: ledger.CampaignStatusActive, CreatedAt: now,
			})
		}
		require.NoError(t, s.Update(ctx, func(tx ledger.Tx) error { return create(tx) }))
		err = s.Update(ctx, func(tx ledger.Tx) error { return create(tx) })
		require.ErrorIs(t, err, ledger.ErrCampaignExists)

		pool := &ledger.DividendPool{
			ID: ledger.PoolID("mint-once"), Authority: "auth", PropertyMint: "mint-once",
			Vault: "pv-once", PropertyID: "prop-once", FrequencyDays: 30,
		}
		require.NoError(t, s.Update(ctx, func(tx ledger.Tx) error { return tx.CreatePool(pool) }))
		err = s.Update(ctx, func(tx ledger.Tx) error { return tx.CreatePool(pool) })
		require.ErrorIs(t, err, ledger.ErrPoolExists)
	})

	t.Run("claim insert is at most once", func(t *testing.T) {
		poolID := ledger.PoolID("mint-3")
		distID := ledger.DistributionID(poolID, 0)
		err := s.Update(ctx, func(tx ledger.Tx) error {
			if err := tx.SavePool(&ledger.DividendPool{
				ID: poolID, Authority: "auth", PropertyMint: "mint-3",
				Vault: "v3", PropertyID: "prop-3", FrequencyDays: 30,
			}); err != nil {
				return err
			}
			return tx.SaveDistribution(&ledger.Distribution{
				ID: distID, Pool: poolID, Epoch: 0, TotalAmount: 1000,
				TotalTokenSupply: 7, AmountPerToken: 142, DistributedAt: now,
			})
		})
		require.NoError(t, err)

		claim := &ledger.ClaimRecord{
			Distribution: distID, User: "holder", Epoch: 0,
			AmountClaimed: 426, ClaimedAt: now, Claimed: true,
		}
		err = s.Update(ctx, func(tx ledger.Tx) error { return tx.CreateClaim(claim) })
		require.NoError(t, err)

		err = s.Update(ctx, func(tx ledger.Tx) error { return tx.CreateClaim(claim) })
		require.ErrorIs(t, err, ledger.ErrAlreadyClaimed)

		err = s.View(ctx, func(tx ledger.Tx) error {
			got, err := tx.Claim(distID, "holder")
			require.NoError(t, err)
			require.Equal(t, uint64(426), got.AmountClaimed)
			return nil
		})
		require.NoError(t, err)
	})
}
