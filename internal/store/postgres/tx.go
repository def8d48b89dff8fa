package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/propvest/ledger/internal/escrow"
	"github.com/propvest/ledger/internal/ledger"
)

const uniqueViolation = "23505"

// tx adapts one database transaction to ledger.Tx. Reads inside Update append
// FOR UPDATE so the rows an operation depends on stay locked until commit.
type tx struct {
	ctx       context.Context
	tx        pgx.Tx
	forUpdate bool
}

func (t *tx) lock() string {
	if t.forUpdate {
		return " FOR UPDATE"
	}
	return ""
}

func (t *tx) Platform() (*ledger.Platform, error) {
	var p ledger.Platform
	err := t.tx.QueryRow(t.ctx,
		`SELECT admin, wallet, total_campaigns FROM platform`+t.lock(),
	).Scan(&p.Admin, &p.Wallet, &p.TotalCampaigns)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to query platform: %w", err)
	}
	return &p, nil
}

func (t *tx) CreatePlatform(p *ledger.Platform) error {
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO platform (id, admin, wallet, total_campaigns)
		VALUES (TRUE, $1, $2, $3)`,
		p.Admin, p.Wallet, p.TotalCampaigns)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ledger.ErrPlatformInitialized
	}
	if err != nil {
		return fmt.Errorf("failed to create platform: %w", err)
	}
	return nil
}

func (t *tx) SavePlatform(p *ledger.Platform) error {
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO platform (id, admin, wallet, total_campaigns)
		VALUES (TRUE, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			admin = EXCLUDED.admin,
			wallet = EXCLUDED.wallet,
			total_campaigns = EXCLUDED.total_campaigns`,
		p.Admin, p.Wallet, p.TotalCampaigns)
	if err != nil {
		return fmt.Errorf("failed to save platform: %w", err)
	}
	return nil
}

func (t *tx) WhitelistEntry(wallet string) (*ledger.WhitelistEntry, error) {
	var e ledger.WhitelistEntry
	err := t.tx.QueryRow(t.ctx,
		`SELECT wallet, whitelisted_by, whitelisted_at, active
		 FROM whitelist WHERE wallet = $1`+t.lock(), wallet,
	).Scan(&e.Wallet, &e.WhitelistedBy, &e.WhitelistedAt, &e.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to query whitelist entry: %w", err)
	}
	return &e, nil
}

func (t *tx) SaveWhitelistEntry(e *ledger.WhitelistEntry) error {
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO whitelist (wallet, whitelisted_by, whitelisted_at, active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (wallet) DO UPDATE SET
			whitelisted_by = EXCLUDED.whitelisted_by,
			whitelisted_at = EXCLUDED.whitelisted_at,
			active = EXCLUDED.active`,
		e.Wallet, e.WhitelistedBy, e.WhitelistedAt, e.Active)
	if err != nil {
		return fmt.Errorf("failed to save whitelist entry: %w", err)
	}
	return nil
}

const campaignColumns = `id, creator, property_id, property_mint, escrow_vault,
	funding_goal, total_raised, platform_equity_bps, funding_deadline,
	token_price, total_tokens, tokens_sold, investor_count, status, created_at`

func scanCampaign(row pgx.Row) (*ledger.Campaign, error) {
	var c ledger.Campaign
	var fundingGoal, totalRaised, tokenPrice, totalTokens, tokensSold int64
	var bps, investors int32
	err := row.Scan(&c.ID, &c.Creator, &c.PropertyID, &c.PropertyMint, &c.EscrowVault,
		&fundingGoal, &totalRaised, &bps, &c.FundingDeadline,
		&tokenPrice, &totalTokens, &tokensSold, &investors, &c.Status, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.FundingGoal = uint64(fundingGoal)
	c.TotalRaised = uint64(totalRaised)
	c.PlatformEquityBps = uint16(bps)
	c.TokenPrice = uint64(tokenPrice)
	c.TotalTokens = uint64(totalTokens)
	c.TokensSold = uint64(tokensSold)
	c.InvestorCount = uint32(investors)
	return &c, nil
}

func (t *tx) Campaign(id escrow.Address) (*ledger.Campaign, error) {
	c, err := scanCampaign(t.tx.QueryRow(t.ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`+t.lock(), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to query campaign: %w", err)
	}
	return c, nil
}

func (t *tx) CreateCampaign(c *ledger.Campaign) error {
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO campaigns (`+campaignColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		c.ID, c.Creator, c.PropertyID, c.PropertyMint, c.EscrowVault,
		int64(c.FundingGoal), int64(c.TotalRaised), int32(c.PlatformEquityBps), c.FundingDeadline,
		int64(c.TokenPrice), int64(c.TotalTokens), int64(c.TokensSold), int32(c.InvestorCount),
		c.Status, c.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ledger.ErrCampaignExists
	}
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

func (t *tx) SaveCampaign(c *ledger.Campaign) error {
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO campaigns (`+campaignColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			total_raised = EXCLUDED.total_raised,
			tokens_sold = EXCLUDED.tokens_sold,
			investor_count = EXCLUDED.investor_count,
			status = EXCLUDED.status`,
		c.ID, c.Creator, c.PropertyID, c.PropertyMint, c.EscrowVault,
		int64(c.FundingGoal), int64(c.TotalRaised), int32(c.PlatformEquityBps), c.FundingDeadline,
		int64(c.TokenPrice), int64(c.TotalTokens), int64(c.TokensSold), int32(c.InvestorCount),
		c.Status, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save campaign: %w", err)
	}
	return nil
}

func (t *tx) ListCampaigns() ([]ledger.Campaign, error) {
	rows, err := t.tx.Query(t.ctx,
		`SELECT `+campaignColumns+` FROM campaigns ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaigns: %w", err)
	}
	defer rows.Close()

	var out []ledger.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read campaigns: %w", err)
	}
	return out, nil
}

const investorColumns = `campaign, investor, amount_invested, tokens_purchased,
	invested_at, refunded, tokens_claimed`

func scanInvestorRecord(row pgx.Row) (*ledger.InvestorRecord, error) {
	var r ledger.InvestorRecord
	var amount, tokens int64
	err := row.Scan(&r.Campaign, &r.Investor, &amount, &tokens,
		&r.InvestedAt, &r.Refunded, &r.TokensClaimed)
	if err != nil {
		return nil, err
	}
	r.AmountInvested = uint64(amount)
	r.TokensPurchased = uint64(tokens)
	return &r, nil
}

func (t *tx) InvestorRecord(campaign escrow.Address, investor string) (*ledger.InvestorRecord, error) {
	r, err := scanInvestorRecord(t.tx.QueryRow(t.ctx,
		`SELECT `+investorColumns+` FROM investor_records
		 WHERE campaign = $1 AND investor = $2`+t.lock(), campaign, investor))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to query investor record: %w", err)
	}
	return r, nil
}

func (t *tx) SaveInvestorRecord(r *ledger.InvestorRecord) error {
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO investor_records (`+investorColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (campaign, investor) DO UPDATE SET
			amount_invested = EXCLUDED.amount_invested,
			tokens_purchased = EXCLUDED.tokens_purchased,
			refunded = EXCLUDED.refunded,
			tokens_claimed = EXCLUDED.tokens_claimed`,
		r.Campaign, r.Investor, int64(r.AmountInvested), int64(r.TokensPurchased),
		r.InvestedAt, r.Refunded, r.TokensClaimed)
	if err != nil {
		return fmt.Errorf("failed to save investor record: %w", err)
	}
	return nil
}

func (t *tx) ListInvestorRecords(campaign escrow.Address) ([]ledger.InvestorRecord, error) {
	rows, err := t.tx.Query(t.ctx,
		`SELECT `+investorColumns+` FROM investor_records
		 WHERE campaign = $1 ORDER BY investor`, campaign)
	if err != nil {
		return nil, fmt.Errorf("failed to query investor records: %w", err)
	}
	defer rows.Close()

	var out []ledger.InvestorRecord
	for rows.Next() {
		r, err := scanInvestorRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investor record: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read investor records: %w", err)
	}
	return out, nil
}

func (t *tx) Pool(id escrow.Address) (*ledger.DividendPool, error) {
	var p ledger.DividendPool
	var distributed, deposited, epoch, freq int64
	var lastAt *time.Time
	err := t.tx.QueryRow(t.ctx, `
		SELECT id, authority, property_mint, vault, property_id,
			total_distributed, current_epoch, frequency_days,
			last_distribution_at, deposited_current_epoch
		FROM dividend_pools WHERE id = $1`+t.lock(), id,
	).Scan(&p.ID, &p.Authority, &p.PropertyMint, &p.Vault, &p.PropertyID,
		&distributed, &epoch, &freq, &lastAt, &deposited)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to query pool: %w", err)
	}
	p.TotalDistributed = uint64(distributed)
	p.CurrentEpoch = uint64(epoch)
	p.FrequencyDays = uint64(freq)
	p.DepositedCurrentEpoch = uint64(deposited)
	if lastAt != nil {
		p.LastDistributionAt = *lastAt
	}
	return &p, nil
}

func (t *tx) CreatePool(p *ledger.DividendPool) error {
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO dividend_pools (id, authority, property_mint, vault, property_id,
			total_distributed, current_epoch, frequency_days,
			last_distribution_at, deposited_current_epoch)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULL, $9)`,
		p.ID, p.Authority, p.PropertyMint, p.Vault, p.PropertyID,
		int64(p.TotalDistributed), int64(p.CurrentEpoch), int64(p.FrequencyDays),
		int64(p.DepositedCurrentEpoch))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ledger.ErrPoolExists
	}
	if err != nil {
		return fmt.Errorf("failed to create pool: %w", err)
	}
	return nil
}

func (t *tx) SavePool(p *ledger.DividendPool) error {
	var lastAt *time.Time
	if !p.LastDistributionAt.IsZero() {
		lastAt = &p.LastDistributionAt
	}
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO dividend_pools (id, authority, property_mint, vault, property_id,
			total_distributed, current_epoch, frequency_days,
			last_distribution_at, deposited_current_epoch)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			authority = EXCLUDED.authority,
			total_distributed = EXCLUDED.total_distributed,
			current_epoch = EXCLUDED.current_epoch,
			last_distribution_at = EXCLUDED.last_distribution_at,
			deposited_current_epoch = EXCLUDED.deposited_current_epoch`,
		p.ID, p.Authority, p.PropertyMint, p.Vault, p.PropertyID,
		int64(p.TotalDistributed), int64(p.CurrentEpoch), int64(p.FrequencyDays),
		lastAt, int64(p.DepositedCurrentEpoch))
	if err != nil {
		return fmt.Errorf("failed to save pool: %w", err)
	}
	return nil
}

func (t *tx) Distribution(pool escrow.Address, epoch uint64) (*ledger.Distribution, error) {
	var d ledger.Distribution
	var ep, total, supply, perToken int64
	err := t.tx.QueryRow(t.ctx, `
		SELECT id, pool, epoch, total_amount, total_token_supply, amount_per_token, distributed_at
		FROM distributions WHERE pool = $1 AND epoch = $2`+t.lock(), pool, int64(epoch),
	).Scan(&d.ID, &d.Pool, &ep, &total, &supply, &perToken, &d.DistributedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to query distribution: %w", err)
	}
	d.Epoch = uint64(ep)
	d.TotalAmount = uint64(total)
	d.TotalTokenSupply = uint64(supply)
	d.AmountPerToken = uint64(perToken)
	return &d, nil
}

func (t *tx) SaveDistribution(d *ledger.Distribution) error {
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO distributions (id, pool, epoch, total_amount, total_token_supply,
			amount_per_token, distributed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.Pool, int64(d.Epoch), int64(d.TotalAmount), int64(d.TotalTokenSupply),
		int64(d.AmountPerToken), d.DistributedAt)
	if err != nil {
		return fmt.Errorf("failed to save distribution: %w", err)
	}
	return nil
}

func (t *tx) Claim(distribution escrow.Address, user string) (*ledger.ClaimRecord, error) {
	var c ledger.ClaimRecord
	var epoch, amount int64
	err := t.tx.QueryRow(t.ctx, `
		SELECT distribution, user_wallet, epoch, amount_claimed, claimed_at, claimed
		FROM dividend_claims WHERE distribution = $1 AND user_wallet = $2`+t.lock(),
		distribution, user,
	).Scan(&c.Distribution, &c.User, &epoch, &amount, &c.ClaimedAt, &c.Claimed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ledger.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to query claim: %w", err)
	}
	c.Epoch = uint64(epoch)
	c.AmountClaimed = uint64(amount)
	return &c, nil
}

func (t *tx) CreateClaim(c *ledger.ClaimRecord) error {
	_, err := t.tx.Exec(t.ctx, `
		INSERT INTO dividend_claims (distribution, user_wallet, epoch, amount_claimed, claimed_at, claimed)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.Distribution, c.User, int64(c.Epoch), int64(c.AmountClaimed), c.ClaimedAt, c.Claimed)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ledger.ErrAlreadyClaimed
	}
	if err != nil {
		return fmt.Errorf("failed to create claim: %w", err)
	}
	return nil
}
