package ledger

import (
	"time"

	"github.com/propvest/ledger/internal/escrow"
)

// CampaignStatus is the campaign lifecycle state. Active is the only
// non-terminal state; Funded and Cancelled admit no further transition.
type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusFunded    CampaignStatus = "funded"
	CampaignStatusCancelled CampaignStatus = "cancelled"
)

// Platform is the singleton platform configuration: the admin who manages the
// whitelist, the wallet that receives equity shares, and the all-time
// campaign counter.
type Platform struct {
	Admin          string `json:"admin"`
	Wallet         string `json:"wallet"`
	TotalCampaigns uint64 `json:"total_campaigns"`
}

// WhitelistEntry gates campaign creation. Removal deactivates the entry
// rather than deleting it, so the audit trail keeps who whitelisted whom.
type WhitelistEntry struct {
	Wallet        string    `json:"wallet"`
	WhitelistedBy string    `json:"whitelisted_by"`
	WhitelistedAt time.Time `json:"whitelisted_at"`
	Active        bool      `json:"active"`
}

// Campaign is one fund-raise for one property. Its ID, escrow vault, and the
// mint authority over its property token are all derived from
// (property_id, creator), so the campaign entity alone controls them.
type Campaign struct {
	ID                escrow.Address `json:"id"`
	Creator           string         `json:"creator"`
	PropertyID        string         `json:"property_id"`
	PropertyMint      string         `json:"property_mint"`
	EscrowVault       escrow.Address `json:"escrow_vault"`
	FundingGoal       uint64         `json:"funding_goal"`
	TotalRaised       uint64         `json:"total_raised"`
	PlatformEquityBps uint16         `json:"platform_equity_bps"`
	FundingDeadline   time.Time      `json:"funding_deadline"`
	TokenPrice        uint64         `json:"token_price"`
	TotalTokens       uint64         `json:"total_tokens"`
	TokensSold        uint64         `json:"tokens_sold"`
	InvestorCount     uint32         `json:"investor_count"`
	Status            CampaignStatus `json:"status"`
	CreatedAt         time.Time      `json:"created_at"`
}

// PlatformTokens recomputes the token reservation for the platform's equity.
// The value is intentionally not persisted; every code path that needs it
// calls this method so the truncation can never diverge between creation and
// investment accounting.
func (c *Campaign) PlatformTokens() (uint64, error) {
	return bpsShare(c.TotalTokens, c.PlatformEquityBps)
}

// EscrowAuthority returns the capability to move funds out of the campaign's
// escrow vault. Only campaign code paths may call this.
func (c *Campaign) EscrowAuthority() escrow.Authority {
	return escrow.AuthorityFor(escrow.SeedEscrowVault, string(c.ID))
}

// MintAuthority returns the capability to mint the campaign's property token.
func (c *Campaign) MintAuthority() escrow.Authority {
	return escrow.AuthorityFor(escrow.SeedCampaign, c.PropertyID, c.Creator)
}

// InvestorRecord is one investor's cumulative position in one campaign.
// AmountInvested and TokensPurchased only ever grow; Refunded and
// TokensClaimed are each settable once.
type InvestorRecord struct {
	Campaign        escrow.Address `json:"campaign"`
	Investor        string         `json:"investor"`
	AmountInvested  uint64         `json:"amount_invested"`
	TokensPurchased uint64         `json:"tokens_purchased"`
	InvestedAt      time.Time      `json:"invested_at"`
	Refunded        bool           `json:"refunded"`
	TokensClaimed   bool           `json:"tokens_claimed"`
}

// DividendPool accumulates income deposits for one token supply and opens
// per-epoch distributions against it.
type DividendPool struct {
	ID                    escrow.Address `json:"id"`
	Authority             string         `json:"authority"`
	PropertyMint          string         `json:"property_mint"`
	Vault                 escrow.Address `json:"vault"`
	PropertyID            string         `json:"property_id"`
	TotalDistributed      uint64         `json:"total_distributed"`
	CurrentEpoch          uint64         `json:"current_epoch"`
	FrequencyDays         uint64         `json:"distribution_frequency_days"`
	LastDistributionAt    time.Time      `json:"last_distribution_at"`
	DepositedCurrentEpoch uint64         `json:"total_deposited_current_epoch"`
}

// VaultAuthority returns the capability to pay dividends out of the pool's
// vault. Only pool code paths may call this.
func (p *DividendPool) VaultAuthority() escrow.Authority {
	return escrow.AuthorityFor(escrow.SeedDividendVault, string(p.ID))
}

// Distribution is one epoch's immutable snapshot: the accumulated deposit,
// the token supply at open time, and the truncated per-token amount. The
// truncation residue stays in the vault, permanently undistributed.
type Distribution struct {
	ID               escrow.Address `json:"id"`
	Pool             escrow.Address `json:"pool"`
	Epoch            uint64         `json:"epoch"`
	TotalAmount      uint64         `json:"total_amount"`
	TotalTokenSupply uint64         `json:"total_token_supply"`
	AmountPerToken   uint64         `json:"amount_per_token"`
	DistributedAt    time.Time      `json:"distributed_at"`
}

// ClaimRecord marks one user's payout against one distribution. Its creation
// is the at-most-once guard: the store rejects a duplicate (distribution,
// user) key, so a retry can never pay twice.
type ClaimRecord struct {
	Distribution  escrow.Address `json:"distribution"`
	User          string         `json:"user"`
	Epoch         uint64         `json:"epoch"`
	AmountClaimed uint64         `json:"amount_claimed"`
	ClaimedAt     time.Time      `json:"claimed_at"`
	Claimed       bool           `json:"claimed"`
}

// CampaignID derives the deterministic campaign identity for a property and
// creator pair.
func CampaignID(propertyID, creator string) escrow.Address {
	return escrow.Derive(escrow.SeedCampaign, propertyID, creator)
}

// PoolID derives the deterministic dividend pool identity for a property
// token mint.
func PoolID(propertyMint string) escrow.Address {
	return escrow.Derive(escrow.SeedDividendPool, propertyMint)
}

// DistributionID derives the deterministic identity of one pool epoch.
func DistributionID(pool escrow.Address, epoch uint64) escrow.Address {
	return escrow.Derive(escrow.SeedDistribution, string(pool), epochSeed(epoch))
}

func epochSeed(epoch uint64) string {
	b := [8]byte{
		byte(epoch), byte(epoch >> 8), byte(epoch >> 16), byte(epoch >> 24),
		byte(epoch >> 32), byte(epoch >> 40), byte(epoch >> 48), byte(epoch >> 56),
	}
	return string(b[:])
}
