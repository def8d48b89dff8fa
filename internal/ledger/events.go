package ledger

import (
	"context"
	"log/slog"

	"github.com/propvest/ledger/internal/escrow"
)

// Event is a structured record of one committed state mutation. Events are
// the system's audit log and the primary interface for off-core observers;
// no other persisted log exists. Emission happens after the transaction
// commits, so observers never see an event for aborted work.
type Event interface {
	EventType() string
}

// Emitter receives committed events. Emit must not fail the operation; sinks
// that can error handle it internally.
type Emitter interface {
	Emit(ctx context.Context, ev Event)
}

type PlatformInitialized struct {
	Admin  string `json:"admin"`
	Wallet string `json:"platform_wallet"`
}

func (PlatformInitialized) EventType() string { return "platform_initialized" }

type WalletWhitelisted struct {
	Wallet        string `json:"wallet"`
	WhitelistedBy string `json:"whitelisted_by"`
}

func (WalletWhitelisted) EventType() string { return "wallet_whitelisted" }

type WalletRemovedFromWhitelist struct {
	Wallet string `json:"wallet"`
}

func (WalletRemovedFromWhitelist) EventType() string { return "wallet_removed_from_whitelist" }

type PlatformWalletUpdated struct {
	OldWallet string `json:"old_wallet"`
	NewWallet string `json:"new_wallet"`
}

func (PlatformWalletUpdated) EventType() string { return "platform_wallet_updated" }

type CampaignCreated struct {
	Campaign          escrow.Address `json:"campaign"`
	Creator           string         `json:"creator"`
	PropertyID        string         `json:"property_id"`
	PropertyMint      string         `json:"property_mint"`
	FundingGoal       uint64         `json:"funding_goal"`
	PlatformEquityBps uint16         `json:"platform_equity_bps"`
	PlatformTokens    uint64         `json:"platform_tokens"`
	TokensAvailable   uint64         `json:"tokens_available"`
	Deadline          int64          `json:"deadline"`
}

func (CampaignCreated) EventType() string { return "campaign_created" }

type InvestmentMade struct {
	Campaign        escrow.Address `json:"campaign"`
	Investor        string         `json:"investor"`
	Amount          uint64         `json:"amount"`
	TokensPurchased uint64         `json:"tokens_purchased"`
	TotalInvested   uint64         `json:"total_invested"`
}

func (InvestmentMade) EventType() string { return "investment_made" }

type CampaignFinalized struct {
	Campaign      escrow.Address `json:"campaign"`
	TotalRaised   uint64         `json:"total_raised"`
	PlatformShare uint64         `json:"platform_share"`
	CreatorShare  uint64         `json:"creator_share"`
	Investors     uint32         `json:"investors"`
}

func (CampaignFinalized) EventType() string { return "campaign_finalized" }

type CampaignCancelled struct {
	Campaign          escrow.Address `json:"campaign"`
	TotalRaised       uint64         `json:"total_raised"`
	InvestorsToRefund uint32         `json:"investors_to_refund"`
}

func (CampaignCancelled) EventType() string { return "campaign_cancelled" }

type RefundClaimed struct {
	Campaign escrow.Address `json:"campaign"`
	Investor string         `json:"investor"`
	Amount   uint64         `json:"amount"`
}

func (RefundClaimed) EventType() string { return "refund_claimed" }

type TokensClaimed struct {
	Campaign escrow.Address `json:"campaign"`
	Investor string         `json:"investor"`
	Tokens   uint64         `json:"tokens"`
}

func (TokensClaimed) EventType() string { return "tokens_claimed" }

type PoolInitialized struct {
	Pool         escrow.Address `json:"pool"`
	PropertyMint string         `json:"property_mint"`
	Authority    string         `json:"authority"`
}

func (PoolInitialized) EventType() string { return "pool_initialized" }

type DividendDeposited struct {
	Pool      escrow.Address `json:"pool"`
	Amount    uint64         `json:"amount"`
	Epoch     uint64         `json:"epoch"`
	Depositor string         `json:"depositor"`
}

func (DividendDeposited) EventType() string { return "dividend_deposited" }

type DistributionStarted struct {
	Pool           escrow.Address `json:"pool"`
	Epoch          uint64         `json:"epoch"`
	TotalAmount    uint64         `json:"total_amount"`
	AmountPerToken uint64         `json:"amount_per_token"`
}

func (DistributionStarted) EventType() string { return "distribution_started" }

type DividendClaimed struct {
	Pool   escrow.Address `json:"pool"`
	User   string         `json:"user"`
	Epoch  uint64         `json:"epoch"`
	Amount uint64         `json:"amount"`
}

func (DividendClaimed) EventType() string { return "dividend_claimed" }

type AuthorityUpdated struct {
	Pool         escrow.Address `json:"pool"`
	OldAuthority string         `json:"old_authority"`
	NewAuthority string         `json:"new_authority"`
}

func (AuthorityUpdated) EventType() string { return "authority_updated" }

// LogEmitter writes events to the structured log.
type LogEmitter struct {
	Log *slog.Logger
}

func (e LogEmitter) Emit(ctx context.Context, ev Event) {
	e.Log.InfoContext(ctx, "ledger event", "type", ev.EventType(), "event", ev)
}

// MultiEmitter fans one event out to several sinks in order.
type MultiEmitter []Emitter

func (m MultiEmitter) Emit(ctx context.Context, ev Event) {
	for _, e := range m {
		e.Emit(ctx, ev)
	}
}
