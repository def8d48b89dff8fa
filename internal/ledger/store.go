package ledger

import (
	"context"

	"github.com/propvest/ledger/internal/escrow"
)

// Store is the ledger's persistence boundary. Update runs fn inside one
// atomic, serializable transaction: every record fn reads is locked for the
// duration, and either all of fn's writes commit or none do. View runs fn
// read-only. Implementations live in internal/store.
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}

// Tx exposes the records an operation may touch. Getters return ErrNotFound
// (possibly wrapped) when no record exists.
//
// The Create methods insert a new record and fail when one already exists
// under the same key: CreatePlatform returns ErrPlatformInitialized,
// CreateCampaign returns ErrCampaignExists, CreatePool returns ErrPoolExists,
// and CreateClaim returns ErrAlreadyClaimed. That uniqueness must be enforced
// by the store itself, not by a prior read; row locks cannot cover a row that
// does not exist yet, so a read-then-save check races under concurrency.
type Tx interface {
	Platform() (*Platform, error)
	CreatePlatform(p *Platform) error
	SavePlatform(p *Platform) error

	WhitelistEntry(wallet string) (*WhitelistEntry, error)
	SaveWhitelistEntry(e *WhitelistEntry) error

	Campaign(id escrow.Address) (*Campaign, error)
	CreateCampaign(c *Campaign) error
	SaveCampaign(c *Campaign) error
	ListCampaigns() ([]Campaign, error)

	InvestorRecord(campaign escrow.Address, investor string) (*InvestorRecord, error)
	SaveInvestorRecord(r *InvestorRecord) error
	ListInvestorRecords(campaign escrow.Address) ([]InvestorRecord, error)

	Pool(id escrow.Address) (*DividendPool, error)
	CreatePool(p *DividendPool) error
	SavePool(p *DividendPool) error

	Distribution(pool escrow.Address, epoch uint64) (*Distribution, error)
	SaveDistribution(d *Distribution) error

	Claim(distribution escrow.Address, user string) (*ClaimRecord, error)
	CreateClaim(c *ClaimRecord) error
}
