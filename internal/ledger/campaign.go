package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/propvest/ledger/internal/escrow"
)

const maxPropertyIDLen = 64

// CreateCampaignParams are the creator-supplied campaign parameters.
type CreateCampaignParams struct {
	Creator           string
	PropertyID        string
	PropertyMint      string
	FundingGoal       uint64
	PlatformEquityBps uint16
	FundingDeadline   time.Time
	TokenPrice        uint64
	TotalTokens       uint64
}

// CreateCampaign opens a fund-raise in Active status. The creator must hold
// an active whitelist entry. The campaign ID and escrow vault are derived
// from (property_id, creator), so the same pair cannot raise twice.
//
// platform_tokens and tokens_available are computed for the event only; they
// are never persisted, and invest recomputes the identical formula.
func (s *Service) CreateCampaign(ctx context.Context, p CreateCampaignParams) (*Campaign, error) {
	start := s.clock.Now()
	var (
		c  *Campaign
		ev CampaignCreated
	)
	err := s.store.Update(ctx, func(tx Tx) error {
		entry, err := tx.WhitelistEntry(p.Creator)
		if errors.Is(err, ErrNotFound) || (err == nil && !entry.Active) {
			return ErrNotWhitelisted
		} else if err != nil {
			return fmt.Errorf("failed to read whitelist entry: %w", err)
		}

		if len(p.PropertyID) > maxPropertyIDLen {
			return ErrPropertyIDTooLong
		}
		if p.FundingGoal == 0 {
			return ErrInvalidFundingGoal
		}
		if p.PlatformEquityBps > 5000 {
			return ErrPlatformEquityTooHigh
		}
		if !p.FundingDeadline.After(s.clock.Now()) {
			return ErrInvalidDeadline
		}
		if p.TokenPrice == 0 {
			return ErrInvalidTokenPrice
		}
		if p.TotalTokens == 0 {
			return ErrInvalidTokenCount
		}

		id := CampaignID(p.PropertyID, p.Creator)
		if _, err := tx.Campaign(id); err == nil {
			return ErrCampaignExists
		} else if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("failed to read campaign: %w", err)
		}

		platform, err := tx.Platform()
		if errors.Is(err, ErrNotFound) {
			return ErrPlatformNotInitialized
		} else if err != nil {
			return fmt.Errorf("failed to read platform: %w", err)
		}
		platform.TotalCampaigns, err = checkedAdd(platform.TotalCampaigns, 1)
		if err != nil {
			return err
		}

		c = &Campaign{
			ID:                id,
			Creator:           p.Creator,
			PropertyID:        p.PropertyID,
			PropertyMint:      p.PropertyMint,
			EscrowVault:       escrow.Derive(escrow.SeedEscrowVault, string(id)),
			FundingGoal:       p.FundingGoal,
			PlatformEquityBps: p.PlatformEquityBps,
			FundingDeadline:   p.FundingDeadline,
			TokenPrice:        p.TokenPrice,
			TotalTokens:       p.TotalTokens,
			Status:            CampaignStatusActive,
			CreatedAt:         s.clock.Now(),
		}

		platformTokens, err := c.PlatformTokens()
		if err != nil {
			return err
		}
		ev = CampaignCreated{
			Campaign:          id,
			Creator:           p.Creator,
			PropertyID:        p.PropertyID,
			PropertyMint:      p.PropertyMint,
			FundingGoal:       p.FundingGoal,
			PlatformEquityBps: p.PlatformEquityBps,
			PlatformTokens:    platformTokens,
			TokensAvailable:   p.TotalTokens - platformTokens,
			Deadline:          p.FundingDeadline.Unix(),
		}

		if err := tx.SavePlatform(platform); err != nil {
			return fmt.Errorf("failed to save platform: %w", err)
		}
		return tx.CreateCampaign(c)
	})
	if err := s.finish(ctx, "create_campaign", start, err, ev); err != nil {
		return nil, err
	}
	return c, nil
}

// Invest moves amount from the investor into the campaign's escrow vault and
// accumulates the position. Integer division against the token price decides
// the tokens purchased; any remainder is accepted but buys nothing. The
// investor count grows only when a position first becomes nonzero.
func (s *Service) Invest(ctx context.Context, campaignID escrow.Address, investor string, amount uint64) (*InvestorRecord, error) {
	start := s.clock.Now()
	var (
		rec *InvestorRecord
		ev  InvestmentMade
	)
	err := s.store.Update(ctx, func(tx Tx) error {
		c, err := s.campaign(tx, campaignID)
		if err != nil {
			return err
		}
		if c.Status != CampaignStatusActive {
			return ErrCampaignNotActive
		}
		if !s.clock.Now().Before(c.FundingDeadline) {
			return ErrCampaignExpired
		}
		if amount == 0 {
			return ErrInvalidAmount
		}
		if amount < c.TokenPrice {
			return ErrAmountBelowMinimum
		}

		tokensToBuy, err := checkedDiv(amount, c.TokenPrice)
		if err != nil {
			return err
		}

		// Availability excludes the platform's reserved equity, recomputed
		// with the same truncation as campaign creation.
		platformTokens, err := c.PlatformTokens()
		if err != nil {
			return err
		}
		available, err := checkedSub(c.TotalTokens, platformTokens)
		if err != nil {
			return err
		}
		available, err = checkedSub(available, c.TokensSold)
		if err != nil {
			return err
		}
		if tokensToBuy > available {
			return ErrInsufficientTokens
		}

		rec, err = tx.InvestorRecord(campaignID, investor)
		if errors.Is(err, ErrNotFound) {
			rec = &InvestorRecord{Campaign: campaignID, Investor: investor}
		} else if err != nil {
			return fmt.Errorf("failed to read investor record: %w", err)
		}
		isNewInvestor := rec.AmountInvested == 0

		// All arithmetic happens before the rail moves anything, so an
		// overflow aborts with no currency in flight.
		newInvested, err := checkedAdd(rec.AmountInvested, amount)
		if err != nil {
			return err
		}
		newPurchased, err := checkedAdd(rec.TokensPurchased, tokensToBuy)
		if err != nil {
			return err
		}
		newRaised, err := checkedAdd(c.TotalRaised, amount)
		if err != nil {
			return err
		}
		newSold, err := checkedAdd(c.TokensSold, tokensToBuy)
		if err != nil {
			return err
		}
		newCount := c.InvestorCount
		if isNewInvestor {
			if newCount == math.MaxUint32 {
				return ErrOverflow
			}
			newCount++
		}

		if err := s.rail.Transfer(ctx, investor, string(c.EscrowVault), amount); err != nil {
			return fmt.Errorf("failed to transfer to escrow: %w", err)
		}

		rec.AmountInvested = newInvested
		rec.TokensPurchased = newPurchased
		rec.InvestedAt = s.clock.Now()
		c.TotalRaised = newRaised
		c.TokensSold = newSold
		c.InvestorCount = newCount

		if err := tx.SaveInvestorRecord(rec); err != nil {
			return fmt.Errorf("failed to save investor record: %w", err)
		}
		if err := tx.SaveCampaign(c); err != nil {
			return fmt.Errorf("failed to save campaign: %w", err)
		}

		ev = InvestmentMade{
			Campaign:        campaignID,
			Investor:        investor,
			Amount:          amount,
			TokensPurchased: tokensToBuy,
			TotalInvested:   rec.AmountInvested,
		}
		return nil
	})
	if err := s.finish(ctx, "invest", start, err, ev); err != nil {
		return nil, err
	}
	return rec, nil
}

// FinalizeCampaign settles a campaign: the platform's equity share goes to
// the platform wallet and the exact remainder to the creator, both paid out
// of escrow under the campaign's own authority. Allowed once the goal is met,
// or after the deadline with any funding at all.
func (s *Service) FinalizeCampaign(ctx context.Context, campaignID escrow.Address, caller string) (*Campaign, error) {
	start := s.clock.Now()
	var (
		c  *Campaign
		ev CampaignFinalized
	)
	err := s.store.Update(ctx, func(tx Tx) error {
		var err error
		c, err = s.campaign(tx, campaignID)
		if err != nil {
			return err
		}
		if c.Creator != caller {
			return ErrUnauthorized
		}
		if c.Status != CampaignStatusActive {
			return ErrCampaignNotActive
		}

		fullyFunded := c.TotalRaised >= c.FundingGoal
		deadlinePassed := !s.clock.Now().Before(c.FundingDeadline)
		if !fullyFunded && !(deadlinePassed && c.TotalRaised > 0) {
			return ErrCannotFinalizeYet
		}

		platform, err := tx.Platform()
		if errors.Is(err, ErrNotFound) {
			return ErrPlatformNotInitialized
		} else if err != nil {
			return fmt.Errorf("failed to read platform: %w", err)
		}

		platformShare, err := bpsShare(c.TotalRaised, c.PlatformEquityBps)
		if err != nil {
			return err
		}
		// Exact complement: platformShare + creatorShare == TotalRaised.
		creatorShare, err := checkedSub(c.TotalRaised, platformShare)
		if err != nil {
			return err
		}

		auth := c.EscrowAuthority()
		if platformShare > 0 {
			if err := s.rail.TransferFromVault(ctx, auth, c.EscrowVault, platform.Wallet, platformShare); err != nil {
				return fmt.Errorf("failed to pay platform share: %w", err)
			}
		}
		if creatorShare > 0 {
			if err := s.rail.TransferFromVault(ctx, auth, c.EscrowVault, c.Creator, creatorShare); err != nil {
				return fmt.Errorf("failed to pay creator share: %w", err)
			}
		}

		c.Status = CampaignStatusFunded
		if err := tx.SaveCampaign(c); err != nil {
			return fmt.Errorf("failed to save campaign: %w", err)
		}

		ev = CampaignFinalized{
			Campaign:      campaignID,
			TotalRaised:   c.TotalRaised,
			PlatformShare: platformShare,
			CreatorShare:  creatorShare,
			Investors:     c.InvestorCount,
		}
		return nil
	})
	if err := s.finish(ctx, "finalize_campaign", start, err, ev); err != nil {
		return nil, err
	}
	return c, nil
}

// CancelCampaign moves the campaign to its terminal Cancelled state. No funds
// move; refunds are investor-initiated afterward.
func (s *Service) CancelCampaign(ctx context.Context, campaignID escrow.Address, caller string) error {
	start := s.clock.Now()
	var ev CampaignCancelled
	err := s.store.Update(ctx, func(tx Tx) error {
		c, err := s.campaign(tx, campaignID)
		if err != nil {
			return err
		}
		if c.Creator != caller {
			return ErrUnauthorized
		}
		if c.Status != CampaignStatusActive {
			return ErrCampaignNotActive
		}
		c.Status = CampaignStatusCancelled
		if err := tx.SaveCampaign(c); err != nil {
			return fmt.Errorf("failed to save campaign: %w", err)
		}
		ev = CampaignCancelled{
			Campaign:          campaignID,
			TotalRaised:       c.TotalRaised,
			InvestorsToRefund: c.InvestorCount,
		}
		return nil
	})
	return s.finish(ctx, "cancel_campaign", start, err, ev)
}

// ClaimRefund pays an investor's full accumulated amount back out of escrow
// after cancellation. At most once per investor per campaign.
func (s *Service) ClaimRefund(ctx context.Context, campaignID escrow.Address, investor string) (uint64, error) {
	start := s.clock.Now()
	var (
		refund uint64
		ev     RefundClaimed
	)
	err := s.store.Update(ctx, func(tx Tx) error {
		c, err := s.campaign(tx, campaignID)
		if err != nil {
			return err
		}
		if c.Status != CampaignStatusCancelled {
			return ErrCampaignNotCancelled
		}
		rec, err := tx.InvestorRecord(campaignID, investor)
		if errors.Is(err, ErrNotFound) {
			return ErrNothingToRefund
		} else if err != nil {
			return fmt.Errorf("failed to read investor record: %w", err)
		}
		if rec.Refunded {
			return ErrAlreadyRefunded
		}
		if rec.AmountInvested == 0 {
			return ErrNothingToRefund
		}

		refund = rec.AmountInvested
		if err := s.rail.TransferFromVault(ctx, c.EscrowAuthority(), c.EscrowVault, investor, refund); err != nil {
			return fmt.Errorf("failed to pay refund: %w", err)
		}

		rec.Refunded = true
		if err := tx.SaveInvestorRecord(rec); err != nil {
			return fmt.Errorf("failed to save investor record: %w", err)
		}
		ev = RefundClaimed{Campaign: campaignID, Investor: investor, Amount: refund}
		return nil
	})
	if err := s.finish(ctx, "claim_refund", start, err, ev); err != nil {
		return 0, err
	}
	return refund, nil
}

// ClaimTokens mints the investor's purchased tokens into their holding under
// the campaign's mint authority. At most once per investor per campaign.
func (s *Service) ClaimTokens(ctx context.Context, campaignID escrow.Address, investor string) (uint64, error) {
	start := s.clock.Now()
	var (
		tokens uint64
		ev     TokensClaimed
	)
	err := s.store.Update(ctx, func(tx Tx) error {
		c, err := s.campaign(tx, campaignID)
		if err != nil {
			return err
		}
		if c.Status != CampaignStatusFunded {
			return ErrCampaignNotFunded
		}
		rec, err := tx.InvestorRecord(campaignID, investor)
		if errors.Is(err, ErrNotFound) {
			return ErrNoTokensToClaim
		} else if err != nil {
			return fmt.Errorf("failed to read investor record: %w", err)
		}
		if rec.TokensClaimed {
			return ErrTokensAlreadyClaimed
		}
		if rec.TokensPurchased == 0 {
			return ErrNoTokensToClaim
		}

		tokens = rec.TokensPurchased
		if err := s.mint.Mint(ctx, c.MintAuthority(), c.PropertyMint, investor, tokens); err != nil {
			return fmt.Errorf("failed to mint tokens: %w", err)
		}

		rec.TokensClaimed = true
		if err := tx.SaveInvestorRecord(rec); err != nil {
			return fmt.Errorf("failed to save investor record: %w", err)
		}
		ev = TokensClaimed{Campaign: campaignID, Investor: investor, Tokens: tokens}
		return nil
	})
	if err := s.finish(ctx, "claim_tokens", start, err, ev); err != nil {
		return 0, err
	}
	return tokens, nil
}

// GetCampaign returns one campaign.
func (s *Service) GetCampaign(ctx context.Context, campaignID escrow.Address) (*Campaign, error) {
	var c *Campaign
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		c, err = s.campaign(tx, campaignID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListCampaigns returns all campaigns.
func (s *Service) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	var cs []Campaign
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		cs, err = tx.ListCampaigns()
		return err
	})
	if err != nil {
		return nil, err
	}
	return cs, nil
}

// GetInvestorRecord returns one investor's position in one campaign.
func (s *Service) GetInvestorRecord(ctx context.Context, campaignID escrow.Address, investor string) (*InvestorRecord, error) {
	var rec *InvestorRecord
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		rec, err = tx.InvestorRecord(campaignID, investor)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListInvestorRecords returns all positions in one campaign.
func (s *Service) ListInvestorRecords(ctx context.Context, campaignID escrow.Address) ([]InvestorRecord, error) {
	var recs []InvestorRecord
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		recs, err = tx.ListInvestorRecords(campaignID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *Service) campaign(tx Tx, id escrow.Address) (*Campaign, error) {
	c, err := tx.Campaign(id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to read campaign: %w", err)
	}
	return c, nil
}
