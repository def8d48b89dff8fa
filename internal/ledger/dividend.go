package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/propvest/ledger/internal/escrow"
)

// InitializePoolParams are the parameters for opening a dividend pool.
type InitializePoolParams struct {
	Authority     string
	PropertyID    string
	PropertyMint  string
	FrequencyDays uint64
}

// InitializePool creates a dividend pool bound to one token supply, with its
// epoch counter at zero and a freshly derived vault.
func (s *Service) InitializePool(ctx context.Context, p InitializePoolParams) (*DividendPool, error) {
	start := s.clock.Now()
	var (
		pool *DividendPool
		ev   PoolInitialized
	)
	err := s.store.Update(ctx, func(tx Tx) error {
		if len(p.PropertyID) > maxPropertyIDLen {
			return ErrPropertyIDTooLong
		}
		if p.FrequencyDays == 0 {
			return ErrInvalidFrequency
		}

		id := PoolID(p.PropertyMint)
		if _, err := tx.Pool(id); err == nil {
			return ErrPoolExists
		} else if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("failed to read pool: %w", err)
		}

		pool = &DividendPool{
			ID:            id,
			Authority:     p.Authority,
			PropertyMint:  p.PropertyMint,
			Vault:         escrow.Derive(escrow.SeedDividendVault, string(id)),
			PropertyID:    p.PropertyID,
			FrequencyDays: p.FrequencyDays,
		}
		ev = PoolInitialized{
			Pool:         id,
			PropertyMint: p.PropertyMint,
			Authority:    p.Authority,
		}
		return tx.CreatePool(pool)
	})
	if err := s.finish(ctx, "initialize_pool", start, err, ev); err != nil {
		return nil, err
	}
	return pool, nil
}

// DepositDividend moves income from the authority into the pool's vault and
// accrues it onto the current epoch. Deposits accumulate across calls until
// the authority opens a distribution.
func (s *Service) DepositDividend(ctx context.Context, poolID escrow.Address, caller string, amount uint64) error {
	start := s.clock.Now()
	var ev DividendDeposited
	err := s.store.Update(ctx, func(tx Tx) error {
		if amount == 0 {
			return ErrInvalidAmount
		}
		pool, err := s.pool(tx, poolID)
		if err != nil {
			return err
		}
		if pool.Authority != caller {
			return ErrUnauthorized
		}

		newDeposited, err := checkedAdd(pool.DepositedCurrentEpoch, amount)
		if err != nil {
			return err
		}
		if err := s.rail.Transfer(ctx, caller, string(pool.Vault), amount); err != nil {
			return fmt.Errorf("failed to transfer to vault: %w", err)
		}

		pool.DepositedCurrentEpoch = newDeposited
		if err := tx.SavePool(pool); err != nil {
			return fmt.Errorf("failed to save pool: %w", err)
		}
		ev = DividendDeposited{
			Pool:      poolID,
			Amount:    amount,
			Epoch:     pool.CurrentEpoch,
			Depositor: caller,
		}
		return nil
	})
	return s.finish(ctx, "deposit_dividend", start, err, ev)
}

// StartDistribution closes the current epoch: it snapshots the accumulated
// deposit against the token supply read at open time and records the
// truncated per-token amount. The truncation residue stays in the vault,
// permanently undistributed for that epoch. The pool's epoch counter
// advances and the accumulator resets.
func (s *Service) StartDistribution(ctx context.Context, poolID escrow.Address, caller string) (*Distribution, error) {
	start := s.clock.Now()
	var (
		dist *Distribution
		ev   DistributionStarted
	)
	err := s.store.Update(ctx, func(tx Tx) error {
		pool, err := s.pool(tx, poolID)
		if err != nil {
			return err
		}
		if pool.Authority != caller {
			return ErrUnauthorized
		}
		if pool.DepositedCurrentEpoch == 0 {
			return ErrNoDividends
		}

		supply, err := s.mint.Supply(ctx, pool.PropertyMint)
		if err != nil {
			return fmt.Errorf("failed to read token supply: %w", err)
		}
		if supply == 0 {
			return ErrNoTokensInCirculation
		}

		perToken, err := checkedDiv(pool.DepositedCurrentEpoch, supply)
		if err != nil {
			return err
		}

		dist = &Distribution{
			ID:               DistributionID(poolID, pool.CurrentEpoch),
			Pool:             poolID,
			Epoch:            pool.CurrentEpoch,
			TotalAmount:      pool.DepositedCurrentEpoch,
			TotalTokenSupply: supply,
			AmountPerToken:   perToken,
			DistributedAt:    s.clock.Now(),
		}

		pool.TotalDistributed, err = checkedAdd(pool.TotalDistributed, pool.DepositedCurrentEpoch)
		if err != nil {
			return err
		}
		pool.CurrentEpoch, err = checkedAdd(pool.CurrentEpoch, 1)
		if err != nil {
			return err
		}
		pool.LastDistributionAt = s.clock.Now()
		pool.DepositedCurrentEpoch = 0

		if err := tx.SaveDistribution(dist); err != nil {
			return fmt.Errorf("failed to save distribution: %w", err)
		}
		if err := tx.SavePool(pool); err != nil {
			return fmt.Errorf("failed to save pool: %w", err)
		}
		ev = DistributionStarted{
			Pool:           poolID,
			Epoch:          dist.Epoch,
			TotalAmount:    dist.TotalAmount,
			AmountPerToken: dist.AmountPerToken,
		}
		return nil
	})
	if err := s.finish(ctx, "start_distribution", start, err, ev); err != nil {
		return nil, err
	}
	return dist, nil
}

// ClaimDividend pays one user's share of one epoch out of the pool vault.
// The payout is the claimant's current token balance times the epoch's
// per-token amount; the balance is deliberately read at claim time, not at
// distribution-open time. Claim record creation is the at-most-once guard.
func (s *Service) ClaimDividend(ctx context.Context, poolID escrow.Address, user string, epoch uint64) (uint64, error) {
	start := s.clock.Now()
	var (
		amount uint64
		ev     DividendClaimed
	)
	err := s.store.Update(ctx, func(tx Tx) error {
		pool, err := s.pool(tx, poolID)
		if err != nil {
			return err
		}
		dist, err := tx.Distribution(poolID, epoch)
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		} else if err != nil {
			return fmt.Errorf("failed to read distribution: %w", err)
		}

		balance, err := s.mint.Balance(ctx, pool.PropertyMint, user)
		if err != nil {
			return fmt.Errorf("failed to read token balance: %w", err)
		}
		if balance == 0 {
			return ErrNoTokensHeld
		}
		amount, err = checkedMul(balance, dist.AmountPerToken)
		if err != nil {
			return err
		}
		if amount == 0 {
			return ErrNothingToClaim
		}

		// Insert before paying: a duplicate (distribution, user) key aborts
		// here, before any currency moves.
		if err := tx.CreateClaim(&ClaimRecord{
			Distribution:  dist.ID,
			User:          user,
			Epoch:         epoch,
			AmountClaimed: amount,
			ClaimedAt:     s.clock.Now(),
			Claimed:       true,
		}); err != nil {
			return err
		}
		if err := s.rail.TransferFromVault(ctx, pool.VaultAuthority(), pool.Vault, user, amount); err != nil {
			return fmt.Errorf("failed to pay dividend: %w", err)
		}

		ev = DividendClaimed{Pool: poolID, User: user, Epoch: epoch, Amount: amount}
		return nil
	})
	if err := s.finish(ctx, "claim_dividend", start, err, ev); err != nil {
		return 0, err
	}
	return amount, nil
}

// GetClaimableAmount returns the amount a user could claim for an epoch right
// now, without creating or mutating anything. Zero if the user holds no
// tokens or has already claimed the epoch.
func (s *Service) GetClaimableAmount(ctx context.Context, poolID escrow.Address, user string, epoch uint64) (uint64, error) {
	var amount uint64
	err := s.store.View(ctx, func(tx Tx) error {
		pool, err := s.pool(tx, poolID)
		if err != nil {
			return err
		}
		dist, err := tx.Distribution(poolID, epoch)
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		} else if err != nil {
			return fmt.Errorf("failed to read distribution: %w", err)
		}
		if _, err := tx.Claim(dist.ID, user); err == nil {
			return nil
		} else if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("failed to read claim: %w", err)
		}
		balance, err := s.mint.Balance(ctx, pool.PropertyMint, user)
		if err != nil {
			return fmt.Errorf("failed to read token balance: %w", err)
		}
		if balance == 0 {
			return nil
		}
		amount, err = checkedMul(balance, dist.AmountPerToken)
		return err
	})
	if err != nil {
		return 0, err
	}
	return amount, nil
}

// UpdateAuthority rebinds the pool authority. Both old and new values are
// carried on the event for auditability.
func (s *Service) UpdateAuthority(ctx context.Context, poolID escrow.Address, caller, newAuthority string) error {
	start := s.clock.Now()
	var ev AuthorityUpdated
	err := s.store.Update(ctx, func(tx Tx) error {
		pool, err := s.pool(tx, poolID)
		if err != nil {
			return err
		}
		if pool.Authority != caller {
			return ErrUnauthorized
		}
		ev = AuthorityUpdated{
			Pool:         poolID,
			OldAuthority: pool.Authority,
			NewAuthority: newAuthority,
		}
		pool.Authority = newAuthority
		return tx.SavePool(pool)
	})
	return s.finish(ctx, "update_authority", start, err, ev)
}

// GetPool returns one dividend pool.
func (s *Service) GetPool(ctx context.Context, poolID escrow.Address) (*DividendPool, error) {
	var pool *DividendPool
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		pool, err = s.pool(tx, poolID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// GetDistribution returns one epoch's snapshot.
func (s *Service) GetDistribution(ctx context.Context, poolID escrow.Address, epoch uint64) (*Distribution, error) {
	var dist *Distribution
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		dist, err = tx.Distribution(poolID, epoch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dist, nil
}

func (s *Service) pool(tx Tx, id escrow.Address) (*DividendPool, error) {
	pool, err := tx.Pool(id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to read pool: %w", err)
	}
	return pool, nil
}
