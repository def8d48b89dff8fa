package ledger

import (
	"context"
	"errors"
	"fmt"
)

// InitializePlatform creates the singleton platform record. It can succeed
// once; campaign creation requires it.
func (s *Service) InitializePlatform(ctx context.Context, admin, platformWallet string) error {
	start := s.clock.Now()
	err := s.store.Update(ctx, func(tx Tx) error {
		// The store rejects a second insert, so two concurrent initializers
		// cannot both succeed.
		return tx.CreatePlatform(&Platform{
			Admin:  admin,
			Wallet: platformWallet,
		})
	})
	return s.finish(ctx, "initialize_platform", start, err, PlatformInitialized{
		Admin:  admin,
		Wallet: platformWallet,
	})
}

// UpdatePlatformWallet rebinds the wallet that receives equity shares.
func (s *Service) UpdatePlatformWallet(ctx context.Context, admin, newWallet string) error {
	start := s.clock.Now()
	var ev PlatformWalletUpdated
	err := s.store.Update(ctx, func(tx Tx) error {
		p, err := tx.Platform()
		if errors.Is(err, ErrNotFound) {
			return ErrPlatformNotInitialized
		} else if err != nil {
			return fmt.Errorf("failed to read platform: %w", err)
		}
		if p.Admin != admin {
			return ErrUnauthorized
		}
		ev = PlatformWalletUpdated{OldWallet: p.Wallet, NewWallet: newWallet}
		p.Wallet = newWallet
		return tx.SavePlatform(p)
	})
	return s.finish(ctx, "update_platform_wallet", start, err, ev)
}

// AddToWhitelist allows a wallet to create campaigns. Re-adding a removed
// wallet reactivates its entry.
func (s *Service) AddToWhitelist(ctx context.Context, admin, wallet string) error {
	start := s.clock.Now()
	err := s.store.Update(ctx, func(tx Tx) error {
		if err := s.requireAdmin(tx, admin); err != nil {
			return err
		}
		return tx.SaveWhitelistEntry(&WhitelistEntry{
			Wallet:        wallet,
			WhitelistedBy: admin,
			WhitelistedAt: s.clock.Now(),
			Active:        true,
		})
	})
	return s.finish(ctx, "add_to_whitelist", start, err, WalletWhitelisted{
		Wallet:        wallet,
		WhitelistedBy: admin,
	})
}

// RemoveFromWhitelist deactivates a wallet's entry. The entry itself is kept.
func (s *Service) RemoveFromWhitelist(ctx context.Context, admin, wallet string) error {
	start := s.clock.Now()
	err := s.store.Update(ctx, func(tx Tx) error {
		if err := s.requireAdmin(tx, admin); err != nil {
			return err
		}
		e, err := tx.WhitelistEntry(wallet)
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		} else if err != nil {
			return fmt.Errorf("failed to read whitelist entry: %w", err)
		}
		e.Active = false
		return tx.SaveWhitelistEntry(e)
	})
	return s.finish(ctx, "remove_from_whitelist", start, err, WalletRemovedFromWhitelist{
		Wallet: wallet,
	})
}

// IsWhitelisted reports whether a wallet holds an active whitelist entry.
// Consulted once at campaign creation, never rechecked afterward.
func (s *Service) IsWhitelisted(ctx context.Context, wallet string) (bool, error) {
	var active bool
	err := s.store.View(ctx, func(tx Tx) error {
		e, err := tx.WhitelistEntry(wallet)
		if errors.Is(err, ErrNotFound) {
			return nil
		} else if err != nil {
			return fmt.Errorf("failed to read whitelist entry: %w", err)
		}
		active = e.Active
		return nil
	})
	return active, err
}

// GetPlatform returns the platform record.
func (s *Service) GetPlatform(ctx context.Context) (*Platform, error) {
	var p *Platform
	err := s.store.View(ctx, func(tx Tx) error {
		var err error
		p, err = tx.Platform()
		if errors.Is(err, ErrNotFound) {
			return ErrPlatformNotInitialized
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) requireAdmin(tx Tx, caller string) error {
	p, err := tx.Platform()
	if errors.Is(err, ErrNotFound) {
		return ErrPlatformNotInitialized
	} else if err != nil {
		return fmt.Errorf("failed to read platform: %w", err)
	}
	if p.Admin != caller {
		return ErrUnauthorized
	}
	return nil
}
