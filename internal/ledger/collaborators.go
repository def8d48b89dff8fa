package ledger

import (
	"context"

	"github.com/propvest/ledger/internal/escrow"
)

// PaymentRail moves native-currency value. Both methods are atomic and
// all-or-nothing, and fail closed on insufficient balance. TransferFromVault
// additionally verifies the authority against the vault being debited:
// escrow custody means only the owning entity's code path, holding the
// derived authority, can move funds out.
type PaymentRail interface {
	Transfer(ctx context.Context, from, to string, amount uint64) error
	TransferFromVault(ctx context.Context, auth escrow.Authority, vault escrow.Address, to string, amount uint64) error
}

// TokenMint is the token primitive the ledger drives but does not implement.
// Mint requires the authority holding mint capability over the token (the
// campaign entity, never a person) and never decreases supply. Supply and
// Balance are read at call time; dividend claims deliberately read the
// claimant's current balance, not a snapshot.
type TokenMint interface {
	Mint(ctx context.Context, auth escrow.Authority, mint, dest string, amount uint64) error
	Supply(ctx context.Context, mint string) (uint64, error)
	Balance(ctx context.Context, mint, holder string) (uint64, error)
}
