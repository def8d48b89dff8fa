// Package escrow implements derived-address custody: holding accounts whose
// addresses are computed deterministically from the identity of the logical
// entity that owns them, and whose outbound transfers require an Authority
// capability derived from that same identity. This mirrors program-derived
// accounts on chain, where the owning program signs for the vault and no
// individual user ever can.
package escrow

import (
	"crypto/sha256"
	"errors"

	"github.com/gagliardetto/solana-go"
)

// Seed prefixes for the account kinds the ledger derives. Two entities of
// different kinds can never collide even with identical owner seeds.
const (
	SeedCampaign      = "campaign"
	SeedEscrowVault   = "escrow"
	SeedDividendPool  = "dividend_pool"
	SeedDividendVault = "dividend_vault"
	SeedDistribution  = "distribution"
)

// Address is a derived 32-byte account address in base58 form.
type Address string

func (a Address) String() string { return string(a) }

// Derive computes a deterministic address from a seed tuple. Seeds are
// length-delimited before hashing so ("ab","c") and ("a","bc") differ.
func Derive(seeds ...string) Address {
	h := sha256.New()
	for _, s := range seeds {
		h.Write([]byte{byte(len(s) >> 8), byte(len(s))})
		h.Write([]byte(s))
	}
	key := solana.PublicKeyFromBytes(h.Sum(nil))
	return Address(key.String())
}

// Authority is the capability to act as a derived account: move funds out of
// its vault, or exercise mint authority held by it. It carries the derived
// address it stands for and is only meaningful when constructed from the
// owning entity's own seed tuple, inside that entity's code path. Rails and
// mints must verify the authority address against the account being debited.
type Authority struct {
	addr Address
}

// AuthorityFor derives the address for the seed tuple and wraps it as an
// Authority. The guard is structural, not cryptographic: only the code path
// executing as the owning entity knows to construct its authority, the same
// way only the owning program can sign for its derived accounts.
func AuthorityFor(seeds ...string) Authority {
	return Authority{addr: Derive(seeds...)}
}

// Address returns the derived account this authority stands for.
func (a Authority) Address() Address { return a.addr }

// Zero reports whether the authority is the zero value, which authorizes
// nothing.
func (a Authority) Zero() bool { return a.addr == "" }

// ErrBadAuthority is returned by collaborators when an authority does not
// match the account it tries to act as.
var ErrBadAuthority = errors.New("escrow: authority does not match account")

// Verify checks that the authority stands for the given account.
func (a Authority) Verify(account Address) error {
	if a.Zero() || a.addr != account {
		return ErrBadAuthority
	}
	return nil
}
