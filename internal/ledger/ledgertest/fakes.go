// Package ledgertest provides in-memory fakes for the ledger's external
// collaborators: a payment rail that tracks native-currency balances and a
// token mint that tracks supply and holdings. Both fail closed the way the
// real primitives do, so tests can assert that failed operations move
// nothing.
package ledgertest

import (
	"context"
	"errors"
	"sync"

	"github.com/propvest/ledger/internal/escrow"
)

// ErrInsufficientBalance is returned when a transfer would overdraw an
// account.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Rail is a fake payment rail with per-account balances. Accounts not funded
// via Deposit hold zero.
type Rail struct {
	mu       sync.Mutex
	balances map[string]uint64
}

func NewRail() *Rail {
	return &Rail{balances: make(map[string]uint64)}
}

// Deposit credits an account out of thin air, for test setup.
func (r *Rail) Deposit(account string, amount uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[account] += amount
}

// Balance returns an account's current balance.
func (r *Rail) Balance(account string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[account]
}

func (r *Rail) Transfer(ctx context.Context, from, to string, amount uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.move(from, to, amount)
}

func (r *Rail) TransferFromVault(ctx context.Context, auth escrow.Authority, vault escrow.Address, to string, amount uint64) error {
	if err := auth.Verify(vault); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.move(string(vault), to, amount)
}

func (r *Rail) move(from, to string, amount uint64) error {
	if r.balances[from] < amount {
		return ErrInsufficientBalance
	}
	r.balances[from] -= amount
	r.balances[to] += amount
	return nil
}

// Mint is a fake token primitive with per-mint supply and holdings. If an
// authority is registered for a mint, Mint calls must present it; otherwise
// any authority is accepted.
type Mint struct {
	mu          sync.Mutex
	authorities map[string]escrow.Address
	supply      map[string]uint64
	balances    map[string]map[string]uint64
}

func NewMint() *Mint {
	return &Mint{
		authorities: make(map[string]escrow.Address),
		supply:      make(map[string]uint64),
		balances:    make(map[string]map[string]uint64),
	}
}

// SetAuthority binds the mint to the derived account allowed to mint it.
func (m *Mint) SetAuthority(mint string, addr escrow.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authorities[mint] = addr
}

// SetBalance fixes a holder's balance directly, adjusting supply, for test
// setup of secondary transfers.
func (m *Mint) SetBalance(mint, holder string, amount uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[mint] == nil {
		m.balances[mint] = make(map[string]uint64)
	}
	m.supply[mint] += amount - m.balances[mint][holder]
	m.balances[mint][holder] = amount
}

func (m *Mint) Mint(ctx context.Context, auth escrow.Authority, mint, dest string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if addr, ok := m.authorities[mint]; ok {
		if err := auth.Verify(addr); err != nil {
			return err
		}
	}
	if m.balances[mint] == nil {
		m.balances[mint] = make(map[string]uint64)
	}
	m.supply[mint] += amount
	m.balances[mint][dest] += amount
	return nil
}

func (m *Mint) Supply(ctx context.Context, mint string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.supply[mint], nil
}

func (m *Mint) Balance(ctx context.Context, mint, holder string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[mint][holder], nil
}
