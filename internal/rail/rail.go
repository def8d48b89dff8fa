// Package rail is the in-process settlement backend: a custodial balance book
// implementing both ledger collaborators. Funds and tokens exist only inside
// the custodian; external settlement systems would replace this with their own
// implementations of the same interfaces.
package rail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/propvest/ledger/internal/escrow"
	"github.com/propvest/ledger/internal/ledger"
)

// ErrInsufficientBalance is returned when a transfer would overdraw the
// source account.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrBalanceOverflow is returned when a credit would wrap a balance or a
// token supply past the uint64 range.
var ErrBalanceOverflow = errors.New("balance overflow")

func checkedAdd(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrBalanceOverflow
	}
	return a + b, nil
}

// Custodian tracks native-currency balances and token supplies. It fails
// closed: a transfer from an unfunded account is rejected, and vault
// withdrawals require the vault's derived authority.
type Custodian struct {
	log *slog.Logger

	mu          sync.Mutex
	balances    map[string]uint64
	authorities map[string]escrow.Address
	supply      map[string]uint64
	holdings    map[string]map[string]uint64
}

func NewCustodian(log *slog.Logger) *Custodian {
	return &Custodian{
		log:         log,
		balances:    make(map[string]uint64),
		authorities: make(map[string]escrow.Address),
		supply:      make(map[string]uint64),
		holdings:    make(map[string]map[string]uint64),
	}
}

// Deposit credits an account from outside the custodian, e.g. an on-ramp.
func (c *Custodian) Deposit(account string, amount uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := checkedAdd(c.balances[account], amount)
	if err != nil {
		return err
	}
	c.balances[account] = next
	return nil
}

// AccountBalance returns an account's current native-currency balance.
func (c *Custodian) AccountBalance(account string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances[account]
}

// RegisterMintAuthority binds a token mint to the derived account allowed to
// mint it. Mints with no registered authority reject all minting.
func (c *Custodian) RegisterMintAuthority(mint string, addr escrow.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authorities[mint] = addr
}

func (c *Custodian) Transfer(ctx context.Context, from, to string, amount uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.move(from, to, amount); err != nil {
		return err
	}
	c.log.Debug("transfer", "from", from, "to", to, "amount", amount)
	return nil
}

func (c *Custodian) TransferFromVault(ctx context.Context, auth escrow.Authority, vault escrow.Address, to string, amount uint64) error {
	if err := auth.Verify(vault); err != nil {
		return fmt.Errorf("failed to verify vault authority: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.move(string(vault), to, amount); err != nil {
		return err
	}
	c.log.Debug("vault transfer", "vault", vault, "to", to, "amount", amount)
	return nil
}

func (c *Custodian) move(from, to string, amount uint64) error {
	if c.balances[from] < amount {
		return ErrInsufficientBalance
	}
	credited, err := checkedAdd(c.balances[to], amount)
	if err != nil {
		return err
	}
	c.balances[from] -= amount
	c.balances[to] = credited
	return nil
}

func (c *Custodian) Mint(ctx context.Context, auth escrow.Authority, mint, dest string, amount uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	addr, ok := c.authorities[mint]
	if !ok {
		return fmt.Errorf("no authority registered for mint %s", mint)
	}
	if err := auth.Verify(addr); err != nil {
		return fmt.Errorf("failed to verify mint authority: %w", err)
	}
	if c.holdings[mint] == nil {
		c.holdings[mint] = make(map[string]uint64)
	}
	supply, err := checkedAdd(c.supply[mint], amount)
	if err != nil {
		return err
	}
	held, err := checkedAdd(c.holdings[mint][dest], amount)
	if err != nil {
		return err
	}
	c.supply[mint] = supply
	c.holdings[mint][dest] = held
	c.log.Debug("mint", "mint", mint, "dest", dest, "amount", amount)
	return nil
}

func (c *Custodian) Supply(ctx context.Context, mint string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.supply[mint], nil
}

func (c *Custodian) Balance(ctx context.Context, mint, holder string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.holdings[mint][holder], nil
}

// Emit registers the campaign entity as the mint authority over its property
// token when a campaign is created. The campaign ID is the mint authority
// address, so later token claims verify against the campaign itself.
func (c *Custodian) Emit(ctx context.Context, ev ledger.Event) {
	if created, ok := ev.(ledger.CampaignCreated); ok {
		c.RegisterMintAuthority(created.PropertyMint, created.Campaign)
	}
}
