// Package memory is the in-memory ledger.Store, used by unit tests and the
// daemon's dev mode. Update clones the full state, applies the transaction to
// the clone, and swaps it in on success, so a failed transaction leaves
// nothing behind. This is the same atomic-or-nothing contract the postgres
// store gets from database transactions.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/propvest/ledger/internal/escrow"
	"github.com/propvest/ledger/internal/ledger"
)

type state struct {
	platform      *ledger.Platform
	whitelist     map[string]ledger.WhitelistEntry
	campaigns     map[escrow.Address]ledger.Campaign
	investors     map[string]ledger.InvestorRecord
	pools         map[escrow.Address]ledger.DividendPool
	distributions map[string]ledger.Distribution
	claims        map[string]ledger.ClaimRecord
}

func newState() state {
	return state{
		whitelist:     make(map[string]ledger.WhitelistEntry),
		campaigns:     make(map[escrow.Address]ledger.Campaign),
		investors:     make(map[string]ledger.InvestorRecord),
		pools:         make(map[escrow.Address]ledger.DividendPool),
		distributions: make(map[string]ledger.Distribution),
		claims:        make(map[string]ledger.ClaimRecord),
	}
}

func (s state) clone() state {
	c := newState()
	if s.platform != nil {
		p := *s.platform
		c.platform = &p
	}
	for k, v := range s.whitelist {
		c.whitelist[k] = v
	}
	for k, v := range s.campaigns {
		c.campaigns[k] = v
	}
	for k, v := range s.investors {
		c.investors[k] = v
	}
	for k, v := range s.pools {
		c.pools[k] = v
	}
	for k, v := range s.distributions {
		c.distributions[k] = v
	}
	for k, v := range s.claims {
		c.claims[k] = v
	}
	return c
}

type Store struct {
	mu    sync.RWMutex
	state state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

func (s *Store) Update(ctx context.Context, fn func(tx ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.clone()
	if err := fn(&tx{state: &next}); err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *Store) View(ctx context.Context, fn func(tx ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := s.state.clone()
	return fn(&tx{state: &snapshot})
}

type tx struct {
	state *state
}

func investorKey(campaign escrow.Address, investor string) string {
	return string(campaign) + "|" + investor
}

func distributionKey(pool escrow.Address, epoch uint64) string {
	return string(pool) + "|" + string(ledger.DistributionID(pool, epoch))
}

func claimKey(distribution escrow.Address, user string) string {
	return string(distribution) + "|" + user
}

func (t *tx) Platform() (*ledger.Platform, error) {
	if t.state.platform == nil {
		return nil, ledger.ErrNotFound
	}
	p := *t.state.platform
	return &p, nil
}

func (t *tx) CreatePlatform(p *ledger.Platform) error {
	if t.state.platform != nil {
		return ledger.ErrPlatformInitialized
	}
	return t.SavePlatform(p)
}

func (t *tx) SavePlatform(p *ledger.Platform) error {
	cp := *p
	t.state.platform = &cp
	return nil
}

func (t *tx) WhitelistEntry(wallet string) (*ledger.WhitelistEntry, error) {
	e, ok := t.state.whitelist[wallet]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &e, nil
}

func (t *tx) SaveWhitelistEntry(e *ledger.WhitelistEntry) error {
	t.state.whitelist[e.Wallet] = *e
	return nil
}

func (t *tx) Campaign(id escrow.Address) (*ledger.Campaign, error) {
	c, ok := t.state.campaigns[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &c, nil
}

func (t *tx) CreateCampaign(c *ledger.Campaign) error {
	if _, ok := t.state.campaigns[c.ID]; ok {
		return ledger.ErrCampaignExists
	}
	return t.SaveCampaign(c)
}

func (t *tx) SaveCampaign(c *ledger.Campaign) error {
	t.state.campaigns[c.ID] = *c
	return nil
}

func (t *tx) ListCampaigns() ([]ledger.Campaign, error) {
	out := make([]ledger.Campaign, 0, len(t.state.campaigns))
	for _, c := range t.state.campaigns {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *tx) InvestorRecord(campaign escrow.Address, investor string) (*ledger.InvestorRecord, error) {
	r, ok := t.state.investors[investorKey(campaign, investor)]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &r, nil
}

func (t *tx) SaveInvestorRecord(r *ledger.InvestorRecord) error {
	t.state.investors[investorKey(r.Campaign, r.Investor)] = *r
	return nil
}

func (t *tx) ListInvestorRecords(campaign escrow.Address) ([]ledger.InvestorRecord, error) {
	var out []ledger.InvestorRecord
	for _, r := range t.state.investors {
		if r.Campaign == campaign {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Investor < out[j].Investor })
	return out, nil
}

func (t *tx) Pool(id escrow.Address) (*ledger.DividendPool, error) {
	p, ok := t.state.pools[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &p, nil
}

func (t *tx) CreatePool(p *ledger.DividendPool) error {
	if _, ok := t.state.pools[p.ID]; ok {
		return ledger.ErrPoolExists
	}
	return t.SavePool(p)
}

func (t *tx) SavePool(p *ledger.DividendPool) error {
	t.state.pools[p.ID] = *p
	return nil
}

func (t *tx) Distribution(pool escrow.Address, epoch uint64) (*ledger.Distribution, error) {
	d, ok := t.state.distributions[distributionKey(pool, epoch)]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &d, nil
}

func (t *tx) SaveDistribution(d *ledger.Distribution) error {
	t.state.distributions[distributionKey(d.Pool, d.Epoch)] = *d
	return nil
}

func (t *tx) Claim(distribution escrow.Address, user string) (*ledger.ClaimRecord, error) {
	c, ok := t.state.claims[claimKey(distribution, user)]
	if !ok {
		return nil, ledger.ErrNotFound
	}
	return &c, nil
}

func (t *tx) CreateClaim(c *ledger.ClaimRecord) error {
	key := claimKey(c.Distribution, c.User)
	if _, ok := t.state.claims[key]; ok {
		return ledger.ErrAlreadyClaimed
	}
	t.state.claims[key] = *c
	return nil
}
