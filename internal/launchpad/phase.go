package launchpad

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Phase is one time-boxed minting configuration. Phase IDs are assigned
// monotonically and never reused; removal tombstones the phase instead
// of compacting the collection.
type Phase struct {
	ID               uint64
	Name             string
	StartTime        uint64 // unix seconds
	EndTime          uint64 // unix seconds, 0 = open-ended
	Price            *big.Int
	MaxPerWallet     uint64
	Exists           bool
	AllowlistEnabled bool
	AllowlistRoot    common.Hash
}

// activeAt reports whether the phase window contains the given time.
func (p *Phase) activeAt(now uint64) bool {
	return p.Exists && p.StartTime <= now && (p.EndTime == 0 || now < p.EndTime)
}

func (p *Phase) clone() *Phase {
	cp := *p
	cp.Price = new(big.Int).Set(p.Price)
	return &cp
}

// AddPhase creates a new phase. Owner only. A non-zero end time must
// exceed the start time.
func (c *Collection) AddPhase(caller common.Address, name string, startTime, endTime uint64, price *big.Int, maxPerWallet uint64) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.owner {
		return 0, ErrNotOwner
	}
	if endTime != 0 && endTime <= startTime {
		return 0, ErrInvalidPhaseWindow
	}
	if price == nil {
		price = big.NewInt(0)
	}

	id := c.nextPhaseID
	c.nextPhaseID++
	c.phases[id] = &Phase{
		ID:           id,
		Name:         name,
		StartTime:    startTime,
		EndTime:      endTime,
		Price:        new(big.Int).Set(price),
		MaxPerWallet: maxPerWallet,
		Exists:       true,
	}
	return id, nil
}

// UpdatePhase rewrites an existing phase's schedule, price and limit.
func (c *Collection) UpdatePhase(caller common.Address, phaseID uint64, name string, startTime, endTime uint64, price *big.Int, maxPerWallet uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.owner {
		return ErrNotOwner
	}
	phase, ok := c.phases[phaseID]
	if !ok || !phase.Exists {
		return ErrPhaseNotFound
	}
	if endTime != 0 && endTime <= startTime {
		return ErrInvalidPhaseWindow
	}
	if price == nil {
		price = big.NewInt(0)
	}

	phase.Name = name
	phase.StartTime = startTime
	phase.EndTime = endTime
	phase.Price = new(big.Int).Set(price)
	phase.MaxPerWallet = maxPerWallet
	return nil
}

// RemovePhase tombstones a phase. Its ID is never reassigned and its
// per-wallet mint counters are kept.
func (c *Collection) RemovePhase(caller common.Address, phaseID uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.owner {
		return ErrNotOwner
	}
	phase, ok := c.phases[phaseID]
	if !ok || !phase.Exists {
		return ErrPhaseNotFound
	}
	phase.Exists = false
	return nil
}

// SetPhaseAllowlistEnabled toggles allowlist mode for a phase. Enabling
// does not require a root: with an unset root the proof path always
// fails, so only wallets flagged on-chain can mint.
func (c *Collection) SetPhaseAllowlistEnabled(caller common.Address, phaseID uint64, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.owner {
		return ErrNotOwner
	}
	phase, ok := c.phases[phaseID]
	if !ok || !phase.Exists {
		return ErrPhaseNotFound
	}
	phase.AllowlistEnabled = enabled
	return nil
}

// SetPhaseMerkleRoot sets (or clears, with the zero hash) the phase's
// allowlist commitment.
func (c *Collection) SetPhaseMerkleRoot(caller common.Address, phaseID uint64, root common.Hash) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.owner {
		return ErrNotOwner
	}
	phase, ok := c.phases[phaseID]
	if !ok || !phase.Exists {
		return ErrPhaseNotFound
	}
	phase.AllowlistRoot = root
	return nil
}

// SetPhaseAllowlist flags or unflags a batch of wallets for a phase.
func (c *Collection) SetPhaseAllowlist(caller common.Address, phaseID uint64, wallets []common.Address, allowed bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.owner {
		return ErrNotOwner
	}
	phase, ok := c.phases[phaseID]
	if !ok || !phase.Exists {
		return ErrPhaseNotFound
	}

	flags := c.allowlist[phase.ID]
	if flags == nil {
		flags = make(map[common.Address]bool)
		c.allowlist[phase.ID] = flags
	}
	for _, w := range wallets {
		if allowed {
			flags[w] = true
		} else {
			delete(flags, w)
		}
	}
	return nil
}

// ActivePhase returns a copy of the single active phase. When multiple
// phases satisfy the window predicate due to admin misconfiguration,
// the lowest phase ID wins. Returns ErrNoActivePhase when none match.
func (c *Collection) ActivePhase() (*Phase, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	phase := c.activePhaseLocked()
	if phase == nil {
		return nil, ErrNoActivePhase
	}
	return phase.clone(), nil
}

func (c *Collection) activePhaseLocked() *Phase {
	now := uint64(c.now().Unix())
	ids := make([]uint64, 0, len(c.phases))
	for id := range c.phases {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if c.phases[id].activeAt(now) {
			return c.phases[id]
		}
	}
	return nil
}

// Phases returns copies of all live (non-tombstoned) phases in ID order.
func (c *Collection) Phases() []*Phase {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]uint64, 0, len(c.phases))
	for id, p := range c.phases {
		if p.Exists {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*Phase, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.phases[id].clone())
	}
	return out
}

// PhaseByID returns a copy of a live phase.
func (c *Collection) PhaseByID(phaseID uint64) (*Phase, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	phase, ok := c.phases[phaseID]
	if !ok || !phase.Exists {
		return nil, ErrPhaseNotFound
	}
	return phase.clone(), nil
}

// IsAllowlisted reports the on-chain flag for (phase, wallet).
func (c *Collection) IsAllowlisted(phaseID uint64, wallet common.Address) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allowlist[phaseID][wallet]
}
