package launchpad

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"launchpad-backend/internal/merkle"
)

// Collection models the in-memory state machine of a launchpad NFT
// contract. All mutations go through the mutex, mirroring the serial
// execution of contract calls, and validation always happens before
// any state change so a failed call leaves the state untouched.
type Collection struct {
	mu sync.Mutex

	name   string
	symbol string
	owner  common.Address

	totalSupply uint64
	maxSupply   uint64

	paused          bool
	transfersLocked bool
	revealed        bool
	metadataFrozen  bool

	baseURI        string
	notRevealedURI string

	launchpadFee *big.Int // per-token platform fee, in wei
	feeRecipient common.Address

	withdrawable *big.Int // owner proceeds accrued from mints
	accruedFees  *big.Int // platform fees accrued from mints

	nextPhaseID uint64
	phases      map[uint64]*Phase
	allowlist   map[uint64]map[common.Address]bool   // phaseID -> wallet -> flagged
	mintedIn    map[uint64]map[common.Address]uint64 // phaseID -> wallet -> count

	owners    map[uint64]common.Address // tokenID -> owner
	approvals map[uint64]common.Address // tokenID -> approved spender
	balances  map[common.Address]uint64

	now func() time.Time
}

// Config carries the constructor arguments for a new collection.
type Config struct {
	Name           string
	Symbol         string
	Owner          common.Address
	MaxSupply      uint64
	BaseURI        string
	NotRevealedURI string
	LaunchpadFee   *big.Int
	FeeRecipient   common.Address
}

// NewCollection deploys a fresh collection. The owner address must be
// non-zero; a nil launchpad fee means zero.
func NewCollection(cfg Config) (*Collection, error) {
	if cfg.Owner == (common.Address{}) {
		return nil, ErrZeroAddress
	}
	fee := cfg.LaunchpadFee
	if fee == nil {
		fee = big.NewInt(0)
	}
	return &Collection{
		name:           cfg.Name,
		symbol:         cfg.Symbol,
		owner:          cfg.Owner,
		maxSupply:      cfg.MaxSupply,
		baseURI:        cfg.BaseURI,
		notRevealedURI: cfg.NotRevealedURI,
		launchpadFee:   new(big.Int).Set(fee),
		feeRecipient:   cfg.FeeRecipient,
		withdrawable:   big.NewInt(0),
		accruedFees:    big.NewInt(0),
		nextPhaseID:    1,
		phases:         make(map[uint64]*Phase),
		allowlist:      make(map[uint64]map[common.Address]bool),
		mintedIn:       make(map[uint64]map[common.Address]uint64),
		owners:         make(map[uint64]common.Address),
		approvals:      make(map[uint64]common.Address),
		balances:       make(map[common.Address]uint64),
		now:            time.Now,
	}, nil
}

// SetClock overrides the time source. Test hook.
func (c *Collection) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// PublicMint mints quantity tokens to wallet against the active phase.
// Checks run in a fixed order: pause, active phase, quantity, supply,
// per-wallet limit, allowlist, payment. Token IDs are sequential
// starting at 1.
func (c *Collection) PublicMint(wallet common.Address, quantity uint64, value *big.Int, proof []common.Hash) ([]uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.paused {
		return nil, ErrPaused
	}
	phase := c.activePhaseLocked()
	if phase == nil {
		return nil, ErrNoActivePhase
	}
	if quantity == 0 {
		return nil, ErrZeroQuantity
	}
	if c.totalSupply+quantity > c.maxSupply {
		return nil, ErrExceedsMaxSupply
	}
	minted := c.mintedIn[phase.ID][wallet]
	if phase.MaxPerWallet > 0 && minted+quantity > phase.MaxPerWallet {
		return nil, ErrExceedsWalletLimit
	}
	if phase.AllowlistEnabled {
		flagged := c.allowlist[phase.ID][wallet]
		proved := phase.AllowlistRoot != (common.Hash{}) && merkle.VerifyWallet(wallet, proof, phase.AllowlistRoot)
		if !flagged && !proved {
			return nil, ErrNotAllowlisted
		}
	}

	unit := new(big.Int).Add(phase.Price, c.launchpadFee)
	expected := new(big.Int).Mul(unit, new(big.Int).SetUint64(quantity))
	if value == nil || value.Cmp(expected) != 0 {
		return nil, ErrWrongPayment
	}

	// All checks passed; apply effects.
	ids := make([]uint64, 0, quantity)
	for i := uint64(0); i < quantity; i++ {
		tokenID := c.totalSupply + 1
		c.totalSupply++
		c.owners[tokenID] = wallet
		c.balances[wallet]++
		ids = append(ids, tokenID)
	}
	if c.mintedIn[phase.ID] == nil {
		c.mintedIn[phase.ID] = make(map[common.Address]uint64)
	}
	c.mintedIn[phase.ID][wallet] = minted + quantity

	qty := new(big.Int).SetUint64(quantity)
	c.accruedFees.Add(c.accruedFees, new(big.Int).Mul(c.launchpadFee, qty))
	c.withdrawable.Add(c.withdrawable, new(big.Int).Mul(phase.Price, qty))
	return ids, nil
}

// MintedInPhase reports how many tokens wallet has minted in a phase.
func (c *Collection) MintedInPhase(phaseID uint64, wallet common.Address) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mintedIn[phaseID][wallet]
}

// SetMaxSupply adjusts the supply cap. It may only go down, and never
// below what has already been minted.
func (c *Collection) SetMaxSupply(caller common.Address, newMax uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.owner {
		return ErrNotOwner
	}
	if newMax > c.maxSupply || newMax < c.totalSupply {
		return ErrInvalidMaxSupply
	}
	c.maxSupply = newMax
	return nil
}

// Pause halts minting.
func (c *Collection) Pause(caller common.Address) error { return c.setPaused(caller, true) }

// Unpause resumes minting.
func (c *Collection) Unpause(caller common.Address) error { return c.setPaused(caller, false) }

func (c *Collection) setPaused(caller common.Address, paused bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if caller != c.owner {
		return ErrNotOwner
	}
	c.paused = paused
	return nil
}

// SetTransfersLocked toggles the secondary-transfer lock. Minting is
// unaffected.
func (c *Collection) SetTransfersLocked(caller common.Address, locked bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if caller != c.owner {
		return ErrNotOwner
	}
	c.transfersLocked = locked
	return nil
}

// SetBaseURI updates the revealed metadata base. Rejected after freeze.
func (c *Collection) SetBaseURI(caller common.Address, uri string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if caller != c.owner {
		return ErrNotOwner
	}
	if c.metadataFrozen {
		return ErrMetadataFrozen
	}
	c.baseURI = uri
	return nil
}

// SetNotRevealedURI updates the placeholder metadata URI.
func (c *Collection) SetNotRevealedURI(caller common.Address, uri string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if caller != c.owner {
		return ErrNotOwner
	}
	if c.metadataFrozen {
		return ErrMetadataFrozen
	}
	c.notRevealedURI = uri
	return nil
}

// SetRevealed flips the reveal switch.
func (c *Collection) SetRevealed(caller common.Address, revealed bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if caller != c.owner {
		return ErrNotOwner
	}
	if c.metadataFrozen {
		return ErrMetadataFrozen
	}
	c.revealed = revealed
	return nil
}

// FreezeMetadata permanently locks metadata. One way; a second call
// fails without touching state.
func (c *Collection) FreezeMetadata(caller common.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if caller != c.owner {
		return ErrNotOwner
	}
	if c.metadataFrozen {
		return ErrAlreadyFrozen
	}
	c.metadataFrozen = true
	return nil
}

// Withdraw pays out the owner's accrued mint proceeds and resets the
// balance. Returns the amount withdrawn.
func (c *Collection) Withdraw(caller common.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if caller != c.owner {
		return nil, ErrNotOwner
	}
	amount := new(big.Int).Set(c.withdrawable)
	c.withdrawable.SetInt64(0)
	return amount, nil
}

// WithdrawFees pays out accrued platform fees. Callable by the fee
// recipient or the owner.
func (c *Collection) WithdrawFees(caller common.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if caller != c.feeRecipient && caller != c.owner {
		return nil, ErrNotAuthorized
	}
	amount := new(big.Int).Set(c.accruedFees)
	c.accruedFees.SetInt64(0)
	return amount, nil
}

// TransferOwnership hands the collection to a new owner.
func (c *Collection) TransferOwnership(caller, newOwner common.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if caller != c.owner {
		return ErrNotOwner
	}
	if newOwner == (common.Address{}) {
		return ErrZeroAddress
	}
	c.owner = newOwner
	return nil
}

// TransferFrom moves a token between wallets. Blocked while the
// transfer lock is on.
func (c *Collection) TransferFrom(caller, from, to common.Address, tokenID uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transfersLocked {
		return ErrTransfersLocked
	}
	holder, ok := c.owners[tokenID]
	if !ok {
		return ErrUnknownToken
	}
	if holder != from {
		return ErrNotAuthorized
	}
	if caller != from && c.approvals[tokenID] != caller {
		return ErrNotAuthorized
	}
	if to == (common.Address{}) {
		return ErrZeroAddress
	}

	c.owners[tokenID] = to
	delete(c.approvals, tokenID)
	c.balances[from]--
	c.balances[to]++
	return nil
}

// Approve lets a spender transfer a specific token.
func (c *Collection) Approve(caller, spender common.Address, tokenID uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transfersLocked {
		return ErrTransfersLocked
	}
	holder, ok := c.owners[tokenID]
	if !ok {
		return ErrUnknownToken
	}
	if holder != caller {
		return ErrNotAuthorized
	}
	c.approvals[tokenID] = spender
	return nil
}

// OwnerOf returns the holder of a token.
func (c *Collection) OwnerOf(tokenID uint64) (common.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	holder, ok := c.owners[tokenID]
	if !ok {
		return common.Address{}, ErrUnknownToken
	}
	return holder, nil
}

// BalanceOf returns a wallet's token count.
func (c *Collection) BalanceOf(wallet common.Address) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances[wallet]
}

// TokenURI resolves a token's metadata URI, honoring the reveal state.
func (c *Collection) TokenURI(tokenID uint64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.owners[tokenID]; !ok {
		return "", ErrUnknownToken
	}
	if !c.revealed {
		return c.notRevealedURI, nil
	}
	return fmt.Sprintf("%s%d", c.baseURI, tokenID), nil
}

// State is a point-in-time snapshot of the collection, safe to hand to
// handlers and serializers.
type State struct {
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	Owner           string `json:"owner"`
	TotalSupply     uint64 `json:"total_supply"`
	MaxSupply       uint64 `json:"max_supply"`
	Paused          bool   `json:"paused"`
	TransfersLocked bool   `json:"transfers_locked"`
	Revealed        bool   `json:"revealed"`
	MetadataFrozen  bool   `json:"metadata_frozen"`
	BaseURI         string `json:"base_uri"`
	NotRevealedURI  string `json:"not_revealed_uri"`
	LaunchpadFee    string `json:"launchpad_fee"`
	FeeRecipient    string `json:"fee_recipient"`
	Withdrawable    string `json:"withdrawable"`
	AccruedFees     string `json:"accrued_fees"`
}

// Snapshot captures the current collection state.
func (c *Collection) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Name:            c.name,
		Symbol:          c.symbol,
		Owner:           c.owner.Hex(),
		TotalSupply:     c.totalSupply,
		MaxSupply:       c.maxSupply,
		Paused:          c.paused,
		TransfersLocked: c.transfersLocked,
		Revealed:        c.revealed,
		MetadataFrozen:  c.metadataFrozen,
		BaseURI:         c.baseURI,
		NotRevealedURI:  c.notRevealedURI,
		LaunchpadFee:    c.launchpadFee.String(),
		FeeRecipient:    c.feeRecipient.Hex(),
		Withdrawable:    c.withdrawable.String(),
		AccruedFees:     c.accruedFees.String(),
	}
}

// Owner returns the current owner address.
func (c *Collection) Owner() common.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owner
}
