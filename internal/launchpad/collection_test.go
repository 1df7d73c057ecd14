package launchpad

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"launchpad-backend/internal/merkle"
)

func allowlistTree(wallets []common.Address) (common.Hash, map[common.Address][]common.Hash, error) {
	tree, err := merkle.BuildTree(wallets)
	if err != nil {
		return common.Hash{}, nil, err
	}
	proofs := make(map[common.Address][]common.Hash, len(wallets))
	for _, w := range wallets {
		proof, ok := tree.Proof(w)
		if !ok {
			continue
		}
		proofs[w] = proof
	}
	return tree.Root, proofs, nil
}

var (
	testOwner  = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testMinter = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	testOther  = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	testFeeRcp = common.HexToAddress("0x00000000000000000000000000000000000000d4")
)

func fixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0) }
}

func newTestCollection(t *testing.T, maxSupply uint64, fee int64) *Collection {
	t.Helper()
	c, err := NewCollection(Config{
		Name:           "Launch Test",
		Symbol:         "LTST",
		Owner:          testOwner,
		MaxSupply:      maxSupply,
		BaseURI:        "ipfs://base/",
		NotRevealedURI: "ipfs://hidden.json",
		LaunchpadFee:   big.NewInt(fee),
		FeeRecipient:   testFeeRcp,
	})
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}
	c.SetClock(fixedClock(1_000_000))
	return c
}

func addOpenPhase(t *testing.T, c *Collection, price int64, maxPerWallet uint64) uint64 {
	t.Helper()
	id, err := c.AddPhase(testOwner, "public", 999_000, 0, big.NewInt(price), maxPerWallet)
	if err != nil {
		t.Fatalf("AddPhase: %v", err)
	}
	return id
}

func mintValue(price, fee, qty int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(price+fee), big.NewInt(qty))
}

func TestMintHappyPath(t *testing.T) {
	c := newTestCollection(t, 100, 100)
	addOpenPhase(t, c, 1000, 0)

	ids, err := c.PublicMint(testMinter, 3, mintValue(1000, 100, 3), nil)
	if err != nil {
		t.Fatalf("PublicMint: %v", err)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Fatalf("token IDs = %v, want [1 2 3]", ids)
	}
	if got := c.BalanceOf(testMinter); got != 3 {
		t.Errorf("BalanceOf = %d, want 3", got)
	}
	for _, id := range ids {
		owner, err := c.OwnerOf(id)
		if err != nil || owner != testMinter {
			t.Errorf("OwnerOf(%d) = %v, %v", id, owner, err)
		}
	}

	st := c.Snapshot()
	if st.TotalSupply != 3 {
		t.Errorf("TotalSupply = %d, want 3", st.TotalSupply)
	}
	if st.AccruedFees != "300" {
		t.Errorf("AccruedFees = %s, want 300", st.AccruedFees)
	}
	if st.Withdrawable != "3000" {
		t.Errorf("Withdrawable = %s, want 3000", st.Withdrawable)
	}
}

func TestMintPreconditions(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, c *Collection)
		qty     uint64
		value   *big.Int
		wantErr error
	}{
		{
			name:    "paused",
			prepare: func(t *testing.T, c *Collection) { mustNoErr(t, c.Pause(testOwner)) },
			qty:     1,
			value:   mintValue(1000, 100, 1),
			wantErr: ErrPaused,
		},
		{
			name:    "zero quantity",
			qty:     0,
			value:   big.NewInt(0),
			wantErr: ErrZeroQuantity,
		},
		{
			name:    "wrong payment",
			qty:     1,
			value:   big.NewInt(999),
			wantErr: ErrWrongPayment,
		},
		{
			name:    "nil payment",
			qty:     1,
			value:   nil,
			wantErr: ErrWrongPayment,
		},
		{
			name:    "over max supply",
			qty:     11,
			value:   mintValue(1000, 100, 11),
			wantErr: ErrExceedsMaxSupply,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCollection(t, 10, 100)
			addOpenPhase(t, c, 1000, 0)
			if tt.prepare != nil {
				tt.prepare(t, c)
			}
			_, err := c.PublicMint(testMinter, tt.qty, tt.value, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("PublicMint err = %v, want %v", err, tt.wantErr)
			}
			if got := c.Snapshot().TotalSupply; got != 0 {
				t.Errorf("TotalSupply = %d after failed mint, want 0", got)
			}
		})
	}
}

func TestMintNoActivePhase(t *testing.T) {
	c := newTestCollection(t, 10, 0)
	_, err := c.PublicMint(testMinter, 1, big.NewInt(0), nil)
	if !errors.Is(err, ErrNoActivePhase) {
		t.Fatalf("err = %v, want ErrNoActivePhase", err)
	}
}

func TestPerWalletLimitScenario(t *testing.T) {
	c := newTestCollection(t, 100, 0)
	price := int64(10_000_000_000_000_000)
	id, err := c.AddPhase(testOwner, "limited", 999_000, 0, big.NewInt(price), 2)
	if err != nil {
		t.Fatalf("AddPhase: %v", err)
	}

	if _, err := c.PublicMint(testMinter, 1, big.NewInt(price), nil); err != nil {
		t.Fatalf("mint 1: %v", err)
	}
	if _, err := c.PublicMint(testMinter, 1, big.NewInt(price), nil); err != nil {
		t.Fatalf("mint 2: %v", err)
	}
	_, err = c.PublicMint(testMinter, 1, big.NewInt(price), nil)
	if !errors.Is(err, ErrExceedsWalletLimit) {
		t.Fatalf("mint 3 err = %v, want ErrExceedsWalletLimit", err)
	}
	if got := c.MintedInPhase(id, testMinter); got != 2 {
		t.Errorf("MintedInPhase = %d, want 2", got)
	}
	if got := c.Snapshot().TotalSupply; got != 2 {
		t.Errorf("TotalSupply = %d, want 2", got)
	}

	// Another wallet still has its own allowance.
	if _, err := c.PublicMint(testOther, 2, new(big.Int).Mul(big.NewInt(price), big.NewInt(2)), nil); err != nil {
		t.Fatalf("other wallet mint: %v", err)
	}
}

func TestSupplyInvariant(t *testing.T) {
	c := newTestCollection(t, 5, 0)
	addOpenPhase(t, c, 0, 0)

	if _, err := c.PublicMint(testMinter, 4, big.NewInt(0), nil); err != nil {
		t.Fatalf("mint 4: %v", err)
	}
	if _, err := c.PublicMint(testOther, 2, big.NewInt(0), nil); !errors.Is(err, ErrExceedsMaxSupply) {
		t.Fatalf("overshoot err = %v, want ErrExceedsMaxSupply", err)
	}
	if _, err := c.PublicMint(testOther, 1, big.NewInt(0), nil); err != nil {
		t.Fatalf("final mint: %v", err)
	}
	if got := c.Snapshot().TotalSupply; got != 5 {
		t.Errorf("TotalSupply = %d, want 5", got)
	}
}

func TestAllowlistFlagOrProof(t *testing.T) {
	buildTree := func(t *testing.T, wallets ...common.Address) (common.Hash, map[common.Address][]common.Hash) {
		t.Helper()
		root, proofs, err := allowlistTree(wallets)
		if err != nil {
			t.Fatalf("allowlistTree: %v", err)
		}
		return root, proofs
	}

	t.Run("flag without proof", func(t *testing.T) {
		c := newTestCollection(t, 10, 0)
		id := addOpenPhase(t, c, 0, 0)
		mustNoErr(t, c.SetPhaseAllowlistEnabled(testOwner, id, true))
		mustNoErr(t, c.SetPhaseAllowlist(testOwner, id, []common.Address{testMinter}, true))
		if _, err := c.PublicMint(testMinter, 1, big.NewInt(0), nil); err != nil {
			t.Fatalf("flagged mint: %v", err)
		}
	})

	t.Run("proof without flag", func(t *testing.T) {
		c := newTestCollection(t, 10, 0)
		id := addOpenPhase(t, c, 0, 0)
		root, proofs := buildTree(t, testMinter, testOther)
		mustNoErr(t, c.SetPhaseAllowlistEnabled(testOwner, id, true))
		mustNoErr(t, c.SetPhaseMerkleRoot(testOwner, id, root))
		if _, err := c.PublicMint(testMinter, 1, big.NewInt(0), proofs[testMinter]); err != nil {
			t.Fatalf("proved mint: %v", err)
		}
	})

	t.Run("neither flag nor proof", func(t *testing.T) {
		c := newTestCollection(t, 10, 0)
		id := addOpenPhase(t, c, 0, 0)
		root, _ := buildTree(t, testOther)
		mustNoErr(t, c.SetPhaseAllowlistEnabled(testOwner, id, true))
		mustNoErr(t, c.SetPhaseMerkleRoot(testOwner, id, root))
		_, err := c.PublicMint(testMinter, 1, big.NewInt(0), nil)
		if !errors.Is(err, ErrNotAllowlisted) {
			t.Fatalf("err = %v, want ErrNotAllowlisted", err)
		}
	})

	t.Run("enabled with unset root only flags mint", func(t *testing.T) {
		c := newTestCollection(t, 10, 0)
		id := addOpenPhase(t, c, 0, 0)
		mustNoErr(t, c.SetPhaseAllowlistEnabled(testOwner, id, true))
		_, err := c.PublicMint(testMinter, 1, big.NewInt(0), []common.Hash{{0x01}})
		if !errors.Is(err, ErrNotAllowlisted) {
			t.Fatalf("err = %v, want ErrNotAllowlisted", err)
		}
		mustNoErr(t, c.SetPhaseAllowlist(testOwner, id, []common.Address{testMinter}, true))
		if _, err := c.PublicMint(testMinter, 1, big.NewInt(0), nil); err != nil {
			t.Fatalf("flagged mint: %v", err)
		}
	})
}

func TestFreezeMetadata(t *testing.T) {
	c := newTestCollection(t, 10, 0)

	if err := c.FreezeMetadata(testOther); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("non-owner freeze err = %v, want ErrNotOwner", err)
	}
	mustNoErr(t, c.FreezeMetadata(testOwner))

	before := c.Snapshot()
	if err := c.FreezeMetadata(testOwner); !errors.Is(err, ErrAlreadyFrozen) {
		t.Fatalf("second freeze err = %v, want ErrAlreadyFrozen", err)
	}
	if after := c.Snapshot(); after != before {
		t.Errorf("state changed by rejected freeze: %+v vs %+v", after, before)
	}

	if err := c.SetBaseURI(testOwner, "ipfs://new/"); !errors.Is(err, ErrMetadataFrozen) {
		t.Errorf("SetBaseURI err = %v, want ErrMetadataFrozen", err)
	}
	if err := c.SetNotRevealedURI(testOwner, "x"); !errors.Is(err, ErrMetadataFrozen) {
		t.Errorf("SetNotRevealedURI err = %v, want ErrMetadataFrozen", err)
	}
	if err := c.SetRevealed(testOwner, true); !errors.Is(err, ErrMetadataFrozen) {
		t.Errorf("SetRevealed err = %v, want ErrMetadataFrozen", err)
	}
}

func TestMaxSupplyRatchet(t *testing.T) {
	c := newTestCollection(t, 100, 0)
	addOpenPhase(t, c, 0, 0)
	if _, err := c.PublicMint(testMinter, 10, big.NewInt(0), nil); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := c.SetMaxSupply(testOwner, 200); !errors.Is(err, ErrInvalidMaxSupply) {
		t.Errorf("raise err = %v, want ErrInvalidMaxSupply", err)
	}
	if err := c.SetMaxSupply(testOwner, 5); !errors.Is(err, ErrInvalidMaxSupply) {
		t.Errorf("below-minted err = %v, want ErrInvalidMaxSupply", err)
	}
	mustNoErr(t, c.SetMaxSupply(testOwner, 50))
	if got := c.Snapshot().MaxSupply; got != 50 {
		t.Errorf("MaxSupply = %d, want 50", got)
	}
	mustNoErr(t, c.SetMaxSupply(testOwner, 10))
	if _, err := c.PublicMint(testMinter, 1, big.NewInt(0), nil); !errors.Is(err, ErrExceedsMaxSupply) {
		t.Errorf("mint at cap err = %v, want ErrExceedsMaxSupply", err)
	}
}

func TestTransferLockOverlay(t *testing.T) {
	c := newTestCollection(t, 10, 0)
	addOpenPhase(t, c, 0, 0)
	ids, err := c.PublicMint(testMinter, 1, big.NewInt(0), nil)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	mustNoErr(t, c.SetTransfersLocked(testOwner, true))
	if err := c.TransferFrom(testMinter, testMinter, testOther, ids[0]); !errors.Is(err, ErrTransfersLocked) {
		t.Fatalf("locked transfer err = %v, want ErrTransfersLocked", err)
	}
	if err := c.Approve(testMinter, testOther, ids[0]); !errors.Is(err, ErrTransfersLocked) {
		t.Fatalf("locked approve err = %v, want ErrTransfersLocked", err)
	}

	// Minting is not affected by the transfer lock.
	if _, err := c.PublicMint(testOther, 1, big.NewInt(0), nil); err != nil {
		t.Fatalf("mint under lock: %v", err)
	}

	mustNoErr(t, c.SetTransfersLocked(testOwner, false))
	mustNoErr(t, c.TransferFrom(testMinter, testMinter, testOther, ids[0]))
	owner, err := c.OwnerOf(ids[0])
	if err != nil || owner != testOther {
		t.Fatalf("OwnerOf after transfer = %v, %v", owner, err)
	}
}

func TestTokenURIRevealFlow(t *testing.T) {
	c := newTestCollection(t, 10, 0)
	addOpenPhase(t, c, 0, 0)
	ids, err := c.PublicMint(testMinter, 2, big.NewInt(0), nil)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	uri, err := c.TokenURI(ids[0])
	if err != nil || uri != "ipfs://hidden.json" {
		t.Fatalf("pre-reveal TokenURI = %q, %v", uri, err)
	}
	mustNoErr(t, c.SetRevealed(testOwner, true))
	uri, err = c.TokenURI(ids[1])
	if err != nil || uri != "ipfs://base/2" {
		t.Fatalf("post-reveal TokenURI = %q, %v", uri, err)
	}
	if _, err := c.TokenURI(999); !errors.Is(err, ErrUnknownToken) {
		t.Errorf("unknown token err = %v, want ErrUnknownToken", err)
	}
}

func TestWithdrawSplitsFees(t *testing.T) {
	c := newTestCollection(t, 10, 5)
	addOpenPhase(t, c, 95, 0)

	if _, err := c.PublicMint(testMinter, 2, mintValue(95, 5, 2), nil); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := c.Withdraw(testOther); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("non-owner withdraw err = %v, want ErrNotOwner", err)
	}
	amount, err := c.Withdraw(testOwner)
	if err != nil || amount.Int64() != 190 {
		t.Fatalf("Withdraw = %v, %v, want 190", amount, err)
	}
	amount, err = c.Withdraw(testOwner)
	if err != nil || amount.Sign() != 0 {
		t.Fatalf("second Withdraw = %v, %v, want 0", amount, err)
	}

	if _, err := c.WithdrawFees(testOther); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("stranger fee withdraw err = %v, want ErrNotAuthorized", err)
	}
	amount, err = c.WithdrawFees(testFeeRcp)
	if err != nil || amount.Int64() != 10 {
		t.Fatalf("WithdrawFees = %v, %v, want 10", amount, err)
	}
}

func TestTransferOwnership(t *testing.T) {
	c := newTestCollection(t, 10, 0)

	if err := c.TransferOwnership(testOther, testOther); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("non-owner err = %v, want ErrNotOwner", err)
	}
	if err := c.TransferOwnership(testOwner, common.Address{}); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("zero address err = %v, want ErrZeroAddress", err)
	}
	mustNoErr(t, c.TransferOwnership(testOwner, testOther))
	if got := c.Owner(); got != testOther {
		t.Fatalf("Owner = %v, want %v", got, testOther)
	}
	// Old owner has lost privileges.
	if err := c.Pause(testOwner); !errors.Is(err, ErrNotOwner) {
		t.Errorf("old owner pause err = %v, want ErrNotOwner", err)
	}
	mustNoErr(t, c.Pause(testOther))
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
