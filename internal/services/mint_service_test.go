package services

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"launchpad-backend/internal/dto"
	"launchpad-backend/internal/launchpad"
	"launchpad-backend/internal/retry"
)

const mintTestChainID = 8453

func newMintFixture(t *testing.T) (*MintService, *launchpad.Collection, common.Address) {
	t.Helper()

	owner := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	contract := common.HexToAddress("0x00000000000000000000000000000000000000c0")

	collection, err := launchpad.NewCollection(launchpad.Config{
		Name:      "Test",
		Symbol:    "TST",
		Owner:     owner,
		MaxSupply: 100,
		BaseURI:   "ipfs://test/",
	})
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}
	collection.SetClock(func() time.Time { return time.Unix(1_000_000, 0) })

	if _, err := collection.AddPhase(owner, "public", 999_000, 0, big.NewInt(1000), 5); err != nil {
		t.Fatalf("AddPhase: %v", err)
	}

	svc := NewMintService(collection, contract, mintTestChainID, nil, nil, nil, nil)
	return svc, collection, owner
}

func TestProcessMintIntentSuccess(t *testing.T) {
	svc, collection, _ := newMintFixture(t)

	resp, err := svc.ProcessMintIntent(context.Background(), &dto.MintIntentRequest{
		Wallet:   "0x00000000000000000000000000000000000000b2",
		Quantity: 2,
		ValueWei: "2000",
		ChainID:  mintTestChainID,
	})
	if err != nil {
		t.Fatalf("ProcessMintIntent: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success, got reason %q detail %q", resp.Reason, resp.Detail)
	}
	if len(resp.TokenIDs) != 2 {
		t.Errorf("expected 2 token IDs, got %d", len(resp.TokenIDs))
	}
	if got := collection.Snapshot().TotalSupply; got != 2 {
		t.Errorf("total supply = %d, want 2", got)
	}
}

func TestProcessMintIntentWrongChain(t *testing.T) {
	svc, _, _ := newMintFixture(t)

	resp, err := svc.ProcessMintIntent(context.Background(), &dto.MintIntentRequest{
		Wallet:   "0x00000000000000000000000000000000000000b2",
		Quantity: 1,
		ValueWei: "1000",
		ChainID:  1,
	})
	if err != nil {
		t.Fatalf("ProcessMintIntent: %v", err)
	}
	if resp.Success {
		t.Fatal("expected failure for wrong chain")
	}
	if resp.Reason != string(retry.ReasonWrongNetwork) {
		t.Errorf("reason = %q, want %q", resp.Reason, retry.ReasonWrongNetwork)
	}
}

func TestProcessMintIntentPausedReason(t *testing.T) {
	svc, collection, owner := newMintFixture(t)

	if err := collection.Pause(owner); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	resp, err := svc.ProcessMintIntent(context.Background(), &dto.MintIntentRequest{
		Wallet:   "0x00000000000000000000000000000000000000b2",
		Quantity: 1,
		ValueWei: "1000",
		ChainID:  mintTestChainID,
	})
	if err != nil {
		t.Fatalf("ProcessMintIntent: %v", err)
	}
	if resp.Success {
		t.Fatal("expected failure while paused")
	}
	if resp.Reason != string(retry.ReasonPaused) {
		t.Errorf("reason = %q, want %q", resp.Reason, retry.ReasonPaused)
	}
}

func TestProcessMintIntentInvalidWallet(t *testing.T) {
	svc, _, _ := newMintFixture(t)

	resp, err := svc.ProcessMintIntent(context.Background(), &dto.MintIntentRequest{
		Wallet:   "not-an-address",
		Quantity: 1,
		ValueWei: "1000",
		ChainID:  mintTestChainID,
	})
	if err != nil {
		t.Fatalf("ProcessMintIntent: %v", err)
	}
	if resp.Success {
		t.Fatal("expected failure for invalid wallet")
	}
}

func TestProcessMintIntentUnparseableValue(t *testing.T) {
	svc, _, _ := newMintFixture(t)

	resp, err := svc.ProcessMintIntent(context.Background(), &dto.MintIntentRequest{
		Wallet:   "0x00000000000000000000000000000000000000b2",
		Quantity: 1,
		ValueWei: "not-a-number",
		ChainID:  mintTestChainID,
	})
	if err != nil {
		t.Fatalf("ProcessMintIntent: %v", err)
	}
	if resp.Success {
		t.Fatal("expected failure for unparseable value_wei")
	}
	// A malformed payload is the caller's mistake, not a network issue.
	if resp.Reason != string(retry.ReasonGenericFailure) {
		t.Errorf("reason = %q, want %q", resp.Reason, retry.ReasonGenericFailure)
	}
}

func TestQuotePricesPricePlusFee(t *testing.T) {
	owner := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	contract := common.HexToAddress("0x00000000000000000000000000000000000000c0")

	collection, err := launchpad.NewCollection(launchpad.Config{
		Name:         "Test",
		Symbol:       "TST",
		Owner:        owner,
		MaxSupply:    100,
		LaunchpadFee: big.NewInt(50),
	})
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}
	collection.SetClock(func() time.Time { return time.Unix(1_000_000, 0) })
	if _, err := collection.AddPhase(owner, "public", 999_000, 0, big.NewInt(1000), 5); err != nil {
		t.Fatalf("AddPhase: %v", err)
	}

	svc := NewMintService(collection, contract, mintTestChainID, nil, nil, nil, nil)

	quote, err := svc.Quote(common.HexToAddress("0x00000000000000000000000000000000000000b2"), 3)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if quote.TotalWei != "3150" {
		t.Errorf("total = %s, want 3150 ((1000+50)*3)", quote.TotalWei)
	}
	if quote.PriceWei != "1000" || quote.FeeWei != "50" {
		t.Errorf("price/fee = %s/%s, want 1000/50", quote.PriceWei, quote.FeeWei)
	}
}

func TestQuoteNoActivePhase(t *testing.T) {
	owner := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	contract := common.HexToAddress("0x00000000000000000000000000000000000000c0")

	collection, err := launchpad.NewCollection(launchpad.Config{
		Name: "Test", Symbol: "TST", Owner: owner, MaxSupply: 100,
	})
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}

	svc := NewMintService(collection, contract, mintTestChainID, nil, nil, nil, nil)

	if _, err := svc.Quote(common.HexToAddress("0x00000000000000000000000000000000000000b2"), 1); err == nil {
		t.Fatal("expected error with no active phase")
	}
}
