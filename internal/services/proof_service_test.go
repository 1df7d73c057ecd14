package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"gorm.io/gorm"

	"launchpad-backend/internal/dto"
	"launchpad-backend/internal/launchpad"
	"launchpad-backend/internal/models"
)

type memProofRepo struct {
	files map[string]*models.ProofFile
}

func newMemProofRepo() *memProofRepo {
	return &memProofRepo{files: make(map[string]*models.ProofFile)}
}

func (r *memProofRepo) key(contract string, phaseID uint64) string {
	return fmt.Sprintf("%s/%d", strings.ToLower(contract), phaseID)
}

func (r *memProofRepo) Upsert(ctx context.Context, file *models.ProofFile) error {
	r.files[r.key(file.ContractAddress, file.PhaseID)] = file
	return nil
}

func (r *memProofRepo) GetByContractPhase(ctx context.Context, contract string, phaseID uint64) (*models.ProofFile, error) {
	file, ok := r.files[r.key(contract, phaseID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return file, nil
}

func (r *memProofRepo) ListByContract(ctx context.Context, contract string) ([]*models.ProofFile, error) {
	var out []*models.ProofFile
	for _, f := range r.files {
		if strings.EqualFold(f.ContractAddress, contract) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *memProofRepo) Delete(ctx context.Context, contract string, phaseID uint64) error {
	delete(r.files, r.key(contract, phaseID))
	return nil
}

func newProofFixture(t *testing.T) (*ProofService, *launchpad.Collection, common.Address, *memProofRepo, string) {
	t.Helper()
	ownerKeyHex := "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
	ownerKey, err := crypto.HexToECDSA(ownerKeyHex)
	if err != nil {
		t.Fatalf("HexToECDSA: %v", err)
	}
	owner := crypto.PubkeyToAddress(ownerKey.PublicKey)

	collection, err := launchpad.NewCollection(launchpad.Config{
		Name: "Proof Test", Symbol: "PT", Owner: owner, MaxSupply: 100,
		LaunchpadFee: big.NewInt(0),
	})
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}
	if _, err := collection.AddPhase(owner, "allow", 0, 0, big.NewInt(0), 0); err != nil {
		t.Fatalf("AddPhase: %v", err)
	}

	contract := common.HexToAddress("0x00000000000000000000000000000000000000ee")
	repo := newMemProofRepo()
	svc := NewProofService(collection, contract, 31337, repo, nil, nil)
	return svc, collection, contract, repo, ownerKeyHex
}

func signedPublishRequest(t *testing.T, contract common.Address, phaseID uint64, keyHex string, generatedAt int64, wallets ...common.Address) *dto.PublishProofsRequest {
	t.Helper()
	root, proofs, err := BuildAllowlist(wallets)
	if err != nil {
		t.Fatalf("BuildAllowlist: %v", err)
	}

	proofStrings := make(map[string][]string, len(proofs))
	for wallet, proof := range proofs {
		hexes := make([]string, len(proof))
		for i, h := range proof {
			hexes[i] = h.Hex()
		}
		proofStrings[wallet] = hexes
	}

	blob, err := json.Marshal(proofStrings)
	if err != nil {
		t.Fatalf("marshal proofs: %v", err)
	}
	proofsHash := crypto.Keccak256Hash(blob)

	digest := publicationDigest(contract, phaseID, root, len(wallets), proofsHash, generatedAt)
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		t.Fatalf("HexToECDSA: %v", err)
	}
	signature, err := crypto.Sign(accounts.TextHash(digest), key)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	return &dto.PublishProofsRequest{
		MerkleRoot:   root.Hex(),
		TotalWallets: len(wallets),
		Proofs:       proofStrings,
		GeneratedAt:  generatedAt,
		Signature:    hexutil.Encode(signature),
	}
}

func TestPublishProofsRoundTrip(t *testing.T) {
	svc, _, contract, _, ownerKey := newProofFixture(t)
	wallets := []common.Address{
		common.HexToAddress("0x00000000000000000000000000000000000000b2"),
		common.HexToAddress("0x00000000000000000000000000000000000000c3"),
		common.HexToAddress("0x00000000000000000000000000000000000000d4"),
	}

	req := signedPublishRequest(t, contract, 1, ownerKey, time.Now().Unix(), wallets...)
	resp, err := svc.PublishProofs(context.Background(), contract.Hex(), 1, req)
	if err != nil {
		t.Fatalf("PublishProofs: %v", err)
	}
	if resp.TotalWallets != 3 || resp.MerkleRoot != req.MerkleRoot {
		t.Fatalf("response = %+v", resp)
	}

	lookup, err := svc.GetWalletProof(context.Background(), contract.Hex(), 1, strings.ToLower(wallets[0].Hex()))
	if err != nil {
		t.Fatalf("GetWalletProof: %v", err)
	}
	if !lookup.Eligible {
		t.Fatal("published wallet reported ineligible")
	}

	stranger, err := svc.GetWalletProof(context.Background(), contract.Hex(), 1, "0x00000000000000000000000000000000000000ff")
	if err != nil {
		t.Fatalf("stranger lookup: %v", err)
	}
	if stranger.Eligible {
		t.Fatal("stranger reported eligible")
	}
}

func TestPublishProofsRejectsStaleSignature(t *testing.T) {
	svc, _, contract, _, ownerKey := newProofFixture(t)
	wallet := common.HexToAddress("0x00000000000000000000000000000000000000b2")

	stale := time.Now().Add(-10 * time.Minute).Unix()
	req := signedPublishRequest(t, contract, 1, ownerKey, stale, wallet)
	_, err := svc.PublishProofs(context.Background(), contract.Hex(), 1, req)
	if !errors.Is(err, ErrStaleSignature) {
		t.Fatalf("err = %v, want ErrStaleSignature", err)
	}
}

func TestPublishProofsRejectsNonOwnerSigner(t *testing.T) {
	svc, _, contract, _, _ := newProofFixture(t)
	wallet := common.HexToAddress("0x00000000000000000000000000000000000000b2")

	strangerKey := "8b3a350cf5c34c9194ca85829a2df0ec3153be0318b5e2d3348e872092edffba"
	req := signedPublishRequest(t, contract, 1, strangerKey, time.Now().Unix(), wallet)
	_, err := svc.PublishProofs(context.Background(), contract.Hex(), 1, req)
	if !errors.Is(err, ErrBadSignature) {
		t.Fatalf("err = %v, want ErrBadSignature", err)
	}
}

func TestPublishProofsRejectsTamperedBlob(t *testing.T) {
	svc, _, contract, _, ownerKey := newProofFixture(t)
	wallets := []common.Address{
		common.HexToAddress("0x00000000000000000000000000000000000000b2"),
		common.HexToAddress("0x00000000000000000000000000000000000000c3"),
	}

	req := signedPublishRequest(t, contract, 1, ownerKey, time.Now().Unix(), wallets...)
	// Swap the root for a different commitment; the signature is now
	// over different bytes and recovery yields a different address.
	req.MerkleRoot = crypto.Keccak256Hash([]byte("other")).Hex()
	_, err := svc.PublishProofs(context.Background(), contract.Hex(), 1, req)
	if err == nil {
		t.Fatal("tampered publication accepted")
	}
}

func TestPublishProofsUnknownContract(t *testing.T) {
	svc, _, contract, _, ownerKey := newProofFixture(t)
	wallet := common.HexToAddress("0x00000000000000000000000000000000000000b2")

	req := signedPublishRequest(t, contract, 1, ownerKey, time.Now().Unix(), wallet)
	_, err := svc.PublishProofs(context.Background(), "0x0000000000000000000000000000000000000099", 1, req)
	if !errors.Is(err, ErrUnknownContract) {
		t.Fatalf("err = %v, want ErrUnknownContract", err)
	}
}
