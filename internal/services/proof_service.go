package services

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"launchpad-backend/internal/dto"
	"launchpad-backend/internal/events"
	"launchpad-backend/internal/launchpad"
	"launchpad-backend/internal/merkle"
	"launchpad-backend/internal/metrics"
	"launchpad-backend/internal/models"
	"launchpad-backend/internal/repository"
)

var (
	ErrStaleSignature  = errors.New("proof publication signature is stale")
	ErrBadSignature    = errors.New("proof publication signature does not match collection owner")
	ErrProofsMismatch  = errors.New("published proofs do not verify against the merkle root")
	ErrUnknownContract = errors.New("contract address does not match the tracked collection")
)

// maxPublishSkew bounds how old (or how far in the future) a signed
// proof publication may be. Replayed publications outside this window
// are rejected even with a valid owner signature.
const maxPublishSkew = 5 * time.Minute

// ProofService verifies and stores published allowlist proof sets and
// serves per-wallet lookups to minters.
type ProofService struct {
	collection *launchpad.Collection
	contract   common.Address
	chainID    int

	proofRepo repository.ProofRepository
	relay     *TransactionRelayService
	publisher *events.Publisher
}

// NewProofService wires the proof pipeline.
func NewProofService(
	collection *launchpad.Collection,
	contract common.Address,
	chainID int,
	proofRepo repository.ProofRepository,
	relay *TransactionRelayService,
	publisher *events.Publisher,
) *ProofService {
	return &ProofService{
		collection: collection,
		contract:   contract,
		chainID:    chainID,
		proofRepo:  proofRepo,
		relay:      relay,
		publisher:  publisher,
	}
}

// publicationDigest commits to everything the publisher signed:
// contract, phase, root, wallet count, the proof blob hash and the
// generation timestamp.
func publicationDigest(contract common.Address, phaseID uint64, root common.Hash, totalWallets int, proofsHash common.Hash, generatedAt int64) []byte {
	var phaseBuf, totalBuf, timeBuf [8]byte
	binary.BigEndian.PutUint64(phaseBuf[:], phaseID)
	binary.BigEndian.PutUint64(totalBuf[:], uint64(totalWallets))
	binary.BigEndian.PutUint64(timeBuf[:], uint64(generatedAt))

	return crypto.Keccak256(
		contract.Bytes(),
		phaseBuf[:],
		root.Bytes(),
		totalBuf[:],
		proofsHash.Bytes(),
		timeBuf[:],
	)
}

// PublishProofs validates an owner-signed proof set and stores it.
// Storage is last-write-wins per (contract, phase); the staleness
// window blocks replays of old publications.
func (s *ProofService) PublishProofs(ctx context.Context, contract string, phaseID uint64, req *dto.PublishProofsRequest) (*dto.PublishProofsResponse, error) {
	if !common.IsHexAddress(contract) || common.HexToAddress(contract) != s.contract {
		return nil, ErrUnknownContract
	}

	now := time.Now()
	generated := time.Unix(req.GeneratedAt, 0)
	if now.Sub(generated) > maxPublishSkew || generated.Sub(now) > maxPublishSkew {
		return nil, ErrStaleSignature
	}

	proofsJSON, err := json.Marshal(req.Proofs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode proofs: %w", err)
	}
	proofsHash := crypto.Keccak256Hash(proofsJSON)
	root := common.HexToHash(req.MerkleRoot)

	digest := publicationDigest(s.contract, phaseID, root, req.TotalWallets, proofsHash, req.GeneratedAt)
	signer, err := recoverSigner(digest, req.Signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if signer != s.collection.Owner() {
		return nil, ErrBadSignature
	}

	// Spot-check the blob against the claimed root before committing.
	if err := verifyProofSample(root, req.Proofs); err != nil {
		return nil, err
	}

	file := &models.ProofFile{
		ContractAddress: s.contract.Hex(),
		PhaseID:         phaseID,
		MerkleRoot:      root.Hex(),
		TotalWallets:    req.TotalWallets,
		Proofs:          string(proofsJSON),
		ProofsHash:      proofsHash.Hex(),
		GeneratedAt:     req.GeneratedAt,
		PublishedBy:     signer.Hex(),
	}
	if err := s.proofRepo.Upsert(ctx, file); err != nil {
		return nil, fmt.Errorf("failed to store proof set: %w", err)
	}

	// Push the root on-chain so the contract-side allowlist check
	// matches what minters will fetch from us.
	if s.relay != nil {
		callData, err := BuildSetMerkleRootCallData(phaseID, root)
		if err != nil {
			return nil, err
		}
		if _, err := s.relay.SendContractTx(ctx, "setPhaseMerkleRoot", s.contract, callData, nil); err != nil {
			log.Printf("⚠️ [Proofs] Failed to relay root update, parked for sweeper: %v", err)
		}
	}
	if err := s.collection.SetPhaseMerkleRoot(s.collection.Owner(), phaseID, root); err != nil {
		log.Printf("⚠️ [Proofs] Failed to set root on collection: %v", err)
	}

	s.publisher.RootPublished(&events.RootPublishedEvent{
		Contract:     s.contract.Hex(),
		PhaseID:      phaseID,
		MerkleRoot:   root.Hex(),
		TotalWallets: req.TotalWallets,
	})
	log.Printf("🌳 [Proofs] Published root %s for phase %d (%d wallets)", root.Hex(), phaseID, req.TotalWallets)

	return &dto.PublishProofsResponse{
		ContractAddress: s.contract.Hex(),
		PhaseID:         phaseID,
		MerkleRoot:      root.Hex(),
		TotalWallets:    req.TotalWallets,
		ProofsHash:      proofsHash.Hex(),
		PublishedBy:     signer.Hex(),
	}, nil
}

// GetWalletProof returns the stored proof for one wallet, or an
// eligible=false response when the wallet is not in the set.
func (s *ProofService) GetWalletProof(ctx context.Context, contract string, phaseID uint64, wallet string) (*dto.WalletProofResponse, error) {
	file, err := s.proofRepo.GetByContractPhase(ctx, contract, phaseID)
	if err != nil {
		metrics.ProofLookupsTotal.WithLabelValues("miss").Inc()
		return nil, err
	}

	var proofs map[string][]string
	if err := json.Unmarshal([]byte(file.Proofs), &proofs); err != nil {
		return nil, fmt.Errorf("stored proof set is corrupt: %w", err)
	}

	proof, ok := proofs[strings.ToLower(wallet)]
	if !ok {
		metrics.ProofLookupsTotal.WithLabelValues("ineligible").Inc()
		return &dto.WalletProofResponse{
			Wallet:     wallet,
			PhaseID:    phaseID,
			MerkleRoot: file.MerkleRoot,
			Eligible:   false,
		}, nil
	}

	metrics.ProofLookupsTotal.WithLabelValues("hit").Inc()
	return &dto.WalletProofResponse{
		Wallet:     wallet,
		PhaseID:    phaseID,
		MerkleRoot: file.MerkleRoot,
		Proof:      proof,
		Eligible:   true,
	}, nil
}

// BuildAllowlist builds a tree from a wallet list for publication.
func BuildAllowlist(wallets []common.Address) (common.Hash, map[string][]common.Hash, error) {
	tree, err := merkle.BuildTree(wallets)
	if err != nil {
		return common.Hash{}, nil, err
	}
	return tree.Root, tree.Proofs(), nil
}

// recoverSigner recovers the address that produced an EIP-191 personal
// signature over the digest.
func recoverSigner(digest []byte, signatureHex string) (common.Address, error) {
	signature, err := hexutil.Decode(signatureHex)
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(signature) != 65 {
		return common.Address{}, fmt.Errorf("signature must be 65 bytes, got %d", len(signature))
	}
	// Wallets return v in {27, 28}; SigToPub wants {0, 1}.
	if signature[64] >= 27 {
		signature = append([]byte(nil), signature...)
		signature[64] -= 27
	}

	pubkey, err := crypto.SigToPub(accounts.TextHash(digest), signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pubkey), nil
}

// verifyProofSample checks a handful of published proofs against the
// root. Full verification of large sets would be wasteful here; a
// corrupted blob fails on the first sampled wallet.
func verifyProofSample(root common.Hash, proofs map[string][]string) error {
	checked := 0
	for wallet, proofHex := range proofs {
		if !common.IsHexAddress(wallet) {
			return fmt.Errorf("%w: bad wallet key %q", ErrProofsMismatch, wallet)
		}
		proof := make([]common.Hash, 0, len(proofHex))
		for _, h := range proofHex {
			proof = append(proof, common.HexToHash(h))
		}
		if !merkle.VerifyWallet(common.HexToAddress(wallet), proof, root) {
			return fmt.Errorf("%w: wallet %s", ErrProofsMismatch, wallet)
		}
		checked++
		if checked >= 8 {
			break
		}
	}
	if checked == 0 {
		return fmt.Errorf("%w: empty proof set", ErrProofsMismatch)
	}
	return nil
}
