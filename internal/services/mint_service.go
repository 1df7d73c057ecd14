package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"launchpad-backend/internal/dto"
	"launchpad-backend/internal/events"
	"launchpad-backend/internal/launchpad"
	"launchpad-backend/internal/metrics"
	"launchpad-backend/internal/models"
	"launchpad-backend/internal/repository"
	"launchpad-backend/internal/retry"
)

// MintService executes mint intents against the collection state
// machine, relays the matching contract call, and fans the result out
// to the activity feed, NATS and connected WebSocket clients.
type MintService struct {
	collection *launchpad.Collection
	contract   common.Address
	chainID    int

	relay     *TransactionRelayService // nil in offline/simulation mode
	mintRepo  repository.MintRepository
	publisher *events.Publisher
	push      *WebSocketPushService
}

// NewMintService wires the mint pipeline.
func NewMintService(
	collection *launchpad.Collection,
	contract common.Address,
	chainID int,
	relay *TransactionRelayService,
	mintRepo repository.MintRepository,
	publisher *events.Publisher,
	push *WebSocketPushService,
) *MintService {
	return &MintService{
		collection: collection,
		contract:   contract,
		chainID:    chainID,
		relay:      relay,
		mintRepo:   mintRepo,
		publisher:  publisher,
		push:       push,
	}
}

// ProcessMintIntent validates and executes one mint intent. Validation
// failures come back as normalized reason codes, never as transport
// errors, so the client can render a precise message.
func (s *MintService) ProcessMintIntent(ctx context.Context, req *dto.MintIntentRequest) (*dto.MintIntentResponse, error) {
	if !common.IsHexAddress(req.Wallet) {
		return &dto.MintIntentResponse{
			Success: false,
			Reason:  string(retry.ReasonGenericFailure),
			Detail:  "invalid wallet address",
		}, nil
	}
	wallet := common.HexToAddress(req.Wallet)

	value, ok := new(big.Int).SetString(req.ValueWei, 10)
	if !ok {
		return &dto.MintIntentResponse{
			Success: false,
			Reason:  string(retry.ReasonGenericFailure),
			Detail:  "invalid value_wei",
		}, nil
	}
	if req.ChainID != s.chainID {
		metrics.MintAttemptsTotal.WithLabelValues(string(retry.ReasonWrongNetwork)).Inc()
		return &dto.MintIntentResponse{
			Success: false,
			Reason:  string(retry.ReasonWrongNetwork),
			Detail:  fmt.Sprintf("expected chain %d, got %d", s.chainID, req.ChainID),
		}, nil
	}

	proof := make([]common.Hash, 0, len(req.Proof))
	for _, h := range req.Proof {
		proof = append(proof, common.HexToHash(h))
	}

	phase, phaseErr := s.collection.ActivePhase()

	tokenIDs, err := s.collection.PublicMint(wallet, req.Quantity, value, proof)
	if err != nil {
		reason, detail := retry.Normalize(err)
		metrics.MintAttemptsTotal.WithLabelValues(string(reason)).Inc()
		log.Printf("❌ [Mint] Rejected mint from %s: %v", wallet.Hex(), err)
		return &dto.MintIntentResponse{Success: false, Reason: string(reason), Detail: detail}, nil
	}

	var phaseID uint64
	if phaseErr == nil {
		phaseID = phase.ID
	}

	txHash := ""
	if s.relay != nil {
		callData, err := BuildPublicMintCallData(req.Quantity, proof)
		if err != nil {
			return nil, fmt.Errorf("failed to build mint call data: %w", err)
		}
		tx, err := s.relay.SendContractTx(ctx, "publicMint", s.contract, callData, value)
		if err != nil {
			// The local state machine already applied the mint; the
			// parked transaction will reconcile the chain later.
			log.Printf("⚠️ [Mint] Relay failed after local mint, parked for sweeper: %v", err)
		} else {
			txHash = tx.Hash().Hex()
		}
	}

	metrics.MintAttemptsTotal.WithLabelValues("success").Inc()
	metrics.MintedTokensTotal.Add(float64(req.Quantity))
	snapshot := s.collection.Snapshot()
	metrics.CollectionTotalSupply.Set(float64(snapshot.TotalSupply))

	s.recordMint(ctx, wallet, phaseID, req.Quantity, tokenIDs, txHash, value)

	event := &events.MintConfirmedEvent{
		Contract:    s.contract.Hex(),
		Wallet:      wallet.Hex(),
		PhaseID:     phaseID,
		Quantity:    req.Quantity,
		TokenIDs:    tokenIDs,
		TxHash:      txHash,
		TotalSupply: snapshot.TotalSupply,
	}
	s.publisher.MintConfirmed(event)
	if s.push != nil {
		s.push.Broadcast("mint_confirmed", event)
	}

	log.Printf("🎉 [Mint] %s minted %d token(s) in phase %d, supply now %d/%d",
		wallet.Hex(), req.Quantity, phaseID, snapshot.TotalSupply, snapshot.MaxSupply)
	return &dto.MintIntentResponse{Success: true, TxHash: txHash, TokenIDs: tokenIDs}, nil
}

// Quote prices a prospective mint against the active phase.
func (s *MintService) Quote(wallet common.Address, quantity uint64) (*dto.MintQuoteResponse, error) {
	phase, err := s.collection.ActivePhase()
	if err != nil {
		return nil, err
	}
	if quantity == 0 {
		quantity = 1
	}

	snapshot := s.collection.Snapshot()
	fee, _ := new(big.Int).SetString(snapshot.LaunchpadFee, 10)
	if fee == nil {
		fee = big.NewInt(0)
	}
	unit := new(big.Int).Add(phase.Price, fee)
	total := new(big.Int).Mul(unit, new(big.Int).SetUint64(quantity))

	return &dto.MintQuoteResponse{
		PhaseID:      phase.ID,
		PhaseName:    phase.Name,
		PriceWei:     phase.Price.String(),
		FeeWei:       fee.String(),
		TotalWei:     total.String(),
		Quantity:     quantity,
		MaxPerWallet: phase.MaxPerWallet,
		Minted:       s.collection.MintedInPhase(phase.ID, wallet),
		Remaining:    snapshot.MaxSupply - snapshot.TotalSupply,
		NeedsProof:   phase.AllowlistEnabled,
	}, nil
}

// Collection exposes the underlying state machine to handlers.
func (s *MintService) Collection() *launchpad.Collection {
	return s.collection
}

func (s *MintService) recordMint(ctx context.Context, wallet common.Address, phaseID, quantity uint64, tokenIDs []uint64, txHash string, value *big.Int) {
	if s.mintRepo == nil {
		return
	}
	ids, err := json.Marshal(tokenIDs)
	if err != nil {
		ids = []byte("[]")
	}
	record := &models.MintRecord{
		ID:              uuid.New().String(),
		ContractAddress: s.contract.Hex(),
		Wallet:          wallet.Hex(),
		PhaseID:         phaseID,
		Quantity:        quantity,
		TokenIDs:        string(ids),
		TxHash:          txHash,
		ValueWei:        value.String(),
	}
	if err := s.mintRepo.Create(ctx, record); err != nil {
		log.Printf("⚠️ [Mint] Failed to record mint: %v", err)
	}
}
