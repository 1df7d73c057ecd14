package services

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"launchpad-backend/internal/config"
	"launchpad-backend/internal/metrics"
	"launchpad-backend/internal/models"
	"launchpad-backend/internal/repository"
	"launchpad-backend/internal/retry"
)

// ChainBackend is the slice of the RPC surface the relay needs. The
// production implementation is backed by ethclient; tests substitute
// a fake.
type ChainBackend interface {
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	NonceAt(ctx context.Context, account common.Address) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// oneGwei is the floor for the priority fee. Some providers suggest
// zero tips on quiet chains and those transactions never get picked up.
var oneGwei = big.NewInt(1_000_000_000)

// TransactionRelayService signs and broadcasts contract calls with
// buffered gas estimation, nonce gap recovery, EIP-1559 fee repair and
// bounded retries. One instance serves one (chain, signer) pair.
type TransactionRelayService struct {
	backend    ChainBackend
	chainID    *big.Int
	relayCfg   config.RelayConfig
	privateKey *ecdsa.PrivateKey
	from       common.Address

	mu          sync.Mutex
	forceLegacy bool // set after a fee-cap/tip inversion, sticky for the session

	writePolicy retry.Policy

	pendingRepo repository.PendingTransactionRepository
	failedRepo  repository.FailedTransactionRepository
}

// NewTransactionRelayService builds a relay for one network.
func NewTransactionRelayService(
	backend ChainBackend,
	chainID *big.Int,
	relayCfg config.RelayConfig,
	privateKeyHex string,
	pendingRepo repository.PendingTransactionRepository,
	failedRepo repository.FailedTransactionRepository,
) (*TransactionRelayService, error) {
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid relay private key: %w", err)
	}
	from := crypto.PubkeyToAddress(privateKey.PublicKey)
	log.Printf("🔑 Relay signer address: %s (chain %s)", from.Hex(), chainID.String())

	return &TransactionRelayService{
		backend:    backend,
		chainID:    chainID,
		relayCfg:   relayCfg,
		privateKey: privateKey,
		from:       from,
		writePolicy: retry.Policy{
			MaxAttempts: relayCfg.MaxAttempts,
			Backoff:     time.Duration(relayCfg.BackoffMs) * time.Millisecond,
			Retryable:   retry.IsRetryable,
		},
		pendingRepo: pendingRepo,
		failedRepo:  failedRepo,
	}, nil
}

// From returns the relay signer address.
func (s *TransactionRelayService) From() common.Address {
	return s.from
}

// resolveNonce picks the account nonce for the next transaction.
// Normally the pending nonce is correct, but a provider with a stuck
// or poisoned mempool can report a pending nonce far ahead of the
// confirmed one. When the gap exceeds the threshold we fall back to
// the confirmed nonce so the account can recover.
func (s *TransactionRelayService) resolveNonce(ctx context.Context) (uint64, error) {
	latest, err := s.backend.NonceAt(ctx, s.from)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest nonce: %w", err)
	}
	pending, err := s.backend.PendingNonceAt(ctx, s.from)
	if err != nil {
		return 0, fmt.Errorf("failed to get pending nonce: %w", err)
	}

	if pending > latest && pending-latest > s.relayCfg.NonceGapThreshold {
		log.Printf("⚠️ [Relay] Nonce gap too large (latest=%d pending=%d), resetting to latest", latest, pending)
		return latest, nil
	}
	return pending, nil
}

// bufferedGasLimit estimates gas for the call and applies the safety
// buffer. A revert-like estimation failure means the transaction is
// doomed on-chain too, so it fails fast instead of burning gas. Other
// estimation failures fall back to the configured static limit.
func (s *TransactionRelayService) bufferedGasLimit(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	estimated, err := s.backend.EstimateGas(ctx, msg)
	if err != nil {
		if retry.IsRevertLike(err) {
			return 0, fmt.Errorf("gas estimation reverted: %w", err)
		}
		log.Printf("⚠️ [Relay] Gas estimation failed (%v), using fallback limit %d", err, s.relayCfg.FallbackGasLimit)
		return s.relayCfg.FallbackGasLimit, nil
	}

	buffered := estimated * uint64(s.relayCfg.GasBufferNum) / uint64(s.relayCfg.GasBufferDen)
	log.Printf("🔧 [Relay] Gas estimate %d buffered to %d", estimated, buffered)
	return buffered, nil
}

// buildFees returns (tip, maxFee) for a dynamic-fee transaction. The
// tip is floored at 1 gwei. The fee cap is 2*baseFee + tip, and if a
// thin baseFee would put the cap under the tip it is raised to twice
// the tip so the node never sees an inverted pair.
func (s *TransactionRelayService) buildFees(ctx context.Context) (*big.Int, *big.Int, error) {
	tip, err := s.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get gas tip cap: %w", err)
	}
	if tip.Cmp(oneGwei) < 0 {
		tip = new(big.Int).Set(oneGwei)
	}

	header, err := s.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get latest header: %w", err)
	}
	baseFee := header.BaseFee
	if baseFee == nil {
		baseFee = big.NewInt(0)
	}

	maxFee := new(big.Int).Add(new(big.Int).Mul(baseFee, big.NewInt(2)), tip)
	if maxFee.Cmp(tip) < 0 {
		maxFee = new(big.Int).Mul(tip, big.NewInt(2))
	}
	return tip, maxFee, nil
}

// SendContractTx signs and broadcasts one contract call with all the
// reliability machinery: buffered gas, nonce resolution, fee repair
// and bounded retries. It records the transaction in the pending queue
// and parks it for the sweeper when all attempts fail.
func (s *TransactionRelayService) SendContractTx(ctx context.Context, method string, to common.Address, callData []byte, value *big.Int) (*types.Transaction, error) {
	return s.submit(ctx, method, to, callData, value, true)
}

// ResubmitContractTx is the sweeper's entry point. The submission is
// already parked, so a failure here must not create a second record.
func (s *TransactionRelayService) ResubmitContractTx(ctx context.Context, method string, to common.Address, callData []byte, value *big.Int) (*types.Transaction, error) {
	return s.submit(ctx, method, to, callData, value, false)
}

func (s *TransactionRelayService) submit(ctx context.Context, method string, to common.Address, callData []byte, value *big.Int, parkOnFailure bool) (*types.Transaction, error) {
	if value == nil {
		value = big.NewInt(0)
	}

	record := &models.PendingTransaction{
		ID:       uuid.New().String(),
		ChainID:  int(s.chainID.Int64()),
		Contract: to.Hex(),
		Method:   method,
		CallData: common.Bytes2Hex(callData),
		ValueWei: value.String(),
		Status:   models.PendingTransactionStatusQueued,
	}
	if s.pendingRepo != nil {
		if err := s.pendingRepo.Create(ctx, record); err != nil {
			log.Printf("⚠️ [Relay] Failed to record pending transaction: %v", err)
		}
	}

	started := time.Now()
	var sent *types.Transaction
	err := s.writePolicy.Do(ctx, func(ctx context.Context, attempt int) error {
		tx, err := s.sendOnce(ctx, to, callData, value)
		if err != nil {
			if retry.IsFeeMismatch(err) {
				s.mu.Lock()
				s.forceLegacy = true
				s.mu.Unlock()
				log.Printf("⚠️ [Relay] Fee cap below tip on attempt %d, switching to legacy pricing", attempt)
			}
			metrics.RelayAttemptsTotal.WithLabelValues("retry").Inc()
			return err
		}
		sent = tx
		return nil
	})
	metrics.RelayDurationSeconds.Observe(time.Since(started).Seconds())

	if err != nil {
		metrics.RelayAttemptsTotal.WithLabelValues("failed").Inc()
		if s.pendingRepo != nil {
			_ = s.pendingRepo.MarkFailed(ctx, record.ID, err.Error())
		}
		if parkOnFailure {
			s.parkFailedTransaction(ctx, method, to, callData, value, err)
		}
		return nil, err
	}

	metrics.RelayAttemptsTotal.WithLabelValues("success").Inc()
	if s.pendingRepo != nil {
		record.Status = models.PendingTransactionStatusSent
		record.TxHash = sent.Hash().Hex()
		record.Nonce = sent.Nonce()
		record.GasLimit = sent.Gas()
		if err := s.pendingRepo.Update(ctx, record); err != nil {
			log.Printf("⚠️ [Relay] Failed to update pending transaction: %v", err)
		}
	}
	log.Printf("✅ [Relay] Transaction sent: %s (method=%s nonce=%d gas=%d)",
		sent.Hash().Hex(), method, sent.Nonce(), sent.Gas())
	return sent, nil
}

// sendOnce performs a single build-sign-broadcast cycle.
func (s *TransactionRelayService) sendOnce(ctx context.Context, to common.Address, callData []byte, value *big.Int) (*types.Transaction, error) {
	gasLimit, err := s.bufferedGasLimit(ctx, ethereum.CallMsg{
		From:  s.from,
		To:    &to,
		Value: value,
		Data:  callData,
	})
	if err != nil {
		return nil, err
	}

	nonce, err := s.resolveNonce(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	legacy := s.forceLegacy
	s.mu.Unlock()

	var tx *types.Transaction
	if legacy {
		gasPrice, err := s.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get legacy gas price: %w", err)
		}
		tx = types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gasLimit,
			To:       &to,
			Value:    value,
			Data:     callData,
		})
	} else {
		tip, maxFee, err := s.buildFees(ctx)
		if err != nil {
			return nil, err
		}
		tx = types.NewTx(&types.DynamicFeeTx{
			ChainID:   s.chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: maxFee,
			Gas:       gasLimit,
			To:        &to,
			Value:     value,
			Data:      callData,
		})
	}

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	if err := s.backend.SendTransaction(ctx, signedTx); err != nil {
		return nil, err
	}
	return signedTx, nil
}

// txTypeForMethod buckets parked submissions by contract method.
func txTypeForMethod(method string) models.FailedTransactionType {
	switch method {
	case "publicMint":
		return models.FailedTransactionTypeMint
	case "setPhaseMerkleRoot":
		return models.FailedTransactionTypeRootPublish
	default:
		return models.FailedTransactionTypePhaseAdmin
	}
}

// parkFailedTransaction hands an exhausted submission to the sweeper.
// The value must be persisted with the call data: resubmitting a paid
// mint without it would fail the contract's exact-payment check forever.
func (s *TransactionRelayService) parkFailedTransaction(ctx context.Context, method string, to common.Address, callData []byte, value *big.Int, cause error) {
	if s.failedRepo == nil {
		return
	}
	reason, _ := retry.Normalize(cause)
	ft := &models.FailedTransaction{
		ID:            uuid.New().String(),
		TxType:        txTypeForMethod(method),
		Status:        models.FailedTransactionStatusPending,
		ChainID:       int(s.chainID.Int64()),
		Contract:      to.Hex(),
		Method:        method,
		CallData:      common.Bytes2Hex(callData),
		ValueWei:      value.String(),
		LastError:     cause.Error(),
		OriginalError: cause.Error(),
		FailureReason: string(reason),
		NextRetryAt:   time.Now().Add(10 * time.Second),
	}
	if err := s.failedRepo.Create(ctx, ft); err != nil {
		log.Printf("❌ [Relay] Failed to park failed transaction: %v", err)
		return
	}
	log.Printf("📋 [Relay] Parked failed transaction %s for retry sweeper (reason=%s)", ft.ID, reason)
}
