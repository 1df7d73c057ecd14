package services

import (
	"context"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"launchpad-backend/internal/metrics"
	"launchpad-backend/internal/models"
	"launchpad-backend/internal/repository"
)

// FailedTransactionRetryService sweeps parked relay submissions on a
// timer and resubmits the ones whose backoff has elapsed. Records that
// exhaust their retries are abandoned for manual inspection.
type FailedTransactionRetryService struct {
	failedRepo repository.FailedTransactionRepository
	relay      *TransactionRelayService

	sweepInterval time.Duration
	batchSize     int
	stopCh        chan struct{}
}

// NewFailedTransactionRetryService creates the sweeper.
func NewFailedTransactionRetryService(failedRepo repository.FailedTransactionRepository, relay *TransactionRelayService) *FailedTransactionRetryService {
	return &FailedTransactionRetryService{
		failedRepo:    failedRepo,
		relay:         relay,
		sweepInterval: 30 * time.Second,
		batchSize:     10,
		stopCh:        make(chan struct{}),
	}
}

// Start launches the sweep loop in the background.
func (s *FailedTransactionRetryService) Start() {
	log.Printf("🚀 Failed transaction retry sweeper started (interval=%v)", s.sweepInterval)
	go s.loop()
}

// Stop terminates the sweep loop.
func (s *FailedTransactionRetryService) Stop() {
	close(s.stopCh)
}

func (s *FailedTransactionRetryService) loop() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweep(context.Background())
		}
	}
}

// sweep processes one batch of due records.
func (s *FailedTransactionRetryService) sweep(ctx context.Context) {
	records, err := s.failedRepo.FindDue(ctx, s.batchSize)
	if err != nil {
		log.Printf("❌ [Sweeper] Failed to query due records: %v", err)
		return
	}
	if len(records) == 0 {
		s.updatePendingGauge(ctx)
		return
	}
	log.Printf("🔍 [Sweeper] Processing %d due failed transaction(s)", len(records))

	for _, record := range records {
		s.retryOne(ctx, record)
	}
	s.updatePendingGauge(ctx)
}

func (s *FailedTransactionRetryService) retryOne(ctx context.Context, record *models.FailedTransaction) {
	record.Status = models.FailedTransactionStatusRetrying
	if err := s.failedRepo.Update(ctx, record); err != nil {
		log.Printf("❌ [Sweeper] Failed to mark record %s retrying: %v", record.ID, err)
		return
	}

	callData := common.Hex2Bytes(record.CallData)
	contract := common.HexToAddress(record.Contract)

	// Paid calls must go back out with the original msg.value or the
	// contract's payment check rejects every resubmission.
	value := big.NewInt(0)
	if record.ValueWei != "" {
		parsed, ok := new(big.Int).SetString(record.ValueWei, 10)
		if !ok {
			record.IncrementRetry("unparseable stored value_wei: " + record.ValueWei)
			record.Status = models.FailedTransactionStatusAbandoned
			now := time.Now()
			record.ResolvedAt = &now
			if err := s.failedRepo.Update(ctx, record); err != nil {
				log.Printf("❌ [Sweeper] Failed to abandon corrupt record %s: %v", record.ID, err)
			}
			log.Printf("🪦 [Sweeper] Record %s abandoned: corrupt value_wei %q", record.ID, record.ValueWei)
			return
		}
		value = parsed
	}

	tx, err := s.relay.ResubmitContractTx(ctx, record.Method, contract, callData, value)
	if err != nil {
		record.Status = models.FailedTransactionStatusPending
		record.IncrementRetry(err.Error())
		if updErr := s.failedRepo.Update(ctx, record); updErr != nil {
			log.Printf("❌ [Sweeper] Failed to update record %s: %v", record.ID, updErr)
		}
		if record.Status == models.FailedTransactionStatusAbandoned {
			log.Printf("🪦 [Sweeper] Record %s abandoned after %d attempts", record.ID, record.RetryCount)
		} else {
			log.Printf("⚠️ [Sweeper] Record %s retry %d/%d failed, next at %v",
				record.ID, record.RetryCount, record.MaxRetries, record.NextRetryAt.Format(time.RFC3339))
		}
		return
	}

	record.MarkAsRecovered(tx.Hash().Hex())
	if err := s.failedRepo.Update(ctx, record); err != nil {
		log.Printf("❌ [Sweeper] Failed to mark record %s recovered: %v", record.ID, err)
		return
	}
	log.Printf("✅ [Sweeper] Record %s recovered with tx %s", record.ID, tx.Hash().Hex())
}

func (s *FailedTransactionRetryService) updatePendingGauge(ctx context.Context) {
	count, err := s.failedRepo.CountByStatus(ctx, models.FailedTransactionStatusPending)
	if err != nil {
		return
	}
	metrics.FailedTransactionsPending.Set(float64(count))
}
