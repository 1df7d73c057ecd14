package models

import (
	"time"
)

// Failed transaction status
type FailedTransactionStatus string

const (
	FailedTransactionStatusPending   FailedTransactionStatus = "pending"
	FailedTransactionStatusRetrying  FailedTransactionStatus = "retrying"
	FailedTransactionStatusRecovered FailedTransactionStatus = "recovered"
	FailedTransactionStatusAbandoned FailedTransactionStatus = "abandoned" // reached maximum retry attempts
)

// Failed transaction type
type FailedTransactionType string

const (
	FailedTransactionTypeMint        FailedTransactionType = "mint"
	FailedTransactionTypePhaseAdmin  FailedTransactionType = "phase_admin"
	FailedTransactionTypeRootPublish FailedTransactionType = "root_publish"
)

// FailedTransaction is a relay submission that exhausted its inline
// retries and was parked for the background sweeper.
type FailedTransaction struct {
	ID     string                  `json:"id" gorm:"primaryKey"` // UUID
	TxType FailedTransactionType   `json:"tx_type" gorm:"not null"`
	Status FailedTransactionStatus `json:"status" gorm:"not null;default:pending"`

	ChainID  int    `json:"chain_id" gorm:"not null"`
	Contract string `json:"contract" gorm:"size:42;not null"`
	Method   string `json:"method" gorm:"size:64"`
	CallData string `json:"call_data" gorm:"type:text"`
	ValueWei string `json:"value_wei" gorm:"size:80;default:0"` // msg.value, needed to resubmit paid calls
	TxHash   string `json:"tx_hash" gorm:"size:66"`
	Wallet   string `json:"wallet" gorm:"size:42;index"`

	RetryCount  int       `json:"retry_count" gorm:"default:0"`
	MaxRetries  int       `json:"max_retries" gorm:"default:10"`
	NextRetryAt time.Time `json:"next_retry_at"`

	LastError     string `json:"last_error" gorm:"type:text"`
	OriginalError string `json:"original_error" gorm:"type:text"`
	FailureReason string `json:"failure_reason" gorm:"size:40"` // normalized reason code

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ResolvedAt *time.Time `json:"resolved_at"`
}

// CalculateNextRetryTime returns the next sweep time, doubling the
// delay per attempt and capping at ten minutes.
func (ft *FailedTransaction) CalculateNextRetryTime() time.Time {
	baseDelay := 10 * time.Second
	delay := baseDelay * time.Duration(1<<uint(ft.RetryCount))
	maxDelay := 10 * time.Minute
	if delay > maxDelay {
		delay = maxDelay
	}
	return time.Now().Add(delay)
}

// ShouldRetry reports whether the sweeper may pick this record up.
func (ft *FailedTransaction) ShouldRetry() bool {
	return ft.Status == FailedTransactionStatusPending &&
		ft.RetryCount < ft.MaxRetries &&
		time.Now().After(ft.NextRetryAt)
}

// IncrementRetry records a failed sweep attempt and schedules the next.
func (ft *FailedTransaction) IncrementRetry(errorMsg string) {
	ft.RetryCount++
	ft.LastError = errorMsg
	ft.NextRetryAt = ft.CalculateNextRetryTime()

	if ft.RetryCount >= ft.MaxRetries {
		ft.Status = FailedTransactionStatusAbandoned
		now := time.Now()
		ft.ResolvedAt = &now
	}
}

// MarkAsRecovered closes the record after a successful resubmission.
func (ft *FailedTransaction) MarkAsRecovered(actualTxHash string) {
	ft.Status = FailedTransactionStatusRecovered
	ft.TxHash = actualTxHash
	now := time.Now()
	ft.ResolvedAt = &now
}
