package models

import (
	"time"
)

// Transaction queue status
type PendingTransactionStatus string

const (
	PendingTransactionStatusQueued    PendingTransactionStatus = "queued"
	PendingTransactionStatusSent      PendingTransactionStatus = "sent"
	PendingTransactionStatusConfirmed PendingTransactionStatus = "confirmed"
	PendingTransactionStatusFailed    PendingTransactionStatus = "failed"
)

// PendingTransaction tracks an outbound contract call through the
// relay: queued, broadcast, then confirmed or failed.
type PendingTransaction struct {
	ID       string                   `json:"id" gorm:"primaryKey"` // UUID
	ChainID  int                      `json:"chain_id" gorm:"not null;index"`
	Contract string                   `json:"contract" gorm:"size:42;not null"`
	Method   string                   `json:"method" gorm:"size:64;not null"`
	CallData string                   `json:"call_data" gorm:"type:text"`
	ValueWei string                   `json:"value_wei" gorm:"size:78"`
	Status   PendingTransactionStatus `json:"status" gorm:"not null;default:queued;index"`

	TxHash   string `json:"tx_hash" gorm:"size:66;index"`
	Nonce    uint64 `json:"nonce"`
	GasLimit uint64 `json:"gas_limit"`

	LastError string `json:"last_error" gorm:"type:text"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ConfirmedAt *time.Time `json:"confirmed_at"`
}
