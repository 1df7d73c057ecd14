package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"launchpad-backend/internal/models"
)

// PendingTransactionRepository defines the interface for the outbound
// transaction queue
type PendingTransactionRepository interface {
	Create(ctx context.Context, pt *models.PendingTransaction) error
	Update(ctx context.Context, pt *models.PendingTransaction) error
	GetByID(ctx context.Context, id string) (*models.PendingTransaction, error)
	GetByTxHash(ctx context.Context, txHash string) (*models.PendingTransaction, error)
	FindByStatus(ctx context.Context, status models.PendingTransactionStatus, limit int) ([]*models.PendingTransaction, error)
	MarkConfirmed(ctx context.Context, id, txHash string) error
	MarkFailed(ctx context.Context, id, lastError string) error
}

type pendingTransactionRepository struct {
	db *gorm.DB
}

// NewPendingTransactionRepository creates a new PendingTransactionRepository instance
func NewPendingTransactionRepository(db *gorm.DB) PendingTransactionRepository {
	return &pendingTransactionRepository{db: db}
}

func (r *pendingTransactionRepository) Create(ctx context.Context, pt *models.PendingTransaction) error {
	return r.db.WithContext(ctx).Create(pt).Error
}

func (r *pendingTransactionRepository) Update(ctx context.Context, pt *models.PendingTransaction) error {
	return r.db.WithContext(ctx).Save(pt).Error
}

func (r *pendingTransactionRepository) GetByID(ctx context.Context, id string) (*models.PendingTransaction, error) {
	var pt models.PendingTransaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&pt).Error
	if err != nil {
		return nil, err
	}
	return &pt, nil
}

func (r *pendingTransactionRepository) GetByTxHash(ctx context.Context, txHash string) (*models.PendingTransaction, error) {
	var pt models.PendingTransaction
	err := r.db.WithContext(ctx).Where("tx_hash = ?", txHash).First(&pt).Error
	if err != nil {
		return nil, err
	}
	return &pt, nil
}

func (r *pendingTransactionRepository) FindByStatus(ctx context.Context, status models.PendingTransactionStatus, limit int) ([]*models.PendingTransaction, error) {
	var records []*models.PendingTransaction
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *pendingTransactionRepository) MarkConfirmed(ctx context.Context, id, txHash string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.PendingTransaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       models.PendingTransactionStatusConfirmed,
			"tx_hash":      txHash,
			"confirmed_at": &now,
		}).Error
}

func (r *pendingTransactionRepository) MarkFailed(ctx context.Context, id, lastError string) error {
	return r.db.WithContext(ctx).
		Model(&models.PendingTransaction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.PendingTransactionStatusFailed,
			"last_error": lastError,
		}).Error
}
