package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"launchpad-backend/internal/models"
)

// FailedTransactionRepository defines the interface for parked relay
// submissions awaiting the background sweeper
type FailedTransactionRepository interface {
	Create(ctx context.Context, ft *models.FailedTransaction) error
	Update(ctx context.Context, ft *models.FailedTransaction) error
	GetByID(ctx context.Context, id string) (*models.FailedTransaction, error)
	FindDue(ctx context.Context, limit int) ([]*models.FailedTransaction, error)
	CountByStatus(ctx context.Context, status models.FailedTransactionStatus) (int64, error)
}

type failedTransactionRepository struct {
	db *gorm.DB
}

// NewFailedTransactionRepository creates a new FailedTransactionRepository instance
func NewFailedTransactionRepository(db *gorm.DB) FailedTransactionRepository {
	return &failedTransactionRepository{db: db}
}

func (r *failedTransactionRepository) Create(ctx context.Context, ft *models.FailedTransaction) error {
	return r.db.WithContext(ctx).Create(ft).Error
}

func (r *failedTransactionRepository) Update(ctx context.Context, ft *models.FailedTransaction) error {
	return r.db.WithContext(ctx).Save(ft).Error
}

func (r *failedTransactionRepository) GetByID(ctx context.Context, id string) (*models.FailedTransaction, error) {
	var ft models.FailedTransaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ft).Error
	if err != nil {
		return nil, err
	}
	return &ft, nil
}

// FindDue returns pending records whose next retry time has passed,
// oldest first so starved records get picked up eventually.
func (r *failedTransactionRepository) FindDue(ctx context.Context, limit int) ([]*models.FailedTransaction, error) {
	var records []*models.FailedTransaction
	err := r.db.WithContext(ctx).
		Where("status = ? AND retry_count < max_retries AND next_retry_at <= ?",
			models.FailedTransactionStatusPending, time.Now()).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *failedTransactionRepository) CountByStatus(ctx context.Context, status models.FailedTransactionStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.FailedTransaction{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
