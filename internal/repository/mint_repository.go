package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"launchpad-backend/internal/models"
)

// MintRepository defines the interface for mint activity access
type MintRepository interface {
	Create(ctx context.Context, record *models.MintRecord) error
	FindRecent(ctx context.Context, contract string, limit int) ([]*models.MintRecord, error)
	FindByWallet(ctx context.Context, contract, wallet string, page, pageSize int) ([]*models.MintRecord, int64, error)
}

type mintRepository struct {
	db *gorm.DB
}

// NewMintRepository creates a new MintRepository instance
func NewMintRepository(db *gorm.DB) MintRepository {
	return &mintRepository{db: db}
}

func (r *mintRepository) Create(ctx context.Context, record *models.MintRecord) error {
	record.ContractAddress = strings.ToLower(record.ContractAddress)
	record.Wallet = strings.ToLower(record.Wallet)
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *mintRepository) FindRecent(ctx context.Context, contract string, limit int) ([]*models.MintRecord, error) {
	var records []*models.MintRecord
	err := r.db.WithContext(ctx).
		Where("contract_address = ?", strings.ToLower(contract)).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *mintRepository) FindByWallet(ctx context.Context, contract, wallet string, page, pageSize int) ([]*models.MintRecord, int64, error) {
	var records []*models.MintRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&models.MintRecord{}).
		Where("contract_address = ? AND wallet = ?", strings.ToLower(contract), strings.ToLower(wallet))
	query.Count(&total)

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
