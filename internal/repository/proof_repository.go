package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"launchpad-backend/internal/models"
)

// ProofRepository defines the interface for published proof set access
type ProofRepository interface {
	Upsert(ctx context.Context, file *models.ProofFile) error
	GetByContractPhase(ctx context.Context, contract string, phaseID uint64) (*models.ProofFile, error)
	ListByContract(ctx context.Context, contract string) ([]*models.ProofFile, error)
	Delete(ctx context.Context, contract string, phaseID uint64) error
}

type proofRepository struct {
	db *gorm.DB
}

// NewProofRepository creates a new ProofRepository instance
func NewProofRepository(db *gorm.DB) ProofRepository {
	return &proofRepository{db: db}
}

// Upsert replaces the stored proof set for (contract, phase). Publishing
// is last-write-wins at this layer; staleness is enforced by the handler.
func (r *proofRepository) Upsert(ctx context.Context, file *models.ProofFile) error {
	file.ContractAddress = strings.ToLower(file.ContractAddress)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "contract_address"}, {Name: "phase_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"merkle_root", "total_wallets", "proofs", "proofs_hash",
			"generated_at", "published_by", "updated_at",
		}),
	}).Create(file).Error
}

func (r *proofRepository) GetByContractPhase(ctx context.Context, contract string, phaseID uint64) (*models.ProofFile, error) {
	var file models.ProofFile
	err := r.db.WithContext(ctx).
		Where("contract_address = ? AND phase_id = ?", strings.ToLower(contract), phaseID).
		First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *proofRepository) ListByContract(ctx context.Context, contract string) ([]*models.ProofFile, error) {
	var files []*models.ProofFile
	err := r.db.WithContext(ctx).
		Where("contract_address = ?", strings.ToLower(contract)).
		Order("phase_id ASC").
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (r *proofRepository) Delete(ctx context.Context, contract string, phaseID uint64) error {
	return r.db.WithContext(ctx).
		Where("contract_address = ? AND phase_id = ?", strings.ToLower(contract), phaseID).
		Delete(&models.ProofFile{}).Error
}
