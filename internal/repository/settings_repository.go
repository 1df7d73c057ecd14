package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"launchpad-backend/internal/models"
)

// SettingsRepository defines the interface for site settings access
type SettingsRepository interface {
	Upsert(ctx context.Context, settings *models.SiteSettings) error
	GetByContract(ctx context.Context, contract string) (*models.SiteSettings, error)
}

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new SettingsRepository instance
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Upsert(ctx context.Context, settings *models.SiteSettings) error {
	settings.ContractAddress = strings.ToLower(settings.ContractAddress)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "contract_address"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "description", "banner_url", "theme_color",
			"social_links", "updated_at_unix", "updated_by", "updated_at",
		}),
	}).Create(settings).Error
}

func (r *settingsRepository) GetByContract(ctx context.Context, contract string) (*models.SiteSettings, error) {
	var settings models.SiteSettings
	err := r.db.WithContext(ctx).
		Where("contract_address = ?", strings.ToLower(contract)).
		First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}
