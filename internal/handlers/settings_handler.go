package handlers

import (
	"errors"
	"net/http"

	"launchpad-backend/internal/dto"
	"launchpad-backend/internal/models"
	"launchpad-backend/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SettingsHandler serves the per-collection display configuration used
// by the mint page. Writes are last-write-wins by the client-supplied
// timestamp so two dashboard tabs cannot silently clobber each other.
type SettingsHandler struct {
	settingsRepo repository.SettingsRepository
	contract     string
	logger       *logrus.Logger
}

func NewSettingsHandler(settingsRepo repository.SettingsRepository, contract string, logger *logrus.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsRepo: settingsRepo,
		contract:     contract,
		logger:       logger,
	}
}

// GetSettingsHandler handles GET /api/settings.
func (h *SettingsHandler) GetSettingsHandler(c *gin.Context) {
	settings, err := h.settingsRepo.GetByContract(c.Request.Context(), h.contract)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{
				"success":  true,
				"settings": nil,
			})
			return
		}
		h.logger.WithError(err).Error("Failed to load site settings")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to load settings",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"settings": settings,
	})
}

// UpdateSettingsHandler handles PUT /api/admin/settings.
func (h *SettingsHandler) UpdateSettingsHandler(c *gin.Context) {
	var req dto.SiteSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	existing, err := h.settingsRepo.GetByContract(c.Request.Context(), h.contract)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		h.logger.WithError(err).Error("Failed to load site settings for update")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to load settings",
		})
		return
	}

	// Last write wins. A client writing with an older timestamp than
	// the stored row lost the race and is told so.
	if existing != nil && existing.UpdatedAtUnix > req.UpdatedAtUnix {
		c.JSON(http.StatusConflict, gin.H{
			"success":         false,
			"error":           "Settings were updated by another session",
			"code":            "STALE_WRITE",
			"current_version": existing.UpdatedAtUnix,
		})
		return
	}

	updatedBy, _ := c.Get("admin_username")
	username, _ := updatedBy.(string)

	settings := &models.SiteSettings{
		ContractAddress: h.contract,
		Title:           req.Title,
		Description:     req.Description,
		BannerURL:       req.BannerURL,
		ThemeColor:      req.ThemeColor,
		SocialLinks:     req.SocialLinks,
		UpdatedAtUnix:   req.UpdatedAtUnix,
		UpdatedBy:       username,
	}

	if err := h.settingsRepo.Upsert(c.Request.Context(), settings); err != nil {
		h.logger.WithError(err).Error("Failed to save site settings")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to save settings",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"settings": settings,
	})
}
