package handlers

import (
	"net/http"
	"strconv"

	"launchpad-backend/internal/dto"
	"launchpad-backend/internal/repository"
	"launchpad-backend/internal/services"
	"launchpad-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MintHandler exposes the mint intent pipeline and the activity feed.
type MintHandler struct {
	mintService *services.MintService
	mintRepo    repository.MintRepository
	contract    string
	logger      *logrus.Logger
}

func NewMintHandler(mintService *services.MintService, mintRepo repository.MintRepository, contract string, logger *logrus.Logger) *MintHandler {
	return &MintHandler{
		mintService: mintService,
		mintRepo:    mintRepo,
		contract:    contract,
		logger:      logger,
	}
}

// MintIntentHandler handles POST /api/mint.
// Validation failures come back as 200 with a reason code; the client
// distinguishes "the chain said no" from "the request was malformed".
func (h *MintHandler) MintIntentHandler(c *gin.Context) {
	var req dto.MintIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "ValidationError",
			"message": err.Error(),
		})
		return
	}

	resp, err := h.mintService.ProcessMintIntent(c.Request.Context(), &req)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"wallet": req.Wallet,
			"error":  err.Error(),
		}).Error("Mint intent processing failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Internal error processing mint intent",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// QuoteHandler handles GET /api/mint/quote?wallet=0x..&quantity=N.
func (h *MintHandler) QuoteHandler(c *gin.Context) {
	walletParam := c.Query("wallet")
	wallet, err := utils.ParseAddress(walletParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid wallet address",
		})
		return
	}

	quantity, err := strconv.ParseUint(c.DefaultQuery("quantity", "1"), 10, 64)
	if err != nil || quantity == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid quantity",
		})
		return
	}

	quote, err := h.mintService.Quote(wallet, quantity)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"quote":   quote,
	})
}

// RecentActivityHandler handles GET /api/mint/activity.
func (h *MintHandler) RecentActivityHandler(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}

	records, err := h.mintRepo.FindRecent(c.Request.Context(), h.contract, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query recent mint activity")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to query mint activity",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"mints":   records,
	})
}

// WalletHistoryHandler handles GET /api/mint/history/:wallet.
func (h *MintHandler) WalletHistoryHandler(c *gin.Context) {
	wallet, err := utils.NormalizeAddress(c.Param("wallet"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid wallet address",
		})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	records, total, err := h.mintRepo.FindByWallet(c.Request.Context(), h.contract, wallet, page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query wallet mint history")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to query mint history",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"mints":     records,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
