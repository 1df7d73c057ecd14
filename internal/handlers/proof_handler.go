package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"launchpad-backend/internal/dto"
	"launchpad-backend/internal/services"
	"launchpad-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ProofHandler serves the allowlist proof API: owners publish signed
// proof sets, minters fetch their individual proofs.
type ProofHandler struct {
	proofService *services.ProofService
	contract     string
	logger       *logrus.Logger
}

func NewProofHandler(proofService *services.ProofService, contract string, logger *logrus.Logger) *ProofHandler {
	return &ProofHandler{
		proofService: proofService,
		contract:     contract,
		logger:       logger,
	}
}

// PublishProofsHandler handles PUT /api/proofs/:phaseID.
// Authentication is the owner signature inside the payload, not a
// session token, so a dashboard can publish without backend credentials.
func (h *ProofHandler) PublishProofsHandler(c *gin.Context) {
	phaseID, err := strconv.ParseUint(c.Param("phaseID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid phase ID",
		})
		return
	}

	var req dto.PublishProofsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "ValidationError",
			"message": err.Error(),
		})
		return
	}

	resp, err := h.proofService.PublishProofs(c.Request.Context(), h.contract, phaseID, &req)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, services.ErrStaleSignature),
			errors.Is(err, services.ErrBadSignature),
			errors.Is(err, services.ErrProofsMismatch):
			status = http.StatusUnauthorized
		case errors.Is(err, services.ErrUnknownContract):
			status = http.StatusNotFound
		}

		h.logger.WithFields(logrus.Fields{
			"phase_id": phaseID,
			"error":    err.Error(),
		}).Warn("Proof publication rejected")

		c.JSON(status, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// WalletProofHandler handles GET /api/proofs/:phaseID/:wallet.
func (h *ProofHandler) WalletProofHandler(c *gin.Context) {
	phaseID, err := strconv.ParseUint(c.Param("phaseID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid phase ID",
		})
		return
	}

	wallet, err := utils.NormalizeAddress(c.Param("wallet"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid wallet address",
		})
		return
	}

	resp, err := h.proofService.GetWalletProof(c.Request.Context(), h.contract, phaseID, wallet)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "No published proofs for this phase",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}
