package handlers

import (
	"errors"
	"math/big"
	"net/http"
	"strconv"

	"launchpad-backend/internal/config"
	"launchpad-backend/internal/dto"
	"launchpad-backend/internal/events"
	"launchpad-backend/internal/launchpad"
	"launchpad-backend/internal/services"
	"launchpad-backend/internal/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"github.com/sirupsen/logrus"
)

// PhaseAdminHandler is the operator API for phase lifecycle and
// collection administration. Every state change goes through the local
// collection first; the matching on-chain call is relayed best-effort
// and parked for the sweeper on failure.
type PhaseAdminHandler struct {
	collection *launchpad.Collection
	relay      *services.TransactionRelayService // nil in offline mode
	contract   common.Address
	publisher  *events.Publisher
	push       *services.WebSocketPushService
	logger     *logrus.Logger
}

func NewPhaseAdminHandler(
	collection *launchpad.Collection,
	relay *services.TransactionRelayService,
	contract common.Address,
	publisher *events.Publisher,
	push *services.WebSocketPushService,
	logger *logrus.Logger,
) *PhaseAdminHandler {
	return &PhaseAdminHandler{
		collection: collection,
		relay:      relay,
		contract:   contract,
		publisher:  publisher,
		push:       push,
		logger:     logger,
	}
}

// owner is the caller identity for admin mutations. The backend relay
// key is the collection owner, so a JWT-authenticated operator acts as
// the owner.
func (h *PhaseAdminHandler) owner() common.Address {
	return h.collection.Owner()
}

func (h *PhaseAdminHandler) phaseChanged(phaseID uint64, action string) {
	h.publisher.PhaseChanged(&events.PhaseChangedEvent{
		Contract: h.contract.Hex(),
		PhaseID:  phaseID,
		Action:   action,
	})
	if h.push != nil {
		h.push.Broadcast("phase_changed", gin.H{
			"phase_id": phaseID,
			"action":   action,
		})
	}
}

func parsePriceWei(raw string) (*big.Int, bool) {
	if raw == "" {
		return big.NewInt(0), true
	}
	price, ok := new(big.Int).SetString(raw, 10)
	if !ok || price.Sign() < 0 {
		return nil, false
	}
	return price, true
}

// CreatePhaseHandler handles POST /api/admin/phases.
func (h *PhaseAdminHandler) CreatePhaseHandler(c *gin.Context) {
	var req dto.PhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	price, ok := parsePriceWei(req.PriceWei)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid price_wei"})
		return
	}

	phaseID, err := h.collection.AddPhase(h.owner(), req.Name, req.StartTime, req.EndTime, price, req.MaxPerWallet)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if req.AllowlistEnabled {
		if err := h.collection.SetPhaseAllowlistEnabled(h.owner(), phaseID, true); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
	}

	h.logger.WithFields(logrus.Fields{
		"phase_id": phaseID,
		"name":     req.Name,
	}).Info("Phase created")
	h.phaseChanged(phaseID, "created")

	c.JSON(http.StatusOK, gin.H{"success": true, "phase_id": phaseID})
}

// UpdatePhaseHandler handles PUT /api/admin/phases/:id.
func (h *PhaseAdminHandler) UpdatePhaseHandler(c *gin.Context) {
	phaseID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid phase ID"})
		return
	}

	var req dto.PhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	price, ok := parsePriceWei(req.PriceWei)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid price_wei"})
		return
	}

	if err := h.collection.UpdatePhase(h.owner(), phaseID, req.Name, req.StartTime, req.EndTime, price, req.MaxPerWallet); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, launchpad.ErrPhaseNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := h.collection.SetPhaseAllowlistEnabled(h.owner(), phaseID, req.AllowlistEnabled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	h.phaseChanged(phaseID, "updated")
	c.JSON(http.StatusOK, gin.H{"success": true, "phase_id": phaseID})
}

// RemovePhaseHandler handles DELETE /api/admin/phases/:id.
func (h *PhaseAdminHandler) RemovePhaseHandler(c *gin.Context) {
	phaseID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid phase ID"})
		return
	}

	if err := h.collection.RemovePhase(h.owner(), phaseID); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, launchpad.ErrPhaseNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}

	h.phaseChanged(phaseID, "removed")
	c.JSON(http.StatusOK, gin.H{"success": true, "phase_id": phaseID})
}

// SetAllowlistFlagsHandler handles POST /api/admin/phases/:id/allowlist.
// Flags are the small-allowlist path; large allowlists go through the
// Merkle proof publication flow instead.
func (h *PhaseAdminHandler) SetAllowlistFlagsHandler(c *gin.Context) {
	phaseID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid phase ID"})
		return
	}

	var req dto.AllowlistFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	wallets, err := utils.NormalizeWallets(req.Wallets)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := h.collection.SetPhaseAllowlist(h.owner(), phaseID, wallets, req.Allowed); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, launchpad.ErrPhaseNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"phase_id": phaseID,
		"wallets":  len(wallets),
		"allowed":  req.Allowed,
	}).Info("Allowlist flags updated")

	c.JSON(http.StatusOK, gin.H{"success": true, "updated": len(wallets)})
}

// SetMerkleRootHandler handles POST /api/admin/phases/:id/root.
func (h *PhaseAdminHandler) SetMerkleRootHandler(c *gin.Context) {
	phaseID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid phase ID"})
		return
	}

	var req dto.SetRootRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	root := common.HexToHash(req.MerkleRoot)

	if err := h.collection.SetPhaseMerkleRoot(h.owner(), phaseID, root); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, launchpad.ErrPhaseNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}

	txHash := h.relayCall(c, "setPhaseMerkleRoot", func() ([]byte, error) {
		return services.BuildSetMerkleRootCallData(phaseID, root)
	})

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"phase_id": phaseID,
		"root":     root.Hex(),
		"tx_hash":  txHash,
	})
}

// PauseHandler handles POST /api/admin/pause and /api/admin/unpause.
func (h *PhaseAdminHandler) PauseHandler(paused bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var err error
		if paused {
			err = h.collection.Pause(h.owner())
		} else {
			err = h.collection.Unpause(h.owner())
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}

		txHash := h.relayCall(c, "setPaused", func() ([]byte, error) {
			return services.BuildSetPausedCallData(paused), nil
		})

		h.logger.WithFields(logrus.Fields{"paused": paused}).Info("Minting pause state changed")
		c.JSON(http.StatusOK, gin.H{"success": true, "paused": paused, "tx_hash": txHash})
	}
}

// SetMaxSupplyHandler handles POST /api/admin/max-supply.
// Supply can only ratchet down, never up past what was promised.
func (h *PhaseAdminHandler) SetMaxSupplyHandler(c *gin.Context) {
	var req struct {
		MaxSupply uint64 `json:"max_supply" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := h.collection.SetMaxSupply(h.owner(), req.MaxSupply); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "max_supply": req.MaxSupply})
}

// SetTransfersLockedHandler handles POST /api/admin/transfer-lock.
func (h *PhaseAdminHandler) SetTransfersLockedHandler(c *gin.Context) {
	var req struct {
		Locked bool `json:"locked"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := h.collection.SetTransfersLocked(h.owner(), req.Locked); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "transfers_locked": req.Locked})
}

// SetBaseURIHandler handles PUT /api/admin/base-uri.
func (h *PhaseAdminHandler) SetBaseURIHandler(c *gin.Context) {
	var req struct {
		BaseURI string `json:"base_uri" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := h.collection.SetBaseURI(h.owner(), req.BaseURI); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, launchpad.ErrMetadataFrozen) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SetNotRevealedURIHandler handles PUT /api/admin/not-revealed-uri.
func (h *PhaseAdminHandler) SetNotRevealedURIHandler(c *gin.Context) {
	var req struct {
		NotRevealedURI string `json:"not_revealed_uri" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := h.collection.SetNotRevealedURI(h.owner(), req.NotRevealedURI); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, launchpad.ErrMetadataFrozen) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// WithdrawHandler handles POST /api/admin/withdraw and
// /api/admin/withdraw-fees. Withdrawal only moves the local accrual
// counters; the on-chain withdraw is a manual owner action.
func (h *PhaseAdminHandler) WithdrawHandler(fees bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var amount *big.Int
		var err error
		if fees {
			amount, err = h.collection.WithdrawFees(h.owner())
		} else {
			amount, err = h.collection.Withdraw(h.owner())
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}

		h.logger.WithFields(logrus.Fields{
			"amount_wei": amount.String(),
			"fees":       fees,
		}).Info("Balance withdrawn")

		c.JSON(http.StatusOK, gin.H{"success": true, "amount_wei": amount.String()})
	}
}

// RevealHandler handles POST /api/admin/reveal.
func (h *PhaseAdminHandler) RevealHandler(c *gin.Context) {
	if err := h.collection.SetRevealed(h.owner(), true); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, launchpad.ErrMetadataFrozen) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}

	if h.push != nil {
		h.push.Broadcast("revealed", gin.H{"contract": h.contract.Hex()})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "revealed": true})
}

// FreezeMetadataHandler handles POST /api/admin/freeze.
// Freezing is one-way, so it demands a fresh TOTP code on top of the
// session JWT.
func (h *PhaseAdminHandler) FreezeMetadataHandler(c *gin.Context) {
	var req dto.TOTPConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if !h.validTOTP(req.TOTPCode) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid TOTP code"})
		return
	}

	if err := h.collection.FreezeMetadata(h.owner()); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, launchpad.ErrAlreadyFrozen) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}

	txHash := h.relayCall(c, "freezeMetadata", func() ([]byte, error) {
		return services.BuildFreezeMetadataCallData(), nil
	})

	h.logger.Warn("Metadata frozen - this is irreversible")
	c.JSON(http.StatusOK, gin.H{"success": true, "frozen": true, "tx_hash": txHash})
}

// TransferOwnershipHandler handles POST /api/admin/transfer-ownership.
// TOTP-gated like freeze; the new owner is read back after the write to
// confirm the change took effect.
func (h *PhaseAdminHandler) TransferOwnershipHandler(c *gin.Context) {
	var req dto.TransferOwnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if !h.validTOTP(req.TOTPCode) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid TOTP code"})
		return
	}

	newOwner, err := utils.ParseAddress(req.NewOwner)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid new owner address"})
		return
	}

	if err := h.collection.TransferOwnership(h.owner(), newOwner); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	txHash := h.relayCall(c, "transferOwnership", func() ([]byte, error) {
		return services.BuildTransferOwnershipCallData(newOwner)
	})

	// Read back and confirm before reporting success.
	if got := h.collection.Owner(); got != newOwner {
		h.logger.WithFields(logrus.Fields{
			"expected": newOwner.Hex(),
			"actual":   got.Hex(),
		}).Error("Ownership transfer verification failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Ownership transfer did not take effect",
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"new_owner": newOwner.Hex(),
	}).Warn("Collection ownership transferred")

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"new_owner": newOwner.Hex(),
		"tx_hash":   txHash,
	})
}

func (h *PhaseAdminHandler) validTOTP(code string) bool {
	if config.AppConfig == nil || config.AppConfig.Admin.TOTPSecret == "" {
		return false
	}
	return totp.Validate(code, config.AppConfig.Admin.TOTPSecret)
}

// relayCall relays an admin mutation on-chain. Failures are logged and
// parked by the relay; the local state change already happened and is
// authoritative, so the handler reports success with an empty tx hash.
func (h *PhaseAdminHandler) relayCall(c *gin.Context, method string, build func() ([]byte, error)) string {
	if h.relay == nil {
		return ""
	}

	callData, err := build()
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"method": method,
			"error":  err.Error(),
		}).Error("Failed to build call data")
		return ""
	}

	tx, err := h.relay.SendContractTx(c.Request.Context(), method, h.contract, callData, big.NewInt(0))
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"method": method,
			"error":  err.Error(),
		}).Warn("On-chain relay failed, parked for retry sweeper")
		return ""
	}

	return tx.Hash().Hex()
}
