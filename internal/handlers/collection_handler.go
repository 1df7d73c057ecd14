package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"launchpad-backend/internal/launchpad"
	"launchpad-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// CollectionHandler serves read-only collection state to the mint page.
type CollectionHandler struct {
	collection *launchpad.Collection
	push       *services.WebSocketPushService
	contract   string
	chainID    int
}

func NewCollectionHandler(collection *launchpad.Collection, push *services.WebSocketPushService, contract string, chainID int) *CollectionHandler {
	return &CollectionHandler{
		collection: collection,
		push:       push,
		contract:   contract,
		chainID:    chainID,
	}
}

// SnapshotHandler handles GET /api/collection.
func (h *CollectionHandler) SnapshotHandler(c *gin.Context) {
	state := h.collection.Snapshot()

	connected := 0
	if h.push != nil {
		connected = h.push.ClientCount()
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"contract":          h.contract,
		"chain_id":          h.chainID,
		"state":             state,
		"connected_clients": connected,
	})
}

// PhasesHandler handles GET /api/collection/phases.
func (h *CollectionHandler) PhasesHandler(c *gin.Context) {
	phases := h.collection.Phases()

	out := make([]gin.H, 0, len(phases))
	for _, p := range phases {
		out = append(out, gin.H{
			"id":                p.ID,
			"name":              p.Name,
			"start_time":        p.StartTime,
			"end_time":          p.EndTime,
			"price_wei":         p.Price.String(),
			"max_per_wallet":    p.MaxPerWallet,
			"allowlist_enabled": p.AllowlistEnabled,
			"allowlist_root":    p.AllowlistRoot.Hex(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"phases":  out,
	})
}

// ActivePhaseHandler handles GET /api/collection/phase/active.
func (h *CollectionHandler) ActivePhaseHandler(c *gin.Context) {
	phase, err := h.collection.ActivePhase()
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"active":  false,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"active":  true,
		"phase": gin.H{
			"id":                phase.ID,
			"name":              phase.Name,
			"start_time":        phase.StartTime,
			"end_time":          phase.EndTime,
			"price_wei":         phase.Price.String(),
			"max_per_wallet":    phase.MaxPerWallet,
			"allowlist_enabled": phase.AllowlistEnabled,
			"allowlist_root":    phase.AllowlistRoot.Hex(),
		},
	})
}

// TokenURIHandler handles GET /api/collection/token/:id/uri.
func (h *CollectionHandler) TokenURIHandler(c *gin.Context) {
	tokenID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid token ID",
		})
		return
	}

	uri, err := h.collection.TokenURI(tokenID)
	if err != nil {
		if errors.Is(err, launchpad.ErrUnknownToken) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "Token does not exist",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"token_id": tokenID,
		"uri":      uri,
	})
}

// TokenOwnerHandler handles GET /api/collection/token/:id/owner.
func (h *CollectionHandler) TokenOwnerHandler(c *gin.Context) {
	tokenID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid token ID",
		})
		return
	}

	owner, err := h.collection.OwnerOf(tokenID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "Token does not exist",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"token_id": tokenID,
		"owner":    owner.Hex(),
	})
}
