package router

import (
	"launchpad-backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupLaunchpadRoutes wires the launchpad API route table.
//
// Public routes serve the mint page; admin routes require both a JWT
// session and, for the network-sensitive group, the IP whitelist.
func SetupLaunchpadRoutes(r *gin.Engine, h *Handlers, localhostOnly *middleware.LocalhostOnly, adminAuth *middleware.AdminAuthMiddleware) {
	api := r.Group("/api")

	// ============ Public: collection state ============
	api.GET("/collection", h.Collection.SnapshotHandler)
	api.GET("/collection/phases", h.Collection.PhasesHandler)
	api.GET("/collection/phase/active", h.Collection.ActivePhaseHandler)
	api.GET("/collection/token/:id/uri", h.Collection.TokenURIHandler)
	api.GET("/collection/token/:id/owner", h.Collection.TokenOwnerHandler)

	// ============ Public: minting ============
	api.POST("/mint", h.Mint.MintIntentHandler)
	api.GET("/mint/quote", h.Mint.QuoteHandler)
	api.GET("/mint/activity", h.Mint.RecentActivityHandler)
	api.GET("/mint/history/:wallet", h.Mint.WalletHistoryHandler)

	// ============ Public: allowlist proofs ============
	// Publication is authenticated by the owner signature inside the
	// payload, not by a session token.
	api.GET("/proofs/:phaseID/:wallet", h.Proof.WalletProofHandler)
	api.PUT("/proofs/:phaseID", h.Proof.PublishProofsHandler)

	// ============ Public: site settings + live updates ============
	api.GET("/settings", h.Settings.GetSettingsHandler)
	api.GET("/ws", h.WebSocket.HandleWebSocket)
	api.GET("/ws/status", h.WebSocket.StatusHandler)

	// ============ Admin: login (IP-restricted) ============
	adminPublic := api.Group("/admin")
	adminPublic.Use(localhostOnly.Restrict())
	adminPublic.POST("/login", h.AdminAuth.AdminLoginHandler)
	adminPublic.POST("/totp/generate", h.AdminAuth.GenerateTOTPSecretHandler)

	// ============ Admin: authenticated operations ============
	admin := api.Group("/admin")
	admin.Use(localhostOnly.Restrict(), adminAuth.RequireAdminAuth())

	admin.POST("/phases", h.PhaseAdmin.CreatePhaseHandler)
	admin.PUT("/phases/:id", h.PhaseAdmin.UpdatePhaseHandler)
	admin.DELETE("/phases/:id", h.PhaseAdmin.RemovePhaseHandler)
	admin.POST("/phases/:id/allowlist", h.PhaseAdmin.SetAllowlistFlagsHandler)
	admin.POST("/phases/:id/root", h.PhaseAdmin.SetMerkleRootHandler)

	admin.POST("/pause", h.PhaseAdmin.PauseHandler(true))
	admin.POST("/unpause", h.PhaseAdmin.PauseHandler(false))
	admin.POST("/max-supply", h.PhaseAdmin.SetMaxSupplyHandler)
	admin.POST("/transfer-lock", h.PhaseAdmin.SetTransfersLockedHandler)
	admin.PUT("/base-uri", h.PhaseAdmin.SetBaseURIHandler)
	admin.PUT("/not-revealed-uri", h.PhaseAdmin.SetNotRevealedURIHandler)
	admin.POST("/withdraw", h.PhaseAdmin.WithdrawHandler(false))
	admin.POST("/withdraw-fees", h.PhaseAdmin.WithdrawHandler(true))
	admin.POST("/reveal", h.PhaseAdmin.RevealHandler)
	admin.POST("/freeze", h.PhaseAdmin.FreezeMetadataHandler)
	admin.POST("/transfer-ownership", h.PhaseAdmin.TransferOwnershipHandler)

	admin.PUT("/settings", h.Settings.UpdateSettingsHandler)
}
