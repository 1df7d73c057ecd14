package dto

// ==================== Admin DTOs ====================

// AdminLoginRequest corresponds to /api/admin/login.
type AdminLoginRequest struct {
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totp_code" binding:"required"`
}

// AdminLoginResponse carries the session JWT.
type AdminLoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
}

// PhaseRequest is the admin payload for creating or updating a phase.
type PhaseRequest struct {
	Name             string `json:"name" binding:"required"`
	StartTime        uint64 `json:"start_time"`
	EndTime          uint64 `json:"end_time"` // 0 = open-ended
	PriceWei         string `json:"price_wei"`
	MaxPerWallet     uint64 `json:"max_per_wallet"`
	AllowlistEnabled bool   `json:"allowlist_enabled"`
}

// AllowlistFlagRequest flags or unflags wallets on-chain for a phase.
type AllowlistFlagRequest struct {
	Wallets []string `json:"wallets" binding:"required"`
	Allowed bool     `json:"allowed"`
}

// SetRootRequest sets a phase's Merkle root.
type SetRootRequest struct {
	MerkleRoot string `json:"merkle_root" binding:"required"`
}

// TOTPConfirmRequest guards irreversible admin operations with a
// fresh one-time code on top of the session JWT.
type TOTPConfirmRequest struct {
	TOTPCode string `json:"totp_code" binding:"required"`
}

// TransferOwnershipRequest hands the collection to a new owner.
type TransferOwnershipRequest struct {
	NewOwner string `json:"new_owner" binding:"required"`
	TOTPCode string `json:"totp_code" binding:"required"`
}

// SiteSettingsRequest is the dashboard's display configuration write.
// UpdatedAtUnix implements last-write-wins between concurrent editors.
type SiteSettingsRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	BannerURL     string `json:"banner_url"`
	ThemeColor    string `json:"theme_color"`
	SocialLinks   string `json:"social_links"`
	UpdatedAtUnix int64  `json:"updated_at_unix" binding:"required"`
}
