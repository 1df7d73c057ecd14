package models

import (
	"time"
)

// ProofFile stores a published allowlist proof set for one phase of a
// collection. The proofs blob is the JSON wallet->proof map produced at
// tree build time; ProofsHash commits to it so readers can detect
// corruption or tampering.
type ProofFile struct {
	ID              uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ContractAddress string    `json:"contract_address" gorm:"size:42;not null;uniqueIndex:idx_proof_contract_phase"`
	PhaseID         uint64    `json:"phase_id" gorm:"not null;uniqueIndex:idx_proof_contract_phase"`
	MerkleRoot      string    `json:"merkle_root" gorm:"size:66;not null"`
	TotalWallets    int       `json:"total_wallets" gorm:"not null"`
	Proofs          string    `json:"proofs" gorm:"type:text;not null"` // JSON: wallet -> []hash
	ProofsHash      string    `json:"proofs_hash" gorm:"size:66;not null"`
	GeneratedAt     int64     `json:"generated_at" gorm:"not null"` // unix seconds, signed by publisher
	PublishedBy     string    `json:"published_by" gorm:"size:42"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SiteSettings is the per-collection display configuration pushed by
// the dashboard. Last write wins; UpdatedAtUnix carries the writer's
// timestamp for staleness checks.
type SiteSettings struct {
	ID              uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ContractAddress string    `json:"contract_address" gorm:"size:42;not null;uniqueIndex"`
	Title           string    `json:"title" gorm:"size:200"`
	Description     string    `json:"description" gorm:"type:text"`
	BannerURL       string    `json:"banner_url" gorm:"size:500"`
	ThemeColor      string    `json:"theme_color" gorm:"size:20"`
	SocialLinks     string    `json:"social_links" gorm:"type:text"` // JSON object
	UpdatedAtUnix   int64     `json:"updated_at_unix"`
	UpdatedBy       string    `json:"updated_by" gorm:"size:42"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// MintRecord is one confirmed mint, kept for the activity feed and
// per-wallet history queries.
type MintRecord struct {
	ID              string    `json:"id" gorm:"primaryKey"` // UUID
	ContractAddress string    `json:"contract_address" gorm:"size:42;not null;index"`
	Wallet          string    `json:"wallet" gorm:"size:42;not null;index"`
	PhaseID         uint64    `json:"phase_id" gorm:"not null"`
	Quantity        uint64    `json:"quantity" gorm:"not null"`
	TokenIDs        string    `json:"token_ids" gorm:"type:text"` // JSON array
	TxHash          string    `json:"tx_hash" gorm:"size:66;index"`
	ValueWei        string    `json:"value_wei" gorm:"size:78"`
	CreatedAt       time.Time `json:"created_at"`
}
