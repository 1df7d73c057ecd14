package dto

// ==================== Proof DTOs ====================

// PublishProofsRequest corresponds to the request body for
// PUT /api/proofs/:contract/:phase. The signature covers
// keccak256(contract | phaseId | merkleRoot | totalWallets | proofsHash | generatedAt)
// and must come from the collection owner.
type PublishProofsRequest struct {
	MerkleRoot   string              `json:"merkle_root" binding:"required"`
	TotalWallets int                 `json:"total_wallets" binding:"required"`
	Proofs       map[string][]string `json:"proofs" binding:"required"` // wallet -> proof hashes
	GeneratedAt  int64               `json:"generated_at" binding:"required"`
	Signature    string              `json:"signature" binding:"required"` // hex, 65 bytes
}

// PublishProofsResponse echoes what was stored.
type PublishProofsResponse struct {
	ContractAddress string `json:"contract_address"`
	PhaseID         uint64 `json:"phase_id"`
	MerkleRoot      string `json:"merkle_root"`
	TotalWallets    int    `json:"total_wallets"`
	ProofsHash      string `json:"proofs_hash"`
	PublishedBy     string `json:"published_by"`
}

// WalletProofResponse is returned to minters looking up their own proof.
type WalletProofResponse struct {
	Wallet     string   `json:"wallet"`
	PhaseID    uint64   `json:"phase_id"`
	MerkleRoot string   `json:"merkle_root"`
	Proof      []string `json:"proof"`
	Eligible   bool     `json:"eligible"`
}
