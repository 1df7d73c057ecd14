package dto

// ==================== Mint DTOs ====================

// MintIntentRequest corresponds to the request body for /api/mint.
// The backend validates the intent against current collection state
// before relaying, so obviously doomed transactions never hit the chain.
type MintIntentRequest struct {
	Wallet   string   `json:"wallet" binding:"required"`
	Quantity uint64   `json:"quantity" binding:"required"`
	ValueWei string   `json:"value_wei" binding:"required"`
	Proof    []string `json:"proof"`
	ChainID  int      `json:"chain_id" binding:"required"`
}

// MintIntentResponse reports the relay outcome.
type MintIntentResponse struct {
	Success  bool     `json:"success"`
	TxHash   string   `json:"tx_hash,omitempty"`
	TokenIDs []uint64 `json:"token_ids,omitempty"`
	Reason   string   `json:"reason,omitempty"` // normalized failure code
	Detail   string   `json:"detail,omitempty"`
}

// MintQuoteResponse tells the client what a mint will cost right now.
type MintQuoteResponse struct {
	PhaseID      uint64 `json:"phase_id"`
	PhaseName    string `json:"phase_name"`
	PriceWei     string `json:"price_wei"`
	FeeWei       string `json:"fee_wei"`
	TotalWei     string `json:"total_wei"` // (price + fee) * quantity
	Quantity     uint64 `json:"quantity"`
	MaxPerWallet uint64 `json:"max_per_wallet"`
	Minted       uint64 `json:"minted"` // by this wallet in this phase
	Remaining    uint64 `json:"remaining_supply"`
	NeedsProof   bool   `json:"needs_proof"`
}
