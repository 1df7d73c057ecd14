package events

import (
	"fmt"
	"log"
	"time"

	"launchpad-backend/internal/clients"
)

// Subjects follow launchpad.<chainID>.<event>.
const (
	SubjectMintConfirmed  = "launchpad.%d.MintConfirmed"
	SubjectPhaseChanged   = "launchpad.%d.PhaseChanged"
	SubjectRootPublished  = "launchpad.%d.RootPublished"
	SubjectMetadataFrozen = "launchpad.%d.MetadataFrozen"
)

// MintConfirmedEvent is fanned out after every successful mint.
type MintConfirmedEvent struct {
	ChainID     int      `json:"chain_id"`
	Contract    string   `json:"contract"`
	Wallet      string   `json:"wallet"`
	PhaseID     uint64   `json:"phase_id"`
	Quantity    uint64   `json:"quantity"`
	TokenIDs    []uint64 `json:"token_ids"`
	TxHash      string   `json:"tx_hash,omitempty"`
	TotalSupply uint64   `json:"total_supply"`
	Timestamp   int64    `json:"timestamp"`
}

// PhaseChangedEvent signals phase create/update/remove to listeners.
type PhaseChangedEvent struct {
	ChainID   int    `json:"chain_id"`
	Contract  string `json:"contract"`
	PhaseID   uint64 `json:"phase_id"`
	Action    string `json:"action"` // created, updated, removed
	Timestamp int64  `json:"timestamp"`
}

// RootPublishedEvent signals a new allowlist commitment.
type RootPublishedEvent struct {
	ChainID      int    `json:"chain_id"`
	Contract     string `json:"contract"`
	PhaseID      uint64 `json:"phase_id"`
	MerkleRoot   string `json:"merkle_root"`
	TotalWallets int    `json:"total_wallets"`
	Timestamp    int64  `json:"timestamp"`
}

// Publisher fans launchpad events out over NATS. A nil Publisher is
// safe to call; events are just dropped, which keeps the backend
// usable without a broker in development.
type Publisher struct {
	nats    *clients.NATSClient
	chainID int
}

// NewPublisher wraps a NATS client for one chain.
func NewPublisher(natsClient *clients.NATSClient, chainID int) *Publisher {
	return &Publisher{nats: natsClient, chainID: chainID}
}

func (p *Publisher) publish(subjectFmt string, event interface{}) {
	if p == nil || p.nats == nil {
		return
	}
	subject := fmt.Sprintf(subjectFmt, p.chainID)
	if err := p.nats.Publish(subject, event); err != nil {
		log.Printf("⚠️ [Events] Failed to publish %s: %v", subject, err)
	}
}

// MintConfirmed publishes a mint fan-out event.
func (p *Publisher) MintConfirmed(event *MintConfirmedEvent) {
	event.ChainID = p.chainIDOrZero()
	event.Timestamp = time.Now().Unix()
	p.publish(SubjectMintConfirmed, event)
}

// PhaseChanged publishes a phase admin event.
func (p *Publisher) PhaseChanged(event *PhaseChangedEvent) {
	event.ChainID = p.chainIDOrZero()
	event.Timestamp = time.Now().Unix()
	p.publish(SubjectPhaseChanged, event)
}

// RootPublished publishes an allowlist root event.
func (p *Publisher) RootPublished(event *RootPublishedEvent) {
	event.ChainID = p.chainIDOrZero()
	event.Timestamp = time.Now().Unix()
	p.publish(SubjectRootPublished, event)
}

func (p *Publisher) chainIDOrZero() int {
	if p == nil {
		return 0
	}
	return p.chainID
}
