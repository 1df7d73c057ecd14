package app

import (
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"launchpad-backend/internal/clients"
	"launchpad-backend/internal/config"
	"launchpad-backend/internal/db"
	"launchpad-backend/internal/events"
	"launchpad-backend/internal/launchpad"
	"launchpad-backend/internal/repository"
	"launchpad-backend/internal/retry"
	"launchpad-backend/internal/services"
	"launchpad-backend/internal/utils"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// ServiceContainer wires the launchpad backend together: collection
// state machine, repositories, RPC/relay plumbing, and the push and
// event fan-out services.
type ServiceContainer struct {
	// Database
	DB *gorm.DB

	// Repositories
	ProofRepo     repository.ProofRepository
	SettingsRepo  repository.SettingsRepository
	MintRepo      repository.MintRepository
	FailedTxRepo  repository.FailedTransactionRepository
	PendingTxRepo repository.PendingTransactionRepository

	// Collection state machine
	Collection *launchpad.Collection
	Contract   common.Address
	ChainID    int

	// Chain plumbing
	RPCClient    *clients.RPCClient
	RelayService *services.TransactionRelayService

	// Core Services
	MintService  *services.MintService
	ProofService *services.ProofService
	RetryService *services.FailedTransactionRetryService

	// Event & Push Services
	NATSClient           *clients.NATSClient
	EventPublisher       *events.Publisher
	WebSocketPushService *services.WebSocketPushService

	natsOnce sync.Once
}

// Global service container instance
var Container *ServiceContainer
var containerOnce sync.Once

// InitializeContainer builds the container once. networkName selects
// which blockchain.networks entry the backend serves.
func InitializeContainer(networkName string) (*ServiceContainer, error) {
	var initErr error

	containerOnce.Do(func() {
		log.Println("🚀 Initializing Service Container...")

		container := &ServiceContainer{
			DB: db.DB,
		}

		if err := container.initRepositories(); err != nil {
			initErr = fmt.Errorf("failed to initialize repositories: %w", err)
			return
		}

		if err := container.initCollection(); err != nil {
			initErr = fmt.Errorf("failed to initialize collection: %w", err)
			return
		}

		if err := container.initChainServices(networkName); err != nil {
			// The collection state machine still works without a chain
			// connection; relayed calls are parked by the sweeper.
			log.Printf("⚠️ Chain services initialization skipped or failed: %v", err)
		}

		if err := container.initEventServices(); err != nil {
			log.Printf("⚠️ Event services initialization skipped or failed: %v", err)
		}

		container.initCoreServices()

		Container = container
		log.Println("✅ Service Container initialized successfully")
	})

	return Container, initErr
}

func (c *ServiceContainer) initRepositories() error {
	log.Println("📦 Initializing Repositories...")

	c.ProofRepo = repository.NewProofRepository(c.DB)
	c.SettingsRepo = repository.NewSettingsRepository(c.DB)
	c.MintRepo = repository.NewMintRepository(c.DB)
	c.FailedTxRepo = repository.NewFailedTransactionRepository(c.DB)
	c.PendingTxRepo = repository.NewPendingTransactionRepository(c.DB)

	log.Println("✅ Repositories initialized")
	return nil
}

func (c *ServiceContainer) initCollection() error {
	log.Println("🔧 Initializing Collection state machine...")

	lp := config.AppConfig.Launchpad

	owner, err := utils.ParseAddress(lp.Owner)
	if err != nil {
		return fmt.Errorf("invalid launchpad.owner: %w", err)
	}

	fee := big.NewInt(0)
	if lp.LaunchpadFee != "" {
		parsed, ok := new(big.Int).SetString(lp.LaunchpadFee, 10)
		if !ok {
			return fmt.Errorf("invalid launchpad.launchpadFee: %s", lp.LaunchpadFee)
		}
		fee = parsed
	}

	var feeRecipient common.Address
	if lp.FeeRecipient != "" {
		feeRecipient, err = utils.ParseAddress(lp.FeeRecipient)
		if err != nil {
			return fmt.Errorf("invalid launchpad.feeRecipient: %w", err)
		}
	}

	collection, err := launchpad.NewCollection(launchpad.Config{
		Name:           lp.Name,
		Symbol:         lp.Symbol,
		Owner:          owner,
		MaxSupply:      lp.MaxSupply,
		BaseURI:        lp.BaseURI,
		NotRevealedURI: lp.NotRevealedURI,
		LaunchpadFee:   fee,
		FeeRecipient:   feeRecipient,
	})
	if err != nil {
		return err
	}

	c.Collection = collection
	log.Printf("✅ Collection initialized: %s (%s), max supply %d", lp.Name, lp.Symbol, lp.MaxSupply)
	return nil
}

func (c *ServiceContainer) initChainServices(networkName string) error {
	network, err := config.GetNetworkConfig(networkName)
	if err != nil {
		return err
	}

	contract, err := utils.ParseAddress(network.CollectionContract)
	if err != nil {
		return fmt.Errorf("invalid collection contract address: %w", err)
	}
	c.Contract = contract
	c.ChainID = network.ChainID

	relayCfg := config.AppConfig.Relay
	readPolicy := retry.Policy{
		MaxAttempts: relayCfg.ReadMaxAttempts,
		Backoff:     time.Duration(relayCfg.ReadBackoffMs) * time.Millisecond,
		Retryable:   retry.IsRetryable,
	}

	rpcClient, err := clients.NewRPCClient(
		network.RPCEndpoints,
		time.Duration(relayCfg.RPCTimeoutSec)*time.Second,
		readPolicy,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize RPC client: %w", err)
	}
	c.RPCClient = rpcClient

	if network.PrivateKey == "" {
		return fmt.Errorf("no private key configured for network %s", networkName)
	}

	relay, err := services.NewTransactionRelayService(
		rpcClient.Backend(),
		big.NewInt(int64(network.ChainID)),
		relayCfg,
		network.PrivateKey,
		c.PendingTxRepo,
		c.FailedTxRepo,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize relay: %w", err)
	}
	c.RelayService = relay

	log.Printf("✅ Chain services initialized: network=%s chainID=%d relayer=%s",
		networkName, network.ChainID, relay.From().Hex())
	return nil
}

func (c *ServiceContainer) initEventServices() error {
	if config.AppConfig == nil || config.AppConfig.NATS.URL == "" {
		return fmt.Errorf("NATS not configured")
	}

	if err := c.InitNATSClient(); err != nil {
		return fmt.Errorf("failed to initialize NATS client: %w", err)
	}

	c.EventPublisher = events.NewPublisher(c.NATSClient, c.ChainID)
	return nil
}

func (c *ServiceContainer) initCoreServices() {
	log.Println("🔧 Initializing Core Services...")

	c.WebSocketPushService = services.NewWebSocketPushService()

	c.MintService = services.NewMintService(
		c.Collection,
		c.Contract,
		c.ChainID,
		c.RelayService,
		c.MintRepo,
		c.EventPublisher,
		c.WebSocketPushService,
	)

	c.ProofService = services.NewProofService(
		c.Collection,
		c.Contract,
		c.ChainID,
		c.ProofRepo,
		c.RelayService,
		c.EventPublisher,
	)

	if c.RelayService != nil {
		c.RetryService = services.NewFailedTransactionRetryService(c.FailedTxRepo, c.RelayService)
		c.RetryService.Start()
		log.Printf("✅ [ServiceContainer] Failed transaction retry sweeper started")
	}

	log.Println("✅ Core Services initialized")
}

// InitNATSClient connects to NATS once.
func (c *ServiceContainer) InitNATSClient() error {
	var initErr error

	c.natsOnce.Do(func() {
		log.Println("🔌 Connecting to NATS...")

		natsURL := config.AppConfig.NATS.URL
		natsClient, err := clients.NewNATSClient(natsURL)
		if err != nil {
			log.Printf("❌ Failed to connect to NATS at %s: %v", natsURL, err)
			log.Printf("   → Please ensure NATS server is running on port 4222 (or configured port)")
			initErr = fmt.Errorf("failed to create NATS client: %w", err)
			return
		}

		c.NATSClient = natsClient
		log.Printf("✅ NATS client connected: %s", natsURL)
	})

	return initErr
}

// Cleanup stops background services and closes connections.
func (c *ServiceContainer) Cleanup() {
	log.Println("🧹 Cleaning up Service Container...")

	if c.RetryService != nil {
		c.RetryService.Stop()
	}

	if c.NATSClient != nil {
		c.NATSClient.Close()
	}

	if c.RPCClient != nil {
		c.RPCClient.Close()
	}

	log.Println("✅ Service Container cleaned up")
}
