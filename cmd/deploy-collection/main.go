package main

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"os"
	"time"

	"launchpad-backend/internal/clients"
	"launchpad-backend/internal/config"
	"launchpad-backend/internal/launchpad"
	"launchpad-backend/internal/retry"
	"launchpad-backend/internal/utils"
)

// Preflight for a collection launch: validates the launchpad section of
// the config, checks the relayer key and balance on the target network,
// and prints the constructor parameters the contract deployment will use.
func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if err := config.LoadConfig(configPath); err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	networkName := os.Getenv("NETWORK")
	if networkName == "" {
		networkName = "base"
	}

	lp := config.AppConfig.Launchpad

	owner, err := utils.ParseAddress(lp.Owner)
	if err != nil {
		log.Fatalf("❌ Invalid launchpad.owner: %v", err)
	}

	fee := big.NewInt(0)
	if lp.LaunchpadFee != "" {
		parsed, ok := new(big.Int).SetString(lp.LaunchpadFee, 10)
		if !ok {
			log.Fatalf("❌ Invalid launchpad.launchpadFee: %s", lp.LaunchpadFee)
		}
		fee = parsed
	}

	// Constructing the state machine runs the same validation the
	// contract constructor enforces.
	if _, err := launchpad.NewCollection(launchpad.Config{
		Name:         lp.Name,
		Symbol:       lp.Symbol,
		Owner:        owner,
		MaxSupply:    lp.MaxSupply,
		BaseURI:      lp.BaseURI,
		LaunchpadFee: fee,
	}); err != nil {
		log.Fatalf("❌ Collection config rejected: %v", err)
	}

	fmt.Println("============================================================")
	fmt.Println("Collection Deployment Parameters")
	fmt.Println("============================================================")
	fmt.Printf("  Network:        %s\n", networkName)
	fmt.Printf("  Name:           %s\n", lp.Name)
	fmt.Printf("  Symbol:         %s\n", lp.Symbol)
	fmt.Printf("  Owner:          %s\n", owner.Hex())
	fmt.Printf("  Max Supply:     %d\n", lp.MaxSupply)
	fmt.Printf("  Base URI:       %s\n", lp.BaseURI)
	fmt.Printf("  Launchpad Fee:  %s wei/token\n", fee.String())
	fmt.Printf("  Fee Recipient:  %s\n", lp.FeeRecipient)
	fmt.Println("============================================================")

	network, err := config.GetNetworkConfig(networkName)
	if err != nil {
		log.Fatalf("❌ Network config error: %v", err)
	}

	readPolicy := retry.Policy{
		MaxAttempts: config.AppConfig.Relay.ReadMaxAttempts,
		Backoff:     time.Duration(config.AppConfig.Relay.ReadBackoffMs) * time.Millisecond,
		Retryable:   retry.IsRetryable,
	}
	rpcClient, err := clients.NewRPCClient(network.RPCEndpoints, 10*time.Second, readPolicy)
	if err != nil {
		log.Fatalf("❌ Failed to connect to RPC: %v", err)
	}
	defer rpcClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	chainID, err := rpcClient.ChainID(ctx)
	if err != nil {
		log.Fatalf("❌ Failed to read chain ID: %v", err)
	}
	if chainID.Int64() != int64(network.ChainID) {
		log.Fatalf("❌ Chain ID mismatch: config says %d, RPC says %s", network.ChainID, chainID)
	}
	fmt.Printf("✅ Chain ID verified: %s\n", chainID)

	balance, err := rpcClient.BalanceAt(ctx, owner)
	if err != nil {
		log.Fatalf("❌ Failed to read owner balance: %v", err)
	}
	fmt.Printf("✅ Owner balance: %s wei\n", balance.String())
	if balance.Sign() == 0 {
		fmt.Println("⚠️ Owner has zero balance - deployment transaction will fail")
	}

	fmt.Println("✅ Preflight complete")
}
