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
	"launchpad-backend/internal/retry"
	"launchpad-backend/internal/services"
	"launchpad-backend/internal/utils"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Transfers on-chain collection ownership. Reads the current owner
// before sending and reads it back after the transaction is broadcast
// so an operator sees the supposed and actual state side by side.
//
// Required env: CONTRACT_ADDRESS, NEW_OWNER, <NETWORK>_PRIVATE_KEY
func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if err := config.LoadConfig(configPath); err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	networkName := os.Getenv("NETWORK")
	if networkName == "" {
		networkName = "base"
	}

	contractEnv := os.Getenv("CONTRACT_ADDRESS")
	newOwnerEnv := os.Getenv("NEW_OWNER")
	if contractEnv == "" || newOwnerEnv == "" {
		log.Fatalf("❌ CONTRACT_ADDRESS and NEW_OWNER environment variables are required")
	}

	contract, err := utils.ParseAddress(contractEnv)
	if err != nil {
		log.Fatalf("❌ Invalid CONTRACT_ADDRESS: %v", err)
	}
	newOwner, err := utils.ParseAddress(newOwnerEnv)
	if err != nil {
		log.Fatalf("❌ Invalid NEW_OWNER: %v", err)
	}

	network, err := config.GetNetworkConfig(networkName)
	if err != nil {
		log.Fatalf("❌ Network config error: %v", err)
	}
	if network.PrivateKey == "" {
		log.Fatalf("❌ No private key configured for network %s", networkName)
	}

	relayCfg := config.AppConfig.Relay
	readPolicy := retry.Policy{
		MaxAttempts: relayCfg.ReadMaxAttempts,
		Backoff:     time.Duration(relayCfg.ReadBackoffMs) * time.Millisecond,
		Retryable:   retry.IsRetryable,
	}
	rpcClient, err := clients.NewRPCClient(network.RPCEndpoints, time.Duration(relayCfg.RPCTimeoutSec)*time.Second, readPolicy)
	if err != nil {
		log.Fatalf("❌ Failed to connect to RPC: %v", err)
	}
	defer rpcClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	before, err := readOwner(ctx, rpcClient, contract)
	if err != nil {
		log.Fatalf("❌ Failed to read current owner: %v", err)
	}
	fmt.Printf("Current owner: %s\n", before.Hex())
	fmt.Printf("New owner:     %s\n", newOwner.Hex())

	if before == newOwner {
		fmt.Println("✅ New owner already owns the collection, nothing to do")
		return
	}

	relay, err := services.NewTransactionRelayService(
		rpcClient.Backend(),
		big.NewInt(int64(network.ChainID)),
		relayCfg,
		network.PrivateKey,
		nil, nil,
	)
	if err != nil {
		log.Fatalf("❌ Failed to build relay: %v", err)
	}

	if relay.From() != before {
		log.Fatalf("❌ Relay key %s is not the current owner %s", relay.From().Hex(), before.Hex())
	}

	callData, err := services.BuildTransferOwnershipCallData(newOwner)
	if err != nil {
		log.Fatalf("❌ Failed to build call data: %v", err)
	}

	tx, err := relay.SendContractTx(ctx, "transferOwnership", contract, callData, big.NewInt(0))
	if err != nil {
		log.Fatalf("❌ Transfer failed: %v", err)
	}
	fmt.Printf("✅ Transaction sent: %s\n", tx.Hash().Hex())

	// Give the chain a moment, then read back.
	time.Sleep(5 * time.Second)
	after, err := readOwner(ctx, rpcClient, contract)
	if err != nil {
		log.Fatalf("⚠️ Transaction sent but owner read-back failed: %v", err)
	}
	if after == newOwner {
		fmt.Printf("✅ Ownership transferred to %s\n", after.Hex())
	} else {
		fmt.Printf("⚠️ Owner is still %s - transaction may not be mined yet\n", after.Hex())
	}
}

func readOwner(ctx context.Context, rpcClient *clients.RPCClient, contract common.Address) (common.Address, error) {
	selector := crypto.Keccak256([]byte("owner()"))[:4]
	out, err := rpcClient.CallContract(ctx, ethereum.CallMsg{
		To:   &contract,
		Data: selector,
	}, nil)
	if err != nil {
		return common.Address{}, err
	}
	if len(out) < 32 {
		return common.Address{}, fmt.Errorf("unexpected owner() return length %d", len(out))
	}
	return common.BytesToAddress(out[12:32]), nil
}
