package clients

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"launchpad-backend/internal/metrics"
	"launchpad-backend/internal/retry"
)

// RPCClient reads chain state through a prioritized list of RPC
// endpoints. Every read runs under the read retry policy and rotates
// to the next endpoint when one fails, so a single flaky provider
// does not take mint pages down.
type RPCClient struct {
	endpoints []string
	clients   []*ethclient.Client
	timeout   time.Duration
	policy    retry.Policy
}

// NewRPCClient dials all endpoints up front. At least one endpoint
// must be dialable.
func NewRPCClient(endpoints []string, timeout time.Duration, policy retry.Policy) (*RPCClient, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("at least one RPC endpoint is required")
	}

	clients := make([]*ethclient.Client, 0, len(endpoints))
	dialed := make([]string, 0, len(endpoints))
	for _, endpoint := range endpoints {
		client, err := ethclient.Dial(endpoint)
		if err != nil {
			log.Printf("⚠️ Failed to dial RPC endpoint %s: %v", endpoint, err)
			continue
		}
		clients = append(clients, client)
		dialed = append(dialed, endpoint)
	}
	if len(clients) == 0 {
		return nil, fmt.Errorf("failed to dial any of %d RPC endpoints", len(endpoints))
	}
	log.Printf("✅ RPC client ready with %d/%d endpoints", len(clients), len(endpoints))

	return &RPCClient{
		endpoints: dialed,
		clients:   clients,
		timeout:   timeout,
		policy:    policy,
	}, nil
}

// withFallback runs fn against each endpoint in order, retrying the
// whole rotation per the read policy. The attempt number selects the
// starting endpoint so consecutive retries do not hammer the same node.
func (c *RPCClient) withFallback(ctx context.Context, op string, fn func(ctx context.Context, client *ethclient.Client) error) error {
	return c.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		var lastErr error
		for i := range c.clients {
			idx := (attempt - 1 + i) % len(c.clients)
			callCtx, cancel := context.WithTimeout(ctx, c.timeout)
			err := fn(callCtx, c.clients[idx])
			cancel()
			if err == nil {
				return nil
			}
			lastErr = err
			metrics.RPCEndpointFailures.WithLabelValues(c.endpoints[idx]).Inc()
			if retry.IsRevertLike(err) {
				// A revert is deterministic, other endpoints will agree.
				return err
			}
			log.Printf("⚠️ [RPC] %s failed on %s: %v", op, c.endpoints[idx], err)
		}
		return fmt.Errorf("%s failed on all %d endpoints: %w", op, len(c.clients), lastErr)
	})
}

// ChainID returns the chain ID reported by the first healthy endpoint.
func (c *RPCClient) ChainID(ctx context.Context) (*big.Int, error) {
	var chainID *big.Int
	err := c.withFallback(ctx, "ChainID", func(ctx context.Context, client *ethclient.Client) error {
		id, err := client.ChainID(ctx)
		if err != nil {
			return err
		}
		chainID = id
		return nil
	})
	return chainID, err
}

// CallContract executes a read-only contract call.
func (c *RPCClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var result []byte
	err := c.withFallback(ctx, "CallContract", func(ctx context.Context, client *ethclient.Client) error {
		out, err := client.CallContract(ctx, msg, blockNumber)
		if err != nil {
			return err
		}
		result = out
		return nil
	})
	return result, err
}

// NonceAt returns the confirmed nonce for an account.
func (c *RPCClient) NonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var nonce uint64
	err := c.withFallback(ctx, "NonceAt", func(ctx context.Context, client *ethclient.Client) error {
		n, err := client.NonceAt(ctx, account, nil)
		if err != nil {
			return err
		}
		nonce = n
		return nil
	})
	return nonce, err
}

// PendingNonceAt returns the pending-pool nonce for an account.
func (c *RPCClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var nonce uint64
	err := c.withFallback(ctx, "PendingNonceAt", func(ctx context.Context, client *ethclient.Client) error {
		n, err := client.PendingNonceAt(ctx, account)
		if err != nil {
			return err
		}
		nonce = n
		return nil
	})
	return nonce, err
}

// BalanceAt returns the wei balance of an account.
func (c *RPCClient) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	var balance *big.Int
	err := c.withFallback(ctx, "BalanceAt", func(ctx context.Context, client *ethclient.Client) error {
		b, err := client.BalanceAt(ctx, account, nil)
		if err != nil {
			return err
		}
		balance = b
		return nil
	})
	return balance, err
}

// TransactionReceipt fetches a receipt by hash.
func (c *RPCClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	err := c.withFallback(ctx, "TransactionReceipt", func(ctx context.Context, client *ethclient.Client) error {
		r, err := client.TransactionReceipt(ctx, txHash)
		if err != nil {
			return err
		}
		receipt = r
		return nil
	})
	return receipt, err
}

// Primary returns the first healthy low-level client for write paths
// that need the full ethclient surface.
func (c *RPCClient) Primary() *ethclient.Client {
	return c.clients[0]
}

// EthBackend adapts an ethclient.Client to the relay backend surface,
// pinning nonce reads to the latest block.
type EthBackend struct {
	*ethclient.Client
}

func (b EthBackend) NonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return b.Client.NonceAt(ctx, account, nil)
}

// Backend wraps the primary endpoint for the transaction relay.
func (c *RPCClient) Backend() EthBackend {
	return EthBackend{Client: c.Primary()}
}

// Close releases all endpoint connections.
func (c *RPCClient) Close() {
	for _, client := range c.clients {
		client.Close()
	}
}
