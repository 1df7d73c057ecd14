package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MintAttemptsTotal counts mint intents by outcome reason.
	MintAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launchpad_mint_attempts_total",
		Help: "Total mint attempts by outcome reason",
	}, []string{"reason"})

	// MintedTokensTotal counts successfully minted tokens.
	MintedTokensTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "launchpad_minted_tokens_total",
		Help: "Total tokens minted through the backend",
	})

	// RelayAttemptsTotal counts transaction relay attempts by result.
	RelayAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launchpad_relay_attempts_total",
		Help: "Transaction relay attempts by result (success, retry, failed)",
	}, []string{"result"})

	// RelayDurationSeconds observes end-to-end relay submission latency.
	RelayDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "launchpad_relay_duration_seconds",
		Help:    "Transaction relay submission latency",
		Buckets: prometheus.DefBuckets,
	})

	// RPCEndpointFailures counts read failures per endpoint.
	RPCEndpointFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launchpad_rpc_endpoint_failures_total",
		Help: "RPC endpoint failures by endpoint",
	}, []string{"endpoint"})

	// ProofLookupsTotal counts allowlist proof lookups by result.
	ProofLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launchpad_proof_lookups_total",
		Help: "Allowlist proof lookups by result (hit, miss, ineligible)",
	}, []string{"result"})

	// FailedTransactionsPending gauges parked relay submissions.
	FailedTransactionsPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "launchpad_failed_transactions_pending",
		Help: "Failed transactions waiting for the retry sweeper",
	})

	// NATSConnectionStatus is 1 when the NATS connection is up.
	NATSConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "launchpad_nats_connection_status",
		Help: "NATS connection status (1 = connected, 0 = disconnected)",
	})

	// WebSocketClientsConnected gauges live mint feed subscribers.
	WebSocketClientsConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "launchpad_websocket_clients_connected",
		Help: "Connected WebSocket mint feed clients",
	})

	// CollectionTotalSupply mirrors the on-chain supply counter.
	CollectionTotalSupply = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "launchpad_collection_total_supply",
		Help: "Current total supply of the tracked collection",
	})
)
