package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config application configuration structure
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Blockchain BlockchainConfig `yaml:"blockchain"`
	Launchpad  LaunchpadConfig  `yaml:"launchpad"`
	Relay      RelayConfig      `yaml:"relay"`
	NATS       NATSConfig       `yaml:"nats"`
	CORS       CORSConfig       `yaml:"cors"`
	Admin      AdminConfig      `yaml:"admin"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig database configuration
type DatabaseConfig struct {
	DSN    string `yaml:"dsn"`
	Driver string `yaml:"driver"`
}

// BlockchainConfig blockchain configuration
type BlockchainConfig struct {
	Networks map[string]NetworkConfig `yaml:"networks"`
}

// NetworkConfig per-network configuration
type NetworkConfig struct {
	ChainID            int      `yaml:"chainId"`
	Name               string   `yaml:"name"`
	RPCEndpoints       []string `yaml:"rpcEndpoints"`
	CollectionContract string   `yaml:"collectionContract"`
	PrivateKey         string   `yaml:"privateKey"` // hex format, without 0x prefix
	GasPrice           string   `yaml:"gasPrice"`   // wei, optional override
	GasLimit           uint64   `yaml:"gasLimit"`
	Enabled            bool     `yaml:"enabled"`
}

// LaunchpadConfig collection deployment defaults
type LaunchpadConfig struct {
	Name           string `yaml:"name"`
	Symbol         string `yaml:"symbol"`
	MaxSupply      uint64 `yaml:"maxSupply"`
	BaseURI        string `yaml:"baseUri"`
	NotRevealedURI string `yaml:"notRevealedUri"`
	Owner          string `yaml:"owner"`
	LaunchpadFee   string `yaml:"launchpadFee"` // wei per token
	FeeRecipient   string `yaml:"feeRecipient"`
}

// RelayConfig transaction relay tuning
type RelayConfig struct {
	MaxAttempts       int    `yaml:"maxAttempts"`
	BackoffMs         int    `yaml:"backoffMs"`
	ReadMaxAttempts   int    `yaml:"readMaxAttempts"`
	ReadBackoffMs     int    `yaml:"readBackoffMs"`
	RPCTimeoutSec     int    `yaml:"rpcTimeoutSec"`
	GasBufferNum      int64  `yaml:"gasBufferNum"`
	GasBufferDen      int64  `yaml:"gasBufferDen"`
	FallbackGasLimit  uint64 `yaml:"fallbackGasLimit"`
	NonceGapThreshold uint64 `yaml:"nonceGapThreshold"`
}

// NATSConfig NATS message server configuration
type NATSConfig struct {
	URL           string `yaml:"url"`
	Timeout       int    `yaml:"timeout"`
	ReconnectWait int    `yaml:"reconnect_wait"`
	MaxReconnects int    `yaml:"max_reconnects"`
}

// CORSConfig CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowedOrigins"`
	AllowCredentials bool     `yaml:"allowCredentials"`
	MaxAge           int      `yaml:"maxAge"` // seconds
}

// AdminConfig admin API access control configuration
type AdminConfig struct {
	AllowedIPs   []string `yaml:"allowedIPs"` // IP addresses or CIDR ranges
	PasswordHash string   `yaml:"passwordHash"`
	TOTPSecret   string   `yaml:"totpSecret"`
	JWTSecret    string   `yaml:"jwtSecret"`
}

var AppConfig *Config

// LoadConfig loads the YAML configuration, preferring config.local.yaml
// when present, then applies environment overrides and relay defaults.
func LoadConfig(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
		if _, err := os.Stat("config.local.yaml"); err == nil {
			configPath = "config.local.yaml"
			log.Printf("🔧 Using local configuration file: config.local.yaml")
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	log.Printf("✅ Loaded configuration from %s", configPath)

	overrideFromEnv(&config)
	applyRelayDefaults(&config.Relay)

	if len(config.CORS.AllowedOrigins) > 0 {
		log.Printf("📋 [Config] CORS allowed origins: %d configured", len(config.CORS.AllowedOrigins))
	} else {
		log.Printf("📋 [Config] CORS: not configured (will allow all origins *)")
	}
	if len(config.Admin.AllowedIPs) > 0 {
		log.Printf("📋 [Config] Admin IP whitelist: %d IPs/CIDRs configured", len(config.Admin.AllowedIPs))
	} else {
		log.Printf("📋 [Config] Admin IP whitelist: not configured (localhost-only mode)")
	}

	AppConfig = &config
	return nil
}

// overrideFromEnv applies environment variable overrides
func overrideFromEnv(config *Config) {
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		config.Database.DSN = dsn
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		config.NATS.URL = natsURL
	}
	if owner := os.Getenv("COLLECTION_OWNER"); owner != "" {
		config.Launchpad.Owner = owner
	}
	if fee := os.Getenv("LAUNCHPAD_FEE"); fee != "" {
		config.Launchpad.LaunchpadFee = fee
	}
	if jwtSecret := os.Getenv("ADMIN_JWT_SECRET"); jwtSecret != "" {
		config.Admin.JWTSecret = jwtSecret
	}
	if totpSecret := os.Getenv("ADMIN_TOTP_SECRET"); totpSecret != "" {
		config.Admin.TOTPSecret = totpSecret
	}
	if passwordHash := os.Getenv("ADMIN_PASSWORD_HASH"); passwordHash != "" {
		config.Admin.PasswordHash = passwordHash
	}

	for networkName, networkConfig := range config.Blockchain.Networks {
		// Network-specific private key first (e.g., BASE_PRIVATE_KEY),
		// then the generic PRIVATE_KEY fallback.
		envPrivateKey := fmt.Sprintf("%s_PRIVATE_KEY", strings.ToUpper(networkName))
		if privateKey := os.Getenv(envPrivateKey); privateKey != "" {
			networkConfig.PrivateKey = privateKey
			log.Printf("✅ [Config] Loaded private key for network '%s' from %s", networkName, envPrivateKey)
		} else if privateKey := os.Getenv("PRIVATE_KEY"); privateKey != "" && networkConfig.PrivateKey == "" {
			networkConfig.PrivateKey = privateKey
		}

		envRPC := fmt.Sprintf("%s_RPC_ENDPOINTS", strings.ToUpper(networkName))
		if rpcEndpoints := os.Getenv(envRPC); rpcEndpoints != "" {
			networkConfig.RPCEndpoints = strings.Split(rpcEndpoints, ",")
		}

		envContract := fmt.Sprintf("%s_COLLECTION_CONTRACT", strings.ToUpper(networkName))
		if contract := os.Getenv(envContract); contract != "" {
			networkConfig.CollectionContract = contract
		} else if contract := os.Getenv("COLLECTION_CONTRACT"); contract != "" {
			networkConfig.CollectionContract = contract
		}

		envGasLimit := fmt.Sprintf("%s_GAS_LIMIT", strings.ToUpper(networkName))
		if gasLimit := os.Getenv(envGasLimit); gasLimit != "" {
			if limit, err := strconv.ParseUint(gasLimit, 10, 64); err == nil {
				networkConfig.GasLimit = limit
			}
		}

		config.Blockchain.Networks[networkName] = networkConfig
	}

	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		origins := strings.Split(corsOrigins, ",")
		config.CORS.AllowedOrigins = make([]string, 0, len(origins))
		for _, origin := range origins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				config.CORS.AllowedOrigins = append(config.CORS.AllowedOrigins, trimmed)
			}
		}
	}
}

// applyRelayDefaults fills unset relay tuning values
func applyRelayDefaults(relay *RelayConfig) {
	if relay.MaxAttempts <= 0 {
		relay.MaxAttempts = 3
	}
	if relay.BackoffMs <= 0 {
		relay.BackoffMs = 2000
	}
	if relay.ReadMaxAttempts <= 0 {
		relay.ReadMaxAttempts = 4
	}
	if relay.ReadBackoffMs <= 0 {
		relay.ReadBackoffMs = 500
	}
	if relay.RPCTimeoutSec <= 0 {
		relay.RPCTimeoutSec = 10
	}
	if relay.GasBufferNum <= 0 || relay.GasBufferDen <= 0 {
		relay.GasBufferNum = 12
		relay.GasBufferDen = 10
	}
	if relay.FallbackGasLimit == 0 {
		relay.FallbackGasLimit = 300000
	}
	if relay.NonceGapThreshold == 0 {
		relay.NonceGapThreshold = 25
	}
}

// GetNetworkConfig returns an enabled network by name
func GetNetworkConfig(networkName string) (*NetworkConfig, error) {
	if AppConfig == nil {
		return nil, fmt.Errorf("config not loaded")
	}
	network, exists := AppConfig.Blockchain.Networks[networkName]
	if !exists {
		return nil, fmt.Errorf("network %s not found in config", networkName)
	}
	if !network.Enabled {
		return nil, fmt.Errorf("network %s is disabled", networkName)
	}
	return &network, nil
}

// GetNetworkConfigByChainID returns an enabled network by chain ID
func GetNetworkConfigByChainID(chainID int) (*NetworkConfig, error) {
	if AppConfig == nil {
		return nil, fmt.Errorf("config not loaded")
	}
	for _, network := range AppConfig.Blockchain.Networks {
		if network.ChainID == chainID && network.Enabled {
			return &network, nil
		}
	}
	return nil, fmt.Errorf("network with chainID %d not found or disabled", chainID)
}
