package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var hex40Pattern = regexp.MustCompile("^[0-9a-fA-F]{40}$")

// IsEvmAddress checks whether a string is a 20-byte EVM address, with
// or without the 0x prefix.
func IsEvmAddress(address string) bool {
	if address == "" {
		return false
	}
	if strings.HasPrefix(strings.ToLower(address), "0x") {
		return len(address) == 42 && hex40Pattern.MatchString(address[2:])
	}
	return len(address) == 40 && hex40Pattern.MatchString(address)
}

// NormalizeAddress lowercases an EVM address and ensures the 0x prefix.
// Lowercase form is the canonical key for proof maps and database rows;
// checksummed display form is produced at the edges with common.Address.Hex.
func NormalizeAddress(address string) (string, error) {
	if !IsEvmAddress(address) {
		return "", fmt.Errorf("invalid EVM address format: %s", address)
	}
	if !strings.HasPrefix(strings.ToLower(address), "0x") {
		address = "0x" + address
	}
	return strings.ToLower(address), nil
}

// ParseAddress converts a user-supplied string to a common.Address.
func ParseAddress(address string) (common.Address, error) {
	normalized, err := NormalizeAddress(address)
	if err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(normalized), nil
}

// NormalizeWallets normalizes a batch, rejecting the whole batch on the
// first bad entry so partial allowlist writes never happen.
func NormalizeWallets(addresses []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(addresses))
	seen := make(map[common.Address]struct{}, len(addresses))
	for _, raw := range addresses {
		addr, err := ParseAddress(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out, nil
}
