package utils

import (
	"testing"
)

func TestIsEvmAddress(t *testing.T) {
	cases := []struct {
		name    string
		address string
		want    bool
	}{
		{"valid lowercase", "0x742d35cc6634c0532925a3b844bc9e7595f0beb1", true},
		{"valid checksummed", "0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb1", true},
		{"valid no prefix", "742d35cc6634c0532925a3b844bc9e7595f0beb1", true},
		{"too short", "0x742d35cc6634c0532925a3b844bc9e7595f0be", false},
		{"too long", "0x742d35cc6634c0532925a3b844bc9e7595f0beb1aa", false},
		{"non-hex chars", "0x742d35cc6634c0532925a3b844bc9e7595f0bezz", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsEvmAddress(tc.address); got != tc.want {
				t.Errorf("IsEvmAddress(%q) = %v, want %v", tc.address, got, tc.want)
			}
		})
	}
}

func TestNormalizeAddress(t *testing.T) {
	got, err := NormalizeAddress("742d35Cc6634C0532925a3b844Bc9e7595f0bEb1")
	if err != nil {
		t.Fatalf("NormalizeAddress returned error: %v", err)
	}
	want := "0x742d35cc6634c0532925a3b844bc9e7595f0beb1"
	if got != want {
		t.Errorf("NormalizeAddress = %q, want %q", got, want)
	}

	if _, err := NormalizeAddress("not-an-address"); err == nil {
		t.Error("expected error for invalid address")
	}
}

func TestNormalizeWalletsDedupes(t *testing.T) {
	wallets, err := NormalizeWallets([]string{
		"0x742d35cc6634c0532925a3b844bc9e7595f0beb1",
		"0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb1",
		"0x0000000000000000000000000000000000000002",
	})
	if err != nil {
		t.Fatalf("NormalizeWallets returned error: %v", err)
	}
	if len(wallets) != 2 {
		t.Errorf("expected 2 unique wallets, got %d", len(wallets))
	}
}

func TestNormalizeWalletsRejectsBatchOnBadEntry(t *testing.T) {
	_, err := NormalizeWallets([]string{
		"0x742d35cc6634c0532925a3b844bc9e7595f0beb1",
		"bogus",
	})
	if err == nil {
		t.Error("expected error for batch containing invalid address")
	}
}
