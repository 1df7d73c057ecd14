package merkle

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Tree commits to a set of wallet addresses. Leaves are
// keccak256(address bytes), sorted by byte value before pairing so the
// root depends only on the wallet set, not insertion order; pair
// hashing also sorts the two children before concatenation. An odd node
// at any level promotes unchanged to the next level.
type Tree struct {
	Root   common.Hash
	proofs map[common.Address][]common.Hash
}

// LeafHash computes the leaf for a wallet address.
func LeafHash(wallet common.Address) common.Hash {
	return common.BytesToHash(crypto.Keccak256(wallet.Bytes()))
}

// hashPair hashes two nodes with the smaller byte value first.
func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		a, b = b, a
	}
	return common.BytesToHash(crypto.Keccak256(a.Bytes(), b.Bytes()))
}

// BuildTree builds the allowlist tree over the given wallet set.
// Duplicate addresses collapse to a single leaf.
func BuildTree(wallets []common.Address) (*Tree, error) {
	if len(wallets) == 0 {
		return nil, fmt.Errorf("cannot build merkle tree over empty wallet set")
	}

	seen := make(map[common.Address]bool, len(wallets))
	unique := make([]common.Address, 0, len(wallets))
	for _, w := range wallets {
		if !seen[w] {
			seen[w] = true
			unique = append(unique, w)
		}
	}

	// Canonical leaf order: sorting by leaf hash makes the pairing, and
	// therefore the root, independent of the order wallets arrived in.
	sort.Slice(unique, func(i, j int) bool {
		return bytes.Compare(LeafHash(unique[i]).Bytes(), LeafHash(unique[j]).Bytes()) < 0
	})

	level := make([]common.Hash, len(unique))
	for i, w := range unique {
		level[i] = LeafHash(w)
	}

	// Track each leaf's position while collapsing levels, recording the
	// sibling at every step.
	proofs := make(map[common.Address][]common.Hash, len(unique))
	positions := make(map[common.Address]int, len(unique))
	for i, w := range unique {
		proofs[w] = []common.Hash{}
		positions[w] = i
	}

	for len(level) > 1 {
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				// Odd node promotes unchanged, no sibling recorded.
				next = append(next, level[i])
			}
		}

		for w, pos := range positions {
			sibling := pos ^ 1
			if sibling < len(level) {
				proofs[w] = append(proofs[w], level[sibling])
			}
			positions[w] = pos / 2
		}

		level = next
	}

	return &Tree{Root: level[0], proofs: proofs}, nil
}

// Proof returns the membership proof for a wallet, or false if the
// wallet was not part of the set the tree was built over.
func (t *Tree) Proof(wallet common.Address) ([]common.Hash, bool) {
	proof, ok := t.proofs[wallet]
	return proof, ok
}

// Proofs returns all proofs keyed by lowercased hex address, the shape
// published to the proof storage collaborator.
func (t *Tree) Proofs() map[string][]common.Hash {
	out := make(map[string][]common.Hash, len(t.proofs))
	for w, p := range t.proofs {
		out[strings.ToLower(w.Hex())] = p
	}
	return out
}

// Verify folds proof over leaf with the sorted-pair hash and compares
// the result to root.
func Verify(leaf common.Hash, proof []common.Hash, root common.Hash) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}

// VerifyWallet is Verify over the wallet's leaf hash.
func VerifyWallet(wallet common.Address, proof []common.Hash, root common.Hash) bool {
	return Verify(LeafHash(wallet), proof, root)
}
