package services

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// mustType is a helper function to create an abi.Type from a string
func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(fmt.Sprintf("invalid type: %s: %v", t, err))
	}
	return typ
}

// methodID returns the 4-byte selector for a canonical signature.
func methodID(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

// BuildPublicMintCallData encodes publicMint(uint256,bytes32[]).
func BuildPublicMintCallData(quantity uint64, proof []common.Hash) ([]byte, error) {
	args := abi.Arguments{
		{Type: mustType("uint256")},
		{Type: mustType("bytes32[]")},
	}
	proofWords := make([][32]byte, len(proof))
	for i, h := range proof {
		proofWords[i] = h
	}
	encoded, err := args.Pack(new(big.Int).SetUint64(quantity), proofWords)
	if err != nil {
		return nil, fmt.Errorf("failed to encode publicMint args: %w", err)
	}
	return append(methodID("publicMint(uint256,bytes32[])"), encoded...), nil
}

// BuildSetMerkleRootCallData encodes setPhaseMerkleRoot(uint256,bytes32).
func BuildSetMerkleRootCallData(phaseID uint64, root common.Hash) ([]byte, error) {
	args := abi.Arguments{
		{Type: mustType("uint256")},
		{Type: mustType("bytes32")},
	}
	encoded, err := args.Pack(new(big.Int).SetUint64(phaseID), [32]byte(root))
	if err != nil {
		return nil, fmt.Errorf("failed to encode setPhaseMerkleRoot args: %w", err)
	}
	return append(methodID("setPhaseMerkleRoot(uint256,bytes32)"), encoded...), nil
}

// BuildFreezeMetadataCallData encodes freezeMetadata().
func BuildFreezeMetadataCallData() []byte {
	return methodID("freezeMetadata()")
}

// BuildTransferOwnershipCallData encodes transferOwnership(address).
func BuildTransferOwnershipCallData(newOwner common.Address) ([]byte, error) {
	args := abi.Arguments{{Type: mustType("address")}}
	encoded, err := args.Pack(newOwner)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transferOwnership args: %w", err)
	}
	return append(methodID("transferOwnership(address)"), encoded...), nil
}

// BuildSetPausedCallData encodes pause() or unpause().
func BuildSetPausedCallData(paused bool) []byte {
	if paused {
		return methodID("pause()")
	}
	return methodID("unpause()")
}
