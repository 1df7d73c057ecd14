package launchpad

import "errors"

// Revert reasons. Every rejected precondition surfaces as one of these,
// matching the reason strings the deployed contract reverts with so the
// relay's error normalization can treat local and on-chain rejections
// the same way.
var (
	ErrNotOwner           = errors.New("caller is not the owner")
	ErrPaused             = errors.New("minting is paused")
	ErrNoActivePhase      = errors.New("no active phase")
	ErrZeroQuantity       = errors.New("quantity must be greater than zero")
	ErrExceedsMaxSupply   = errors.New("exceeds max supply")
	ErrExceedsWalletLimit = errors.New("exceeds per-wallet limit")
	ErrNotAllowlisted     = errors.New("wallet is not allowlisted")
	ErrWrongPayment       = errors.New("incorrect payment value")
	ErrMetadataFrozen     = errors.New("metadata is frozen")
	ErrAlreadyFrozen      = errors.New("metadata already frozen")
	ErrInvalidPhaseWindow = errors.New("end time must be after start time")
	ErrPhaseNotFound      = errors.New("phase does not exist")
	ErrInvalidMaxSupply   = errors.New("invalid max supply")
	ErrTransfersLocked    = errors.New("transfers are locked")
	ErrUnknownToken       = errors.New("unknown token")
	ErrNotAuthorized      = errors.New("caller is not owner nor approved")
	ErrZeroAddress        = errors.New("zero address")
)
