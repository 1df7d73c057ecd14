package retry

import "strings"

// Reason is a coarse failure category surfaced to callers and clients.
type Reason string

const (
	ReasonInsufficientFunds Reason = "insufficient_funds"
	ReasonUserRejected      Reason = "user_rejected"
	ReasonPaused            Reason = "paused"
	ReasonNotAllowlisted    Reason = "not_allowlisted"
	ReasonWrongNetwork      Reason = "wrong_network"
	ReasonFeeMismatch       Reason = "fee_mismatch"
	ReasonNonceConflict     Reason = "nonce_conflict"
	ReasonGenericFailure    Reason = "generic_failure"
)

// Fee-cap/tip inversion errors. Different nodes phrase this rejection
// differently, so we match several known spellings.
var feeMismatchFragments = []string{
	"max fee per gas less than max priority fee per gas",
	"maxfeepergas cannot be less than maxpriorityfeepergas",
	"tip higher than fee cap",
}

// Transient faults worth retrying: network flakiness, rate limiting,
// gateway errors, and mempool races that a fresh nonce or fee resolves.
var retryableFragments = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
	"429",
	"too many requests",
	"rate limit",
	"connection refused",
	"connection reset",
	"broken pipe",
	"eof",
	"missing response",
	"bad gateway",
	"service unavailable",
	"internal server error",
	"502",
	"503",
	"replacement transaction underpriced",
	"nonce too low",
	"nonce gap too high",
	"already known",
}

// Deterministic contract rejections. Retrying these burns gas for the
// same revert, so submission must fail fast.
var revertFragments = []string{
	"execution reverted",
	"revert",
	"owner",
	"frozen",
	"invalid",
	"insufficient funds",
	"allowlisted",
}

func containsAny(msg string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}

// IsFeeMismatch reports whether err is a fee-cap/tip inversion.
func IsFeeMismatch(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(strings.ToLower(err.Error()), feeMismatchFragments)
}

// IsRetryable reports whether err is a transient fault. Fee mismatches
// count as retryable because the sender can rebuild with legacy pricing.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return containsAny(msg, retryableFragments) || containsAny(msg, feeMismatchFragments)
}

// IsRevertLike reports whether err looks like a deterministic contract
// revert rather than an infrastructure fault.
func IsRevertLike(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(strings.ToLower(err.Error()), revertFragments)
}

// Normalize maps a raw error onto a stable reason code and a short
// human message. Ordering matters: the more specific categories are
// checked before the generic buckets.
func Normalize(err error) (Reason, string) {
	if err == nil {
		return ReasonGenericFailure, "unknown failure"
	}
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "insufficient funds"):
		return ReasonInsufficientFunds, "wallet balance cannot cover price plus gas"
	case strings.Contains(msg, "user rejected") || strings.Contains(msg, "user denied"):
		return ReasonUserRejected, "transaction rejected in wallet"
	case strings.Contains(msg, "paused"):
		return ReasonPaused, "minting is paused"
	case strings.Contains(msg, "allowlist") || strings.Contains(msg, "allowlisted"):
		return ReasonNotAllowlisted, "wallet is not on the allowlist for this phase"
	case strings.Contains(msg, "wrong network") || strings.Contains(msg, "chain id mismatch") || strings.Contains(msg, "unsupported chain"):
		return ReasonWrongNetwork, "connected to the wrong network"
	case containsAny(msg, feeMismatchFragments):
		return ReasonFeeMismatch, "fee cap below priority fee, rebuilding transaction"
	case strings.Contains(msg, "nonce") || strings.Contains(msg, "replacement transaction") || strings.Contains(msg, "already known"):
		return ReasonNonceConflict, "nonce conflict with a pending transaction"
	default:
		return ReasonGenericFailure, err.Error()
	}
}
