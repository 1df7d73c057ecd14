package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestDoFirstAttemptSuccess(t *testing.T) {
	p := Policy{MaxAttempts: 3, Backoff: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Fatalf("err = %v, calls = %d, want nil and 1", err, calls)
	}
}

func TestDoRetriesTransient(t *testing.T) {
	p := Policy{MaxAttempts: 4, Backoff: time.Millisecond}
	var attempts []int
	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		attempts = append(attempts, attempt)
		if attempt < 3 {
			return errors.New("connection reset by peer")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if len(attempts) != 3 || attempts[0] != 1 || attempts[2] != 3 {
		t.Fatalf("attempts = %v, want [1 2 3]", attempts)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	p := Policy{MaxAttempts: 5, Backoff: time.Millisecond}
	calls := 0
	revert := errors.New("execution reverted: minting is paused")
	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return revert
	})
	if !errors.Is(err, revert) {
		t.Fatalf("err = %v, want the revert error unwrapped", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 3, Backoff: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return fmt.Errorf("rpc timeout on attempt %d", attempt)
	})
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if err == nil || !strings.Contains(err.Error(), "all 3 attempts failed") {
		t.Fatalf("err = %v, want all-attempts wrapper", err)
	}
}

func TestDoLinearBackoff(t *testing.T) {
	p := Policy{MaxAttempts: 3, Backoff: 20 * time.Millisecond}
	start := time.Now()
	_ = p.Do(context.Background(), func(ctx context.Context, attempt int) error {
		return errors.New("timeout")
	})
	// Two sleeps of 20ms and 40ms between the three attempts.
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Fatalf("elapsed = %v, want at least 60ms", elapsed)
	}
}

func TestDoContextCancellation(t *testing.T) {
	p := Policy{MaxAttempts: 10, Backoff: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, func(ctx context.Context, attempt int) error {
			return errors.New("timeout")
		})
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []string{
		"Post \"https://rpc.example\": context deadline exceeded",
		"429 Too Many Requests",
		"read tcp: connection reset by peer",
		"502 Bad Gateway",
		"replacement transaction underpriced",
		"nonce too low",
		"already known",
		"max fee per gas less than max priority fee per gas",
	}
	for _, msg := range retryable {
		if !IsRetryable(errors.New(msg)) {
			t.Errorf("IsRetryable(%q) = false, want true", msg)
		}
	}
	fatal := []string{
		"execution reverted: exceeds max supply",
		"insufficient funds for gas * price + value",
		"invalid signature",
	}
	for _, msg := range fatal {
		if IsRetryable(errors.New(msg)) {
			t.Errorf("IsRetryable(%q) = true, want false", msg)
		}
	}
	if IsRetryable(nil) {
		t.Error("IsRetryable(nil) = true")
	}
}

func TestIsRevertLike(t *testing.T) {
	reverts := []string{
		"execution reverted: minting is paused",
		"execution reverted: wallet is not allowlisted",
		"gas estimation failed: caller is not the owner",
		"insufficient funds for transfer",
	}
	for _, msg := range reverts {
		if !IsRevertLike(errors.New(msg)) {
			t.Errorf("IsRevertLike(%q) = false, want true", msg)
		}
	}
	if IsRevertLike(errors.New("connection refused")) {
		t.Error("IsRevertLike(connection refused) = true, want false")
	}
}

func TestIsFeeMismatch(t *testing.T) {
	if !IsFeeMismatch(errors.New("tx fee cap ERROR: max fee per gas less than max priority fee per gas")) {
		t.Error("known fee mismatch not detected")
	}
	if !IsFeeMismatch(errors.New("MaxFeePerGas cannot be less than MaxPriorityFeePerGas")) {
		t.Error("camel-case fee mismatch not detected")
	}
	if IsFeeMismatch(errors.New("execution reverted")) {
		t.Error("revert misclassified as fee mismatch")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		msg  string
		want Reason
	}{
		{"insufficient funds for gas * price + value", ReasonInsufficientFunds},
		{"MetaMask Tx Signature: User denied transaction signature", ReasonUserRejected},
		{"execution reverted: minting is paused", ReasonPaused},
		{"execution reverted: wallet is not allowlisted", ReasonNotAllowlisted},
		{"chain id mismatch: expected 8453, got 1", ReasonWrongNetwork},
		{"max fee per gas less than max priority fee per gas", ReasonFeeMismatch},
		{"replacement transaction underpriced", ReasonNonceConflict},
		{"nonce too low: next nonce 42", ReasonNonceConflict},
		{"something completely unexpected", ReasonGenericFailure},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			reason, detail := Normalize(errors.New(tt.msg))
			if reason != tt.want {
				t.Errorf("Normalize(%q) = %s, want %s", tt.msg, reason, tt.want)
			}
			if detail == "" {
				t.Errorf("Normalize(%q) returned empty detail", tt.msg)
			}
		})
	}
}
