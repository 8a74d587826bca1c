package util

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestPoolExhaustedErrorUnwrap(t *testing.T) {
	err := &PoolExhaustedError{Device: "olt-ny-01", Max: 2, Timeout: "5s"}
	if !errors.Is(err, ErrPoolExhausted) {
		t.Error("PoolExhaustedError should unwrap to ErrPoolExhausted")
	}
	if got := Classify(err); got != "pool-exhausted" {
		t.Errorf("Classify = %q, want pool-exhausted", got)
	}
}

func TestConnectionErrorContext(t *testing.T) {
	inner := errors.New("dial tcp: i/o timeout")
	err := NewConnectionError("olt-ny-01", "10.0.0.1:23", inner)
	if !errors.Is(err, ErrConnection) {
		t.Error("ConnectionError should unwrap to ErrConnection")
	}
	msg := err.Error()
	for _, want := range []string{"olt-ny-01", "10.0.0.1:23", "i/o timeout"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q missing %q", msg, want)
		}
	}
}

func TestGenerationErrorClassify(t *testing.T) {
	err := NewGenerationError("huawei-olt", "frobnicate", "unknown action")
	if !errors.Is(err, ErrGeneration) {
		t.Error("GenerationError should unwrap to ErrGeneration")
	}
	// Wrapping must preserve classification
	wrapped := fmt.Errorf("request rejected: %w", err)
	if got := Classify(wrapped); got != "generation-error" {
		t.Errorf("Classify(wrapped) = %q, want generation-error", got)
	}
}

func TestClassifyUnknown(t *testing.T) {
	if got := Classify(errors.New("boom")); got != "internal" {
		t.Errorf("Classify = %q, want internal", got)
	}
	if got := Classify(nil); got != "" {
		t.Errorf("Classify(nil) = %q, want empty", got)
	}
}

func TestRollbackErrorSeverity(t *testing.T) {
	err := &RollbackError{Device: "olt-ny-01", ChangeID: "abc", Err: errors.New("link down")}
	if !errors.Is(err, ErrRollbackFailed) {
		t.Error("RollbackError should unwrap to ErrRollbackFailed")
	}
	if got := Classify(err); got != "rollback-failed" {
		t.Errorf("Classify = %q, want rollback-failed", got)
	}
}
