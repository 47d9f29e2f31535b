package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeProfileNotFound, "profile not found")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Code != ErrCodeProfileNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeProfileNotFound, err.Code)
	}
	if err.Message != "profile not found" {
		t.Errorf("expected message 'profile not found', got %s", err.Message)
	}
	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInternal, "operation failed", cause)

	if err.Code != ErrCodeInternal {
		t.Errorf("expected code %s, got %s", ErrCodeInternal, err.Code)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be wrapped")
	}
}

func TestWrapWithContext(t *testing.T) {
	cause := errors.New("timeout")
	ctx := map[string]interface{}{
		"command": "rpm-ostree",
		"backend": "rpm-ostree",
	}

	err := WrapWithContext(ErrCodeStuckTransaction, "transaction wait exceeded", cause, ctx)

	if err.Code != ErrCodeStuckTransaction {
		t.Errorf("expected code %s, got %s", ErrCodeStuckTransaction, err.Code)
	}
	if err.Context == nil {
		t.Fatal("expected context to be set")
	}
	if err.Context["command"] != "rpm-ostree" {
		t.Errorf("expected command to be rpm-ostree")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      *StructuredError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(ErrCodeProfileNotFound, "no such profile"),
			expected: "[PROFILE_NOT_FOUND] no such profile",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeInternal, "failed", errors.New("root cause")),
			expected: "[INTERNAL] failed: root cause",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(ErrCodeParse, "bad token")); got != ErrCodeParse {
		t.Errorf("expected %s, got %s", ErrCodeParse, got)
	}

	wrapped := fmt.Errorf("outer: %w", New(ErrCodeRegeneration, "grub2-mkconfig failed"))
	if got := CodeOf(wrapped); got != ErrCodeRegeneration {
		t.Errorf("expected %s through wrap, got %s", ErrCodeRegeneration, got)
	}

	if got := CodeOf(errors.New("plain")); got != ErrCodeInternal {
		t.Errorf("expected fallback %s, got %s", ErrCodeInternal, got)
	}
}

func TestHasCode(t *testing.T) {
	err := Wrap(ErrCodeBackendUnavailable, "daemon unreachable", errors.New("dial unix: no such file"))

	if !HasCode(err, ErrCodeBackendUnavailable) {
		t.Error("expected HasCode to match BACKEND_UNAVAILABLE")
	}
	if HasCode(err, ErrCodeStuckTransaction) {
		t.Error("did not expect HasCode to match STUCK_TRANSACTION")
	}
	if HasCode(errors.New("plain"), ErrCodeInternal) {
		t.Error("plain errors carry no code")
	}
}
