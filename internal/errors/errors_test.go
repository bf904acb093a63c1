package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestExitCodeMapping(t *testing.T) {
	if got := ExitCode(nil); got != 0 {
		t.Fatalf("nil error should exit 0, got %d", got)
	}
	if got := ExitCode(New(CodeUsage, "bad flag")); got != 2 {
		t.Fatalf("usage error should exit 2, got %d", got)
	}
	if got := ExitCode(stderrors.New("plain")); got != 1 {
		t.Fatalf("untyped error should exit 1, got %d", got)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(CodeFatal, "initialize agent", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("wrapped error should match its cause")
	}
	wrapped := fmt.Errorf("outer: %w", err)
	typed, ok := As(wrapped)
	if !ok || typed.Code != CodeFatal {
		t.Fatalf("expected typed error through wrapping, got %v", wrapped)
	}
	if got := err.Error(); got != "initialize agent: boom" {
		t.Fatalf("unexpected message: %s", got)
	}
}
