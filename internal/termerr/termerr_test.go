package termerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfMatchesConstructor(t *testing.T) {
	cases := []struct {
		err  error
		kind Kind
	}{
		{InvalidName("x"), KindInvalidName},
		{AlreadyExists("x"), KindAlreadyExists},
		{NotFound("x"), KindNotFound},
		{Dead("x"), KindDead},
		{SpawnFailed(errors.New("boom")), KindSpawnFailed},
		{WriteFailed(errors.New("boom")), KindWriteFailed},
		{Internal("boom"), KindInternal},
	}
	for _, c := range cases {
		kind, ok := KindOf(c.err)
		if !ok || kind != c.kind {
			t.Errorf("KindOf(%v) = %v, %v; want %v, true", c.err, kind, ok, c.kind)
		}
	}
}

func TestKindOfUnwrapsWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", NotFound("x"))
	kind, ok := KindOf(wrapped)
	if !ok || kind != KindNotFound {
		t.Fatalf("got %v, %v", kind, ok)
	}
}

func TestKindOfRejectsPlainError(t *testing.T) {
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Fatal("expected ok=false for a non-termerr error")
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := SpawnFailed(errors.New("exec: not found"))
	if got := err.Error(); got != "PTY spawn failed: exec: not found" {
		t.Fatalf("got %q", got)
	}
}
