package sshbridge

import (
	"bytes"
	"strings"
	"testing"

	"github.com/den-labs/termhub/internal/registry"
)

func TestWriteListingNoActiveSessions(t *testing.T) {
	reg := registry.New("/bin/sh")
	b := New(reg, "secret")

	var buf bytes.Buffer
	b.writeListing(&buf)

	if got, want := buf.String(), "No active sessions\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestWriteListingFormatsInCreationOrder(t *testing.T) {
	reg := registry.New("/bin/sh")
	if _, err := reg.Create("alpha", 80, 24); err != nil {
		t.Fatalf("create alpha: %v", err)
	}
	defer reg.Destroy("alpha")
	if _, err := reg.Create("beta", 80, 24); err != nil {
		t.Fatalf("create beta: %v", err)
	}
	defer reg.Destroy("beta")

	b := New(reg, "secret")
	var buf bytes.Buffer
	b.writeListing(&buf)

	out := buf.String()
	if !strings.HasPrefix(out, "Sessions:\r\n") {
		t.Fatalf("missing header: %q", out)
	}
	if !strings.Contains(out, "  alpha (alive, 0 clients)\r\n") {
		t.Fatalf("missing alpha line: %q", out)
	}
	if !strings.Contains(out, "  beta (alive, 0 clients)\r\n") {
		t.Fatalf("missing beta line: %q", out)
	}

	alphaIdx := strings.Index(out, "alpha")
	betaIdx := strings.Index(out, "beta")
	if alphaIdx == -1 || betaIdx == -1 || alphaIdx > betaIdx {
		t.Fatalf("expected alpha before beta (creation order), got %q", out)
	}
}

func TestWriteNewCollisionWhenNameTaken(t *testing.T) {
	reg := registry.New("/bin/sh")
	if _, err := reg.Create("dup", 80, 24); err != nil {
		t.Fatalf("create: %v", err)
	}
	defer reg.Destroy("dup")

	b := New(reg, "secret")
	var buf bytes.Buffer
	if !b.writeNewCollision(&buf, "dup") {
		t.Fatal("expected collision to be reported")
	}
	if got, want := buf.String(), "Session already exists: dup\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestWriteNewCollisionWhenNameFree(t *testing.T) {
	reg := registry.New("/bin/sh")
	b := New(reg, "secret")

	var buf bytes.Buffer
	if b.writeNewCollision(&buf, "fresh") {
		t.Fatal("expected no collision for an unused name")
	}
	if buf.Len() != 0 {
		t.Fatalf("expected nothing written, got %q", buf.String())
	}
}

func TestConstantTimeEq(t *testing.T) {
	if !constantTimeEq("swordfish", "swordfish") {
		t.Fatal("expected matching passwords to compare equal")
	}
	if constantTimeEq("swordfish", "wrong") {
		t.Fatal("expected mismatched passwords to compare unequal")
	}
	if constantTimeEq("short", "muchlonger") {
		t.Fatal("expected differing lengths to compare unequal")
	}
}
