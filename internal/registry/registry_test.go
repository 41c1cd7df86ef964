package registry

import (
	"io"
	"sync"
	"testing"

	"github.com/den-labs/termhub/internal/session"
	"github.com/den-labs/termhub/internal/termerr"
)

func TestIsValidName(t *testing.T) {
	cases := []struct {
		name string
		ok   bool
	}{
		{"default", true},
		{"build-1", true},
		{"", false},
		{"has space", false},
		{"has/slash", false},
		{string(make([]byte, 65)), false},
	}
	for _, c := range cases {
		if got := IsValidName(c.name); got != c.ok {
			t.Errorf("IsValidName(%q) = %v, want %v", c.name, got, c.ok)
		}
	}
}

func TestCreateRejectsInvalidName(t *testing.T) {
	r := New("/bin/sh")
	_, err := r.Create("bad name", 80, 24)
	if kind, ok := termerr.KindOf(err); !ok || kind != termerr.KindInvalidName {
		t.Fatalf("got %v, want InvalidName", err)
	}
}

func TestAttachNotFound(t *testing.T) {
	r := New("/bin/sh")
	_, _, _, _, err := r.Attach("missing", session.ClientWebSocket, 80, 24)
	if kind, ok := termerr.KindOf(err); !ok || kind != termerr.KindNotFound {
		t.Fatalf("got %v, want NotFound", err)
	}
}

// TestConcurrentCreateRace exercises the TOCTOU-safe create path: many
// goroutines racing Create for the same name must see exactly one
// success and the rest AlreadyExists, with no name left absent from the
// map after all calls return.
func TestConcurrentCreateRace(t *testing.T) {
	r := New("/bin/sh")
	const name = "race"
	const n = 16

	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.authoritativeInsertForTest(name, fakeShared(name))
			results[i] = err
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		if kind, ok := termerr.KindOf(err); !ok || kind != termerr.KindAlreadyExists {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("got %d successes, want exactly 1", successes)
	}
	if !r.Exists(name) {
		t.Fatal("expected session present after race")
	}
}

func TestDestroyRemovesFromList(t *testing.T) {
	r := New("/bin/sh")
	sess := fakeShared("doomed")
	if _, err := r.authoritativeInsertForTest("doomed", sess); err != nil {
		t.Fatal(err)
	}
	r.Destroy("doomed")
	if r.Exists("doomed") {
		t.Fatal("expected session removed after Destroy")
	}
}

// authoritativeInsertForTest exposes the unexported race-handling path so
// tests can exercise it without spawning a real PTY.
func (r *Registry) authoritativeInsertForTest(name string, sess *session.Shared) (*session.Shared, error) {
	return r.authoritativeInsert(name, sess)
}

func fakeShared(name string) *session.Shared {
	pr, _ := io.Pipe()
	return session.New(session.Dependencies{
		Name:   name,
		Reader: pr,
		Writer: io.Discard,
	})
}
