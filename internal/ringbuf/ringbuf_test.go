package ringbuf

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestEmptyBuffer(t *testing.T) {
	b := New(64)
	if got := b.ReadAll(); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestSimpleWriteRead(t *testing.T) {
	b := New(64)
	b.Write([]byte("hello"))
	if got := string(b.ReadAll()); got != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestWrapAround(t *testing.T) {
	b := New(8)
	b.Write([]byte("12345678"))
	b.Write([]byte("AB"))
	if got := string(b.ReadAll()); got != "345678AB" {
		t.Fatalf("got %q, want %q", got, "345678AB")
	}
}

func TestMultipleWrites(t *testing.T) {
	b := New(16)
	b.Write([]byte("aaa"))
	b.Write([]byte("bbb"))
	if got := string(b.ReadAll()); got != "aaabbb" {
		t.Fatalf("got %q", got)
	}
}

func TestOverwriteMultipleTimes(t *testing.T) {
	b := New(4)
	b.Write([]byte("abcdef"))
	if got := string(b.ReadAll()); got != "cdef" {
		t.Fatalf("got %q", got)
	}
	b.Write([]byte("gh"))
	if got := string(b.ReadAll()); got != "efgh" {
		t.Fatalf("got %q", got)
	}
}

func TestZeroCapacity(t *testing.T) {
	b := New(0)
	b.Write([]byte("test"))
	if got := b.ReadAll(); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

// TestReplayCorrectness verifies property 1: read_all() equals the last
// min(L, C) bytes of the concatenation of all writes, for varied write
// chunking and capacities.
func TestReplayCorrectness(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, capacity := range []int{1, 7, 8, 64, 1024} {
		b := New(capacity)
		var all []byte
		for i := 0; i < 50; i++ {
			n := rng.Intn(37)
			chunk := make([]byte, n)
			rng.Read(chunk)
			all = append(all, chunk...)
			b.Write(chunk)
		}

		want := all
		if len(want) > capacity {
			want = want[len(want)-capacity:]
		}
		if got := b.ReadAll(); !bytes.Equal(got, want) {
			t.Fatalf("capacity=%d: got %d bytes, want %d bytes", capacity, len(got), len(want))
		}
	}
}
