package session

import (
	"io"
	"os/exec"
	"testing"
	"time"
)

// fakeMaster records every Resize call so tests can assert the
// min-over-clients rule without a real PTY.
type fakeMaster struct {
	calls chan [2]uint16
}

func newFakeMaster() *fakeMaster {
	return &fakeMaster{calls: make(chan [2]uint16, 16)}
}

func (f *fakeMaster) Resize(cols, rows uint16) error {
	f.calls <- [2]uint16{cols, rows}
	return nil
}

func newTestSession(t *testing.T) (*Shared, io.WriteCloser, *fakeMaster) {
	t.Helper()
	pr, pw := io.Pipe()
	master := newFakeMaster()
	s := New(Dependencies{
		Name:   "test",
		Reader: pr,
		Writer: io.Discard,
		Master: master,
	})
	t.Cleanup(func() { pw.Close() })
	return s, pw, master
}

func TestSubscribeReceivesBroadcast(t *testing.T) {
	s, pw, _ := newTestSession(t)
	sub := s.Subscribe()

	go pw.Write([]byte("hello"))

	data, ok := sub.Recv()
	if !ok {
		t.Fatal("expected data, got closed")
	}
	if string(data) != "hello" {
		t.Fatalf("got %q", data)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s, pw, _ := newTestSession(t)
	sub := s.Subscribe()
	s.Unsubscribe(sub)

	go pw.Write([]byte("hello"))
	time.Sleep(20 * time.Millisecond)

	select {
	case <-sub.ch:
		t.Fatal("unsubscribed subscriber should not receive data")
	default:
	}
}

func TestReplaySnapshotAfterWrite(t *testing.T) {
	s, pw, _ := newTestSession(t)
	sub := s.Subscribe()
	go pw.Write([]byte("abc"))
	if _, ok := sub.Recv(); !ok {
		t.Fatal("expected data")
	}

	if got := string(s.ReplaySnapshot()); got != "abc" {
		t.Fatalf("got %q", got)
	}
}

func TestDeathClosesSubscribers(t *testing.T) {
	s, pw, _ := newTestSession(t)
	sub := s.Subscribe()
	pw.Close()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session never marked dead")
	}

	if _, ok := sub.Recv(); ok {
		t.Fatal("expected subscriber closed after session death")
	}
	if s.IsAlive() {
		t.Fatal("expected IsAlive() == false")
	}
}

func TestWriteInputFailsAfterDeath(t *testing.T) {
	s, pw, _ := newTestSession(t)
	pw.Close()
	<-s.Done()

	if err := s.WriteInput([]byte("x")); err == nil {
		t.Fatal("expected error writing to dead session")
	}
}

func TestResizeIsMinOverClients(t *testing.T) {
	s, _, master := newTestSession(t)

	s.AddClient(1, ClientWebSocket, 100, 50)
	if got := <-master.calls; got != [2]uint16{100, 50} {
		t.Fatalf("got %v", got)
	}

	s.AddClient(2, ClientSSH, 80, 24)
	if got := <-master.calls; got != [2]uint16{80, 24} {
		t.Fatalf("got %v, want min(80,100)x min(24,50)", got)
	}

	s.Resize(1, 60, 90)
	if got := <-master.calls; got != [2]uint16{60, 24} {
		t.Fatalf("got %v, want min(60,80)x min(90,24)", got)
	}
}

func TestRemoveClientRecomputesSize(t *testing.T) {
	s, _, master := newTestSession(t)
	s.AddClient(1, ClientWebSocket, 100, 50)
	<-master.calls
	s.AddClient(2, ClientSSH, 80, 24)
	<-master.calls

	remaining := s.RemoveClient(2)
	if remaining != 1 {
		t.Fatalf("got %d remaining, want 1", remaining)
	}
	if got := <-master.calls; got != [2]uint16{100, 50} {
		t.Fatalf("got %v, want the sole remaining client's size", got)
	}
}

func TestTakeChildReturnsOnce(t *testing.T) {
	s := New(Dependencies{
		Name:   "test",
		Reader: io.NopCloser(nopReader{}),
		Writer: io.Discard,
		Master: newFakeMaster(),
		Cmd:    &exec.Cmd{},
	})

	if s.TakeChild() == nil {
		t.Fatal("expected non-nil child on first call")
	}
	if s.TakeChild() != nil {
		t.Fatal("expected nil child on second call")
	}
}

type nopReader struct{}

func (nopReader) Read(p []byte) (int, error) { select {} }
