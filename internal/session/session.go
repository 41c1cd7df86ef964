// Package session implements the Shared Session: one PTY paired with a
// replay ring buffer, a broadcast fan-out to any number of attached
// clients, and multi-client resize arbitration.
//
// Grounded on the broadcast/appendBuffer/readLoop shape of
// blaxel-ai-sandbox/sandbox-api's terminal.ManagedSession, generalized to
// the min-over-clients resize rule and the registry's TOCTOU-safe
// create/attach protocol (ported from the Rust original this spec was
// distilled from, src/pty/registry.rs).
package session

import (
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/den-labs/termhub/internal/procgroup"
	"github.com/den-labs/termhub/internal/ringbuf"
	"github.com/den-labs/termhub/internal/termerr"
)

const (
	// ReplayCapacity is the ring buffer's fixed size in bytes (spec's C).
	ReplayCapacity = 64 * 1024

	// BroadcastCapacity is the per-subscriber channel depth (spec's B). A
	// subscriber more than this many chunks behind the writer is lagging;
	// each new chunk is dropped for it while its channel is full, rather
	// than stalling the session.
	BroadcastCapacity = 256

	readChunk = 4096
)

// ClientKind distinguishes which transport a Client Info belongs to.
type ClientKind int

const (
	ClientWebSocket ClientKind = iota
	ClientSSH
)

func (k ClientKind) String() string {
	if k == ClientSSH {
		return "ssh"
	}
	return "websocket"
}

// ClientInfo is the registry's record of one attached client.
type ClientInfo struct {
	ID   uint64
	Kind ClientKind
	Cols uint16
	Rows uint16
}

// Subscriber is an independent receiver of a session's broadcast output.
// Safe to hold even after the session has died: Recv's done channel will
// be ready once the reader task has drained and exited.
type Subscriber struct {
	id   uint64
	ch   chan []byte
	done <-chan struct{} // closed when the session itself dies
}

// Recv blocks until a chunk is available or the session dies. ok is false
// once the session has died and the queue is drained. Unsubscribe does not
// wake a blocked Recv.
func (s *Subscriber) Recv() (data []byte, ok bool) {
	select {
	case data, open := <-s.ch:
		if !open {
			return nil, false
		}
		return data, true
	case <-s.done:
		// Drain whatever is already queued before reporting closed, so a
		// client doesn't miss bytes that raced the final broadcast.
		select {
		case data, open := <-s.ch:
			if open {
				return data, true
			}
		default:
		}
		return nil, false
	}
}

// resizer is the PTY master's resize handle. Pending sizes for it are
// held in Shared.pendingResize: Go has no unbounded MPSC channel
// primitive; a mutex-guarded single slot plus a one-buffered wake signal
// gives the same externally observable behavior (resize is idempotent, so
// only the newest pending value matters).
type resizer interface {
	Resize(cols, rows uint16) error
}

// Shared is one named PTY session shared by any number of attached
// clients.
type Shared struct {
	Name      string
	CreatedAt time.Time

	alive atomic.Bool

	replayMu sync.Mutex
	replay   *ringbuf.Buffer

	subMu     sync.RWMutex
	subs      map[uint64]*Subscriber
	nextSubID atomic.Uint64

	writerMu sync.Mutex
	writer   io.Writer

	resizeMu      sync.Mutex
	pendingResize [2]uint16
	resizeDirty   bool
	resizeWake    chan struct{}

	clientsMu sync.Mutex
	clients   []ClientInfo

	cmdMu sync.Mutex
	cmd   *exec.Cmd
	guard procgroup.Guard

	doneCh chan struct{}
	closeOnce sync.Once
}

// Dependencies bundles the handles a freshly spawned (or externally
// supplied) PTY provides; New wires them into a Shared session and starts
// its reader and resize tasks.
type Dependencies struct {
	Name   string
	Reader io.Reader
	Writer io.Writer
	Master resizer
	Cmd    *exec.Cmd
	Guard  procgroup.Guard
}

// New constructs a Shared session and starts its background reader and
// resize tasks. The caller is expected to insert the result into the
// registry under the TOCTOU-safe protocol before publishing it further.
func New(deps Dependencies) *Shared {
	s := &Shared{
		Name:       deps.Name,
		CreatedAt:  time.Now(),
		replay:     ringbuf.New(ReplayCapacity),
		subs:       make(map[uint64]*Subscriber),
		writer:     deps.Writer,
		cmd:        deps.Cmd,
		guard:      deps.Guard,
		doneCh:     make(chan struct{}),
		resizeWake: make(chan struct{}, 1),
	}
	s.alive.Store(true)

	go s.readLoop(deps.Reader)
	go s.resizeLoop(deps.Master)

	return s
}

// readLoop is the session's single PTY reader: it is the exclusive writer
// of the replay buffer and the sole publisher to subscribers. Started
// once at creation and never restarted.
func (s *Shared) readLoop(reader io.Reader) {
	buf := make([]byte, readChunk)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])

			s.replayMu.Lock()
			s.replay.Write(chunk)
			s.replayMu.Unlock()

			s.broadcast(chunk)
		}
		if err != nil {
			break
		}
	}

	s.alive.Store(false)
	s.closeOnce.Do(func() { close(s.doneCh) })
}

// broadcast fans a chunk out to every subscriber. A subscriber whose
// channel is full is lagging: it misses this chunk only, logged and
// otherwise ignored, per the lag policy (never back-pressures the
// session, never closes the subscriber's transport).
func (s *Shared) broadcast(data []byte) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	for id, sub := range s.subs {
		select {
		case sub.ch <- data:
		default:
			logrus.WithFields(logrus.Fields{
				"session":    s.Name,
				"subscriber": id,
			}).Warn("subscriber lagging, dropping chunk")
		}
	}
}

// resizeLoop consumes coalesced resize requests and applies them to the
// PTY master. Termination is implicit: it exits once doneCh closes, same
// as the reader task's lifetime tied to session death.
func (s *Shared) resizeLoop(master resizer) {
	for {
		select {
		case <-s.resizeWake:
			s.resizeMu.Lock()
			cols, rows := s.pendingResize[0], s.pendingResize[1]
			s.resizeDirty = false
			s.resizeMu.Unlock()

			if cols == 0 || rows == 0 {
				continue
			}
			if err := master.Resize(cols, rows); err != nil {
				logrus.WithError(err).WithField("session", s.Name).Warn("resize failed")
			}
		case <-s.doneCh:
			return
		}
	}
}

func (s *Shared) requestResize(cols, rows uint16) {
	s.resizeMu.Lock()
	s.pendingResize = [2]uint16{cols, rows}
	s.resizeDirty = true
	s.resizeMu.Unlock()

	select {
	case s.resizeWake <- struct{}{}:
	default:
		// A wake is already pending; the loop will pick up the latest value.
	}
}

// IsAlive reports whether the reader task is still running.
func (s *Shared) IsAlive() bool {
	return s.alive.Load()
}

// Done returns a channel closed once the session has died.
func (s *Shared) Done() <-chan struct{} {
	return s.doneCh
}

// WriteInput serializes input through the PTY writer. Fails once the
// session is dead.
func (s *Shared) WriteInput(data []byte) error {
	if !s.IsAlive() {
		return termerr.Dead(s.Name)
	}
	s.writerMu.Lock()
	defer s.writerMu.Unlock()
	if _, err := s.writer.Write(data); err != nil {
		return termerr.WriteFailed(err)
	}
	return nil
}

// Subscribe registers a new receiver of broadcast output. Safe at any
// time, even after the session has died (Recv will then drain and report
// closed).
func (s *Shared) Subscribe() *Subscriber {
	sub := &Subscriber{
		id:   s.nextSubID.Add(1),
		ch:   make(chan []byte, BroadcastCapacity),
		done: s.doneCh,
	}
	s.subMu.Lock()
	s.subs[sub.id] = sub
	s.subMu.Unlock()
	return sub
}

// Unsubscribe removes a subscriber so broadcast stops referencing it.
func (s *Shared) Unsubscribe(sub *Subscriber) {
	s.subMu.Lock()
	delete(s.subs, sub.id)
	s.subMu.Unlock()
}

// ReplaySnapshot returns a copy of the current replay buffer contents.
func (s *Shared) ReplaySnapshot() []byte {
	s.replayMu.Lock()
	defer s.replayMu.Unlock()
	return s.replay.ReadAll()
}

// AddClient registers a Client Info and recomputes the resize target.
func (s *Shared) AddClient(id uint64, kind ClientKind, cols, rows uint16) {
	s.clientsMu.Lock()
	s.clients = append(s.clients, ClientInfo{ID: id, Kind: kind, Cols: cols, Rows: rows})
	s.recalculateSizeLocked()
	s.clientsMu.Unlock()
}

// RemoveClient drops a Client Info by id (no-op if absent) and
// recomputes the resize target if any clients remain.
func (s *Shared) RemoveClient(id uint64) (remaining int) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	out := s.clients[:0]
	for _, c := range s.clients {
		if c.ID != id {
			out = append(out, c)
		}
	}
	s.clients = out

	if len(s.clients) > 0 {
		s.recalculateSizeLocked()
	}
	return len(s.clients)
}

// Resize updates one client's reported viewport and recomputes the
// min-over-clients size sent to the PTY master.
func (s *Shared) Resize(clientID uint64, cols, rows uint16) {
	s.clientsMu.Lock()
	for i := range s.clients {
		if s.clients[i].ID == clientID {
			s.clients[i].Cols = cols
			s.clients[i].Rows = rows
			break
		}
	}
	s.recalculateSizeLocked()
	s.clientsMu.Unlock()
}

// ClientCount returns the number of currently attached clients.
func (s *Shared) ClientCount() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

// recalculateSizeLocked applies the min-over-clients rule: the size sent
// to the PTY is (min cols, min rows) across all attached clients. With no
// clients, no resize is emitted — callers must hold clientsMu.
func (s *Shared) recalculateSizeLocked() {
	if len(s.clients) == 0 {
		return
	}
	minCols, minRows := s.clients[0].Cols, s.clients[0].Rows
	for _, c := range s.clients[1:] {
		if c.Cols < minCols {
			minCols = c.Cols
		}
		if c.Rows < minRows {
			minRows = c.Rows
		}
	}
	s.requestResize(minCols, minRows)
}

// TakeChild removes and returns the child process handle, so destroy can
// move it onto a goroutine that kills and waits on it without holding any
// session lock.
func (s *Shared) TakeChild() *exec.Cmd {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()
	cmd := s.cmd
	s.cmd = nil
	return cmd
}

// Guard returns the session's process-group guard, if any.
func (s *Shared) Guard() procgroup.Guard {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()
	return s.guard
}

// MarkDead flips alive to false without waiting for the reader task to
// observe EOF; used by destroy so write_input fails immediately.
func (s *Shared) MarkDead() {
	s.alive.Store(false)
}
