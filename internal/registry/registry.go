// Package registry implements the Session Registry: a name-addressed map
// of Shared Sessions with TOCTOU-safe create/attach, lock-ordering
// discipline (registry lock released before any per-session inner lock is
// taken), and lazy reaping of dead sessions.
//
// Grounded on the create/attach/get_or_create double-checked-lock protocol
// of the Rust original this spec was distilled from
// (original_source/src/pty/registry.rs), re-expressed with Go's
// sync.RWMutex in place of tokio::sync::RwLock.
package registry

import (
	"os/exec"
	"regexp"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/den-labs/termhub/internal/procgroup"
	"github.com/den-labs/termhub/internal/ptyspawn"
	"github.com/den-labs/termhub/internal/session"
	"github.com/den-labs/termhub/internal/termerr"
)

var sessionNamePattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

// IsValidName reports whether name satisfies the session-name grammar:
// non-empty, at most 64 characters, alphanumeric or hyphen only.
func IsValidName(name string) bool {
	return sessionNamePattern.MatchString(name)
}

var nextClientID atomic.Uint64

// Info is the list()-facing view of one session.
type Info struct {
	Name        string
	CreatedAt   int64
	Alive       bool
	ClientCount int
}

// Registry owns every named Shared Session reachable by clients.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session.Shared
	shell    string
}

// New returns an empty Registry that spawns the given default shell
// command for Create.
func New(shell string) *Registry {
	return &Registry{
		sessions: make(map[string]*session.Shared),
		shell:    shell,
	}
}

// Create spawns a new default-shell PTY session under name. TOCTOU-safe:
// a fast existence check avoids spawning in the common case, then an
// authoritative re-check under the write lock catches the race where two
// callers create the same name concurrently — the loser gets
// AlreadyExists and its child is killed and waited on a background
// goroutine.
func (r *Registry) Create(name string, cols, rows uint16) (*session.Shared, error) {
	if !IsValidName(name) {
		return nil, termerr.InvalidName(name)
	}

	r.mu.RLock()
	_, exists := r.sessions[name]
	r.mu.RUnlock()
	if exists {
		return nil, termerr.AlreadyExists(name)
	}

	pty, err := ptyspawn.Spawn(r.shell, nil, cols, rows)
	if err != nil {
		return nil, termerr.SpawnFailed(err)
	}

	sess := session.New(session.Dependencies{
		Name:   name,
		Reader: pty.Reader,
		Writer: pty.Writer,
		Master: pty,
		Cmd:    pty.Cmd,
		Guard:  pty.Guard,
	})

	return r.authoritativeInsert(name, sess)
}

// CreateWithPTY wires an already-spawned PTY (e.g. running an embedded
// CLI rather than the default shell) into a new managed session, under
// the same TOCTOU-safe handshake as Create.
func (r *Registry) CreateWithPTY(name string, pty *ptyspawn.Session) (*session.Shared, error) {
	if !IsValidName(name) {
		return nil, termerr.InvalidName(name)
	}

	r.mu.RLock()
	_, exists := r.sessions[name]
	r.mu.RUnlock()
	if exists {
		return nil, termerr.AlreadyExists(name)
	}

	sess := session.New(session.Dependencies{
		Name:   name,
		Reader: pty.Reader,
		Writer: pty.Writer,
		Master: pty,
		Cmd:    pty.Cmd,
		Guard:  pty.Guard,
	})

	return r.authoritativeInsert(name, sess)
}

// authoritativeInsert takes the write lock, re-checks for a race, and
// either inserts sess or — if another caller won the race — marks sess
// dead and kills its child on a background goroutine before returning
// AlreadyExists. Never block the write lock on the child kill/wait.
func (r *Registry) authoritativeInsert(name string, sess *session.Shared) (*session.Shared, error) {
	r.mu.Lock()
	if _, exists := r.sessions[name]; exists {
		r.mu.Unlock()

		sess.MarkDead()
		if cmd := sess.TakeChild(); cmd != nil {
			go killAndWait(name, cmd, sess.Guard())
		}
		return nil, termerr.AlreadyExists(name)
	}
	r.sessions[name] = sess
	r.mu.Unlock()

	logrus.WithField("session", name).Info("session created")
	return sess, nil
}

// Attach adds a Client Info to an existing alive session and returns the
// session, a fresh broadcast receiver, a snapshot of the replay buffer,
// and the newly allocated client id.
func (r *Registry) Attach(name string, kind session.ClientKind, cols, rows uint16) (*session.Shared, *session.Subscriber, []byte, uint64, error) {
	r.mu.RLock()
	sess, ok := r.sessions[name]
	r.mu.RUnlock()
	if !ok {
		return nil, nil, nil, 0, termerr.NotFound(name)
	}

	if !sess.IsAlive() {
		return nil, nil, nil, 0, termerr.Dead(name)
	}

	clientID := nextClientID.Add(1)
	sess.AddClient(clientID, kind, cols, rows)
	sub := sess.Subscribe()
	replay := sess.ReplaySnapshot()

	logrus.WithFields(logrus.Fields{
		"session": name, "client": clientID, "kind": kind,
	}).Info("client attached")

	return sess, sub, replay, clientID, nil
}

// GetOrCreate attaches to name, creating it first if it doesn't exist or
// has died. If a concurrent caller wins the creation race, it retries
// attach exactly once.
func (r *Registry) GetOrCreate(name string, kind session.ClientKind, cols, rows uint16) (*session.Shared, *session.Subscriber, []byte, uint64, error) {
	sess, sub, replay, clientID, err := r.Attach(name, kind, cols, rows)
	if err == nil {
		return sess, sub, replay, clientID, nil
	}

	k, ok := termerr.KindOf(err)
	if !ok || (k != termerr.KindNotFound && k != termerr.KindDead) {
		return nil, nil, nil, 0, err
	}
	if k == termerr.KindDead {
		r.RemoveDead(name)
	}

	created, err := r.Create(name, cols, rows)
	if err == nil {
		clientID := nextClientID.Add(1)
		created.AddClient(clientID, kind, cols, rows)
		sub := created.Subscribe()
		replay := created.ReplaySnapshot()

		logrus.WithFields(logrus.Fields{
			"session": name, "client": clientID, "kind": kind,
		}).Info("client created+attached")

		return created, sub, replay, clientID, nil
	}

	if k, ok := termerr.KindOf(err); ok && k == termerr.KindAlreadyExists {
		return r.Attach(name, kind, cols, rows)
	}
	return nil, nil, nil, 0, err
}

// Detach removes a Client Info by id (no-op if already gone) and
// recomputes the resize target for any clients that remain.
func (r *Registry) Detach(name string, clientID uint64) {
	r.mu.RLock()
	sess, ok := r.sessions[name]
	r.mu.RUnlock()
	if !ok {
		return
	}

	remaining := sess.RemoveClient(clientID)
	logrus.WithFields(logrus.Fields{
		"session": name, "client": clientID, "remaining": remaining,
	}).Info("client detached")
}

// List returns every known session's summary, sorted by creation time
// ascending.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*session.Shared, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.Before(sessions[j].CreatedAt) })

	out := make([]Info, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, Info{
			Name:        sess.Name,
			CreatedAt:   sess.CreatedAt.Unix(),
			Alive:       sess.IsAlive(),
			ClientCount: sess.ClientCount(),
		})
	}
	return out
}

// Destroy removes name from the map, marks it dead, terminates its
// process-group guard, and kills+waits its child on a background
// goroutine. Map removal is synchronous; child reaping is not — callers
// can rely on the session being absent from the next List() call.
func (r *Registry) Destroy(name string) {
	r.mu.Lock()
	sess, ok := r.sessions[name]
	if ok {
		delete(r.sessions, name)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	sess.MarkDead()

	if guard := sess.Guard(); guard != nil {
		if err := guard.Terminate(); err != nil {
			logrus.WithError(err).WithField("session", name).Warn("process group terminate failed")
		}
	}

	if cmd := sess.TakeChild(); cmd != nil {
		go killAndWait(name, cmd, nil)
	}

	logrus.WithField("session", name).Info("session destroyed")
}

// killAndWait runs off the caller's goroutine: terminates the
// process-group guard (if not already done by the caller), kills the
// child, and waits on it so it doesn't become a zombie. Used both for
// destroy's reaper and for cleaning up a TOCTOU race loser's child.
func killAndWait(name string, cmd *exec.Cmd, guard procgroup.Guard) {
	if guard != nil {
		if err := guard.Terminate(); err != nil {
			logrus.WithError(err).WithField("session", name).Debug("race-loser guard terminate")
		}
	}
	if cmd.Process != nil {
		if err := cmd.Process.Kill(); err != nil {
			logrus.WithError(err).WithField("session", name).Debug("child kill")
		}
	}
	if err := cmd.Wait(); err != nil {
		logrus.WithError(err).WithField("session", name).Debug("child wait")
	}
}

// Exists reports whether name is currently present in the map (alive or
// dead).
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[name]
	return ok
}

// Get returns the session for name, if present.
func (r *Registry) Get(name string) (*session.Shared, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[name]
	return sess, ok
}

// RemoveDead atomically removes name if it is present and no longer
// alive.
func (r *Registry) RemoveDead(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[name]; ok && !sess.IsAlive() {
		delete(r.sessions, name)
	}
}
