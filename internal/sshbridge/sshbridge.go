// Package sshbridge exposes the session registry over SSH: password auth,
// a "default" shell on bare `ssh`/`shell`, and `list`/`attach
// <name>`/`new <name>` exec commands, with window-change driving resize.
//
// Grounded on the gliderlabs/ssh wiring shape of
// Tonksthebear-trybotster's deprecated go-hub sshserver.go (PtyCallback,
// Session.Pty()'s window-change channel, session as io.ReadWriter) and on
// the exec-command grammar and password/detach discipline of the Rust
// original this spec was distilled from (original_source/src/ssh/server.rs).
package sshbridge

import (
	"crypto/subtle"
	"fmt"
	"io"
	"strings"
	"time"

	gssh "github.com/gliderlabs/ssh"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/den-labs/termhub/internal/registry"
	"github.com/den-labs/termhub/internal/session"
)

const (
	authRejectDelay = 3 * time.Second
	idleTimeout     = time.Hour
	defaultCols     = 80
	defaultRows     = 24
)

// Bridge runs an SSH server that exposes reg's sessions as shell/exec
// channels.
type Bridge struct {
	Registry *registry.Registry
	Password string
}

// New returns a Bridge authenticating with password (compared in
// constant time).
func New(reg *registry.Registry, password string) *Bridge {
	return &Bridge{Registry: reg, Password: password}
}

// Server builds the gliderlabs/ssh.Server for this bridge, bound to addr,
// using the host key loaded or generated under dataDir.
func (b *Bridge) Server(addr, dataDir string) (*gssh.Server, error) {
	hostKey, err := LoadOrGenerateHostKey(dataDir)
	if err != nil {
		return nil, fmt.Errorf("host key: %w", err)
	}

	srv := &gssh.Server{
		Addr:        addr,
		IdleTimeout: idleTimeout,
		Handler:     b.handleSession,
		PasswordHandler: func(ctx gssh.Context, password string) bool {
			ok := constantTimeEq(password, b.Password)
			if !ok {
				logrus.Warn("SSH auth: password rejected")
				time.Sleep(authRejectDelay)
				return false
			}
			logrus.Info("SSH auth: password accepted")
			return true
		},
		PtyCallback: func(ctx gssh.Context, pty gssh.Pty) bool { return true },
	}
	srv.AddHostKey(hostKey)

	return srv, nil
}

// handleSession is the per-connection entry point. A bare `ssh host` or
// `shell` request attaches to "default"; `exec "..."` dispatches on its
// first whitespace-delimited token. Each connection gets a correlation id
// threaded through every log line it produces, so one client's lines can
// be told apart from another's in a multi-session log stream.
func (b *Bridge) handleSession(s gssh.Session) {
	connID := uuid.New().String()
	log := logrus.WithField("conn", connID)

	cmd := s.Command()
	if len(cmd) == 0 {
		b.attachAndBridge(s, "default", log)
		return
	}

	raw := strings.TrimSpace(s.RawCommand())
	parts := strings.SplitN(raw, " ", 2)
	verb := parts[0]
	arg := ""
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}

	switch verb {
	case "list":
		b.writeListing(s)
	case "attach":
		if arg == "" {
			fmt.Fprint(s, "Usage: attach <session-name>\r\n")
			return
		}
		b.attachAndBridge(s, arg, log)
	case "new":
		if arg == "" {
			fmt.Fprint(s, "Usage: new <session-name>\r\n")
			return
		}
		if b.writeNewCollision(s, arg) {
			return
		}
		b.attachAndBridge(s, arg, log)
	default:
		b.attachAndBridge(s, "default", log)
	}
}

func (b *Bridge) writeListing(w io.Writer) {
	sessions := b.Registry.List()
	if len(sessions) == 0 {
		fmt.Fprint(w, "No active sessions\r\n")
		return
	}
	fmt.Fprint(w, "Sessions:\r\n")
	for _, info := range sessions {
		status := "dead"
		if info.Alive {
			status = "alive"
		}
		fmt.Fprintf(w, "  %s (%s, %d clients)\r\n", info.Name, status, info.ClientCount)
	}
}

// writeNewCollision reports whether name already exists, writing the
// collision message to w if so. Split out from handleSession's "new"
// branch so the message format can be tested without a real SSH session.
func (b *Bridge) writeNewCollision(w io.Writer, name string) bool {
	if !b.Registry.Exists(name) {
		return false
	}
	fmt.Fprintf(w, "Session already exists: %s\r\n", name)
	return true
}

// attachAndBridge gets-or-creates name, replays its scrollback, and
// bridges PTY output/input/resize against the SSH channel until the
// client disconnects.
func (b *Bridge) attachAndBridge(s gssh.Session, name string, log *logrus.Entry) {
	cols, rows := defaultCols, defaultRows
	ptyReq, winCh, isPTY := s.Pty()
	if isPTY {
		cols, rows = ptyReq.Window.Width, ptyReq.Window.Height
	}

	sess, sub, replay, clientID, err := b.Registry.GetOrCreate(name, session.ClientSSH, uint16(cols), uint16(rows))
	if err != nil {
		fmt.Fprintf(s, "%s\r\n", err.Error())
		return
	}
	defer b.Registry.Detach(name, clientID)
	defer sess.Unsubscribe(sub)

	log.WithField("session", name).Info("ssh client attached")

	if len(replay) > 0 {
		_, _ = s.Write(replay)
	}

	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case win, ok := <-winCh:
				if !ok {
					return
				}
				sess.Resize(clientID, uint16(win.Width), uint16(win.Height))
			case <-done:
				return
			}
		}
	}()

	go func() {
		for {
			data, ok := sub.Recv()
			if !ok {
				return
			}
			if _, err := s.Write(data); err != nil {
				return
			}
			select {
			case <-done:
				return
			default:
			}
		}
	}()

	buf := make([]byte, 4096)
	for {
		n, err := s.Read(buf)
		if n > 0 {
			if werr := sess.WriteInput(buf[:n]); werr != nil {
				log.WithError(werr).Debug("ssh write input failed")
			}
		}
		if err != nil {
			return
		}
	}
}

func constantTimeEq(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
