// Package wsbridge is the per-client WebSocket duplex bridge: it attaches
// a browser client to a Shared Session, forwards PTY output as binary
// frames, and turns inbound binary/text frames into PTY input and resize
// requests.
//
// Grounded on blaxel-ai-sandbox/sandbox-api's HandleTerminalWS, generalized
// from that teacher's single persistent-session-per-id model to the full
// registry attach/detach + replay + lag-aware receiver loop described in
// spec.md §4.6.
package wsbridge

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/den-labs/termhub/internal/registry"
	"github.com/den-labs/termhub/internal/session"
)

const (
	defaultCols = 80
	defaultRows = 24
)

// controlMessage is the text-frame control schema: {"type":"resize",...}
// or {"type":"input","data":"..."}.
type controlMessage struct {
	Type string `json:"type"`
	Cols uint16 `json:"cols,omitempty"`
	Rows uint16 `json:"rows,omitempty"`
	Data string `json:"data,omitempty"`
}

// Bridge upgrades HTTP connections to WebSocket and bridges them to
// sessions in reg. Authentication is external to this package (spec.md
// §1 non-goal); callers upgrade only after validating the caller's token.
type Bridge struct {
	Registry *registry.Registry
	Upgrader websocket.Upgrader
}

// New returns a Bridge with a permissive CheckOrigin, matching the
// teacher's sandbox-use default (origin checks belong to the deployment
// layer, not this library).
func New(reg *registry.Registry) *Bridge {
	return &Bridge{
		Registry: reg,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and runs the bridge until the client
// disconnects. The caller's router is expected to have already validated
// ?token= before dispatching here.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "default"
	}
	cols := queryUint16(r, "cols", defaultCols)
	rows := queryUint16(r, "rows", defaultRows)

	conn, err := b.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sess, sub, replay, clientID, err := b.Registry.GetOrCreate(name, session.ClientWebSocket, cols, rows)
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(err.Error()))
		return
	}
	defer b.Registry.Detach(name, clientID)
	defer sess.Unsubscribe(sub)

	if len(replay) > 0 {
		if err := conn.WriteMessage(websocket.BinaryMessage, replay); err != nil {
			return
		}
	}

	resizeCh := make(chan [2]uint16, 1)
	done := make(chan struct{})

	go ptyToWS(conn, sub, done)
	go resizeApplier(sess, clientID, resizeCh, done)

	wsToPTY(conn, sess, resizeCh, done)
}

// ptyToWS forwards broadcast output to the client's binary frames until
// the subscriber reports closed (session died), the frame write fails, or
// the WS->PTY side has already ended the bridge.
func ptyToWS(conn *websocket.Conn, sub *session.Subscriber, done <-chan struct{}) {
	chunks := make(chan []byte)
	go func() {
		defer close(chunks)
		for {
			data, ok := sub.Recv()
			if !ok {
				return
			}
			select {
			case chunks <- data:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case data, ok := <-chunks:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// resizeApplier decouples resize-request parsing (in wsToPTY) from
// applying it to the session, mirroring the three-loops-raced-together
// shape spec.md §4.6 describes.
func resizeApplier(sess *session.Shared, clientID uint64, resizeCh <-chan [2]uint16, done <-chan struct{}) {
	for {
		select {
		case rc := <-resizeCh:
			if rc[0] == 0 || rc[1] == 0 {
				continue
			}
			sess.Resize(clientID, rc[0], rc[1])
		case <-done:
			return
		case <-sess.Done():
			return
		}
	}
}

// wsToPTY reads client frames until close or error. Binary frames are raw
// PTY input; text frames are the JSON control schema.
func wsToPTY(conn *websocket.Conn, sess *session.Shared, resizeCh chan<- [2]uint16, done chan struct{}) {
	defer close(done)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if err := sess.WriteInput(data); err != nil {
				logrus.WithError(err).Debug("write input failed")
			}
		case websocket.TextMessage:
			var msg controlMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				logrus.WithError(err).Debug("invalid control message")
				continue
			}
			switch msg.Type {
			case "resize":
				select {
				case resizeCh <- [2]uint16{msg.Cols, msg.Rows}:
				default:
				}
			case "input":
				if err := sess.WriteInput([]byte(msg.Data)); err != nil {
					logrus.WithError(err).Debug("write input failed")
				}
			}
		case websocket.CloseMessage:
			return
		}
	}
}

func queryUint16(r *http.Request, key string, def uint16) uint16 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 16)
	if err != nil {
		return def
	}
	return uint16(n)
}
