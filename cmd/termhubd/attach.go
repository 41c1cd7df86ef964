package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"

	"github.com/gorilla/websocket"
	"golang.org/x/term"
)

// runAttach implements `termhubd attach [-addr host:port] <session>`: a
// standalone terminal client that puts the local stdin into raw mode
// (golang.org/x/term) and bridges it to a running termhubd's WebSocket
// endpoint, the same protocol the browser frontend speaks.
func runAttach(args []string) {
	fs := flag.NewFlagSet("attach", flag.ExitOnError)
	addr := fs.String("addr", "localhost:8080", "termhubd HTTP address")
	fs.Parse(args)

	name := "default"
	if fs.NArg() > 0 {
		name = fs.Arg(0)
	}

	cols, rows := 80, 24
	if w, h, err := term.GetSize(int(os.Stdin.Fd())); err == nil {
		cols, rows = w, h
	}

	u := url.URL{
		Scheme:   "ws",
		Host:     *addr,
		Path:     "/terminal/ws",
		RawQuery: fmt.Sprintf("name=%s&cols=%d&rows=%d", url.QueryEscape(name), cols, rows),
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", u.String(), err)
		os.Exit(1)
	}
	defer conn.Close()

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "raw mode: %v\n", err)
		os.Exit(1)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType == websocket.BinaryMessage {
				os.Stdout.Write(data)
			}
		}
	}()

	buf := make([]byte, 4096)
	for {
		select {
		case <-done:
			return
		default:
		}
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			payload, _ := json.Marshal(struct {
				Type string `json:"type"`
				Data string `json:"data"`
			}{Type: "input", Data: string(buf[:n])})
			if werr := conn.WriteMessage(websocket.TextMessage, payload); werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}
