//go:build unix

package ptyspawn

import (
	"bytes"
	"testing"
	"time"
)

func TestSpawnEchoesOutput(t *testing.T) {
	sess, err := Spawn("/bin/echo", []string{"hello-termhub"}, 80, 24)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	defer sess.Guard.Close()

	sess.Master.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 256)
	var out bytes.Buffer
	for {
		n, err := sess.Reader.Read(buf)
		out.Write(buf[:n])
		if err != nil {
			break
		}
		if bytes.Contains(out.Bytes(), []byte("hello-termhub")) {
			break
		}
	}
	if !bytes.Contains(out.Bytes(), []byte("hello-termhub")) {
		t.Fatalf("got %q, want it to contain %q", out.String(), "hello-termhub")
	}
	sess.Cmd.Wait()
}

func TestSpawnDefaultShellWhenEmpty(t *testing.T) {
	sess, err := Spawn("", nil, 80, 24)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	defer sess.Guard.Close()
	if sess.Cmd.Path == "" {
		t.Fatal("expected a resolved shell path")
	}
	sess.Cmd.Process.Kill()
	sess.Cmd.Wait()
}
