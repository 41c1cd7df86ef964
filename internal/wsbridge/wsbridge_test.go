package wsbridge

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestQueryUint16Defaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/terminal/ws", nil)
	if got := queryUint16(req, "cols", 80); got != 80 {
		t.Fatalf("got %d, want default 80", got)
	}
}

func TestQueryUint16Parses(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/terminal/ws?cols=132", nil)
	if got := queryUint16(req, "cols", 80); got != 132 {
		t.Fatalf("got %d, want 132", got)
	}
}

func TestQueryUint16IgnoresGarbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/terminal/ws?cols=notanumber", nil)
	if got := queryUint16(req, "cols", 80); got != 80 {
		t.Fatalf("got %d, want fallback 80", got)
	}
}

func TestControlMessageResizeRoundTrip(t *testing.T) {
	raw := `{"type":"resize","cols":132,"rows":43}`
	var msg controlMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "resize" || msg.Cols != 132 || msg.Rows != 43 {
		t.Fatalf("got %+v", msg)
	}
}

func TestControlMessageInputRoundTrip(t *testing.T) {
	raw := `{"type":"input","data":"ls -la\n"}`
	var msg controlMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "input" || msg.Data != "ls -la\n" {
		t.Fatalf("got %+v", msg)
	}
}
