package telephony

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

// wsPair gives a connected client-side *websocket.Conn against a server
// that just holds the socket open.
func wsPair(t *testing.T) *websocket.Conn {
	t.Helper()
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func TestSendMediaAfterCloseIsSilent(t *testing.T) {
	conn := newConn(wsPair(t))
	conn.Close()
	conn.Close() // idempotent

	if err := conn.SendMedia("CA123", "AAAA"); err != nil {
		t.Fatalf("send on closed conn must be silent, got %v", err)
	}
}

func TestTrySendReportsBackpressure(t *testing.T) {
	conn := newConn(wsPair(t))
	// No writePump draining, so the buffer fills.
	for i := 0; i < cap(conn.send); i++ {
		if err := conn.trySend([]byte("x")); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	if err := conn.trySend([]byte("x")); err != ErrBackpressure {
		t.Fatalf("expected ErrBackpressure, got %v", err)
	}
}
