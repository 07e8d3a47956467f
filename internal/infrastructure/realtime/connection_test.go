package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// dialTestConnection builds a Connection over a real websocket pair.
func dialTestConnection(t *testing.T) *Connection {
	t.Helper()

	upgrader := websocket.Upgrader{}
	serverSide := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverSide <- ws
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return NewConnection("user-1", <-serverSide)
}

func TestConnection_SendAfterCloseDoesNotPanic(t *testing.T) {
	conn := dialTestConnection(t)
	conn.Start()
	conn.Close(websocket.CloseNormalClosure, "bye")

	// Past the buffer capacity every call must take an error path, never panic.
	var lastErr error
	for i := 0; i < 4*sendBuffer; i++ {
		lastErr = conn.Send([]byte("late frame"))
	}
	if lastErr == nil {
		t.Fatal("sends on a closed connection must eventually report an error")
	}
}

func TestConnection_ConcurrentSendAndClose(t *testing.T) {
	conn := dialTestConnection(t)
	conn.Start()

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < 2*sendBuffer; j++ {
				_ = conn.Send([]byte("frame"))
			}
		}()
	}

	close(start)
	conn.Close(websocket.CloseGoingAway, "send buffer full")
	wg.Wait()

	var lastErr error
	for i := 0; i < 4*sendBuffer; i++ {
		lastErr = conn.Send([]byte("after"))
	}
	if lastErr == nil {
		t.Fatal("sends after close must eventually report an error")
	}
}
