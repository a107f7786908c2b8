package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WriteTimeout bounds a single websocket frame write
const WriteTimeout = 10 * time.Second

// NewUpgrader builds a websocket upgrader. An empty origin list allows every
// origin; "*" does the same explicitly.
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowedOrigins) == 0 {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSConn serialises writes to a websocket connection. Reads stay with the
// owning handler goroutine.
type WSConn struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
}

// NewWSConn wraps conn
func NewWSConn(conn *websocket.Conn) *WSConn {
	return &WSConn{conn: conn}
}

// WriteJSON encodes v as a single text frame
func (w *WSConn) WriteJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return websocket.ErrCloseSent
	}
	if err := w.conn.SetWriteDeadline(time.Now().Add(WriteTimeout)); err != nil {
		return err
	}
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

// ReadJSON reads the next frame into v
func (w *WSConn) ReadJSON(v interface{}) error {
	return w.conn.ReadJSON(v)
}

// Close sends a normal close frame and closes the connection. Repeated
// calls are no-ops.
func (w *WSConn) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return w.conn.Close()
}
