package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

// Transport deadlines. Writes are short command frames; reads may idle
// for the gap between monitor signals, so the read window is generous.
const (
	WriteTimeout = 10 * time.Second
	ReadTimeout  = 5 * time.Minute
)

// WriteTyped sends one typed event frame with the write deadline applied.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
	return conn.WriteJSON(v)
}

// WriteError sends an error event. Used for failures before or outside a
// bound session, where no controller owns the connection yet.
func WriteError(conn *websocket.Conn, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}
