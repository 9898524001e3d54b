package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

type deadlinedConn struct {
	sock *websocket.Conn
	wt   time.Duration
}

// setupRead bounds inbound frames and, when pong is set, keeps the
// read deadline rolling on every received pong.
func (conn *deadlinedConn) setupRead(limit int64, pong bool, wait time.Duration) {
	conn.sock.SetReadLimit(limit)
	if pong {
		_ = conn.sock.SetReadDeadline(time.Now().Add(wait))
		conn.sock.SetPongHandler(func(string) error {
			return conn.sock.SetReadDeadline(time.Now().Add(wait))
		})
	}
}

func (conn *deadlinedConn) close() error { return conn.sock.Close() }

func (conn *deadlinedConn) read() (message []byte, err error) {
	_, message, err = conn.sock.ReadMessage()
	return
}

func (conn *deadlinedConn) write(t int, mess []byte) error {
	if err := conn.sock.SetWriteDeadline(time.Now().Add(conn.wt)); err != nil {
		return err
	}
	return conn.sock.WriteMessage(t, mess)
}
