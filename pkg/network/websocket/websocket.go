package websocket

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/openminis/party/pkg/logger"
	"github.com/openminis/party/pkg/network"
)

const (
	maxMessageSize = 10 * 1024
	pingTime       = pongTime * 9 / 10
	pongTime       = 60 * time.Second
	writeWait      = 10 * time.Second
)

type Upgrader struct {
	websocket.Upgrader
}

// NewUpgrader restricts connection upgrades to the given origin,
// where empty or * allows any origin.
func NewUpgrader(origin string) *Upgrader {
	u := Upgrader{
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			WriteBufferPool: &sync.Pool{},
		},
	}
	switch origin {
	case "", "*":
		u.CheckOrigin = func(r *http.Request) bool { return true }
	default:
		u.CheckOrigin = func(r *http.Request) bool { return r.Header.Get("Origin") == origin }
	}
	return &u
}

// NewServer upgrades an HTTP request to a websocket peer.
func (u *Upgrader) NewServer(w http.ResponseWriter, r *http.Request, log *logger.Logger) (*WS, error) {
	conn, err := u.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return NewServerWithConn(conn, log)
}

type MessageHandler func(message []byte, err error)

// WS wraps a gorilla websocket connection with
// serialized reader/writer pumps and deadlines.
type WS struct {
	id   network.Uid
	conn deadlinedConn
	send chan []byte

	handler  MessageHandler
	server   bool
	pingPong bool

	stop     chan struct{}
	stopOnce sync.Once
	pumps    sync.WaitGroup
	done     chan struct{}

	log *logger.Logger
}

func NewServerWithConn(conn *websocket.Conn, log *logger.Logger) (*WS, error) {
	return newSocket(conn, true, log), nil
}

func NewClient(address url.URL, log *logger.Logger) (*WS, error) {
	conn, _, err := websocket.DefaultDialer.Dial(address.String(), nil)
	if err != nil {
		return nil, err
	}
	return newSocket(conn, false, log), nil
}

func newSocket(conn *websocket.Conn, server bool, log *logger.Logger) *WS {
	id := network.NewUid()
	return &WS{
		id:       id,
		conn:     deadlinedConn{sock: conn, wt: writeWait},
		send:     make(chan []byte, 32),
		server:   server,
		pingPong: server,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		log:      log.Extend(log.With().Str("cid", id.Short())),
	}
}

func (ws *WS) Id() network.Uid { return ws.id }

func (ws *WS) SetMessageHandler(fn MessageHandler) { ws.handler = fn }

// Listen starts the reader/writer pumps and returns a channel
// closed when the connection has fully shut down.
func (ws *WS) Listen() chan struct{} {
	ws.pumps.Add(2)
	go ws.writer()
	go ws.reader()
	go func() {
		ws.pumps.Wait()
		_ = ws.conn.close()
		close(ws.done)
	}()
	return ws.done
}

// reader pumps messages from the websocket connection to the handler.
// Serializes all websocket reads.
func (ws *WS) reader() {
	defer func() {
		ws.shutdown()
		ws.pumps.Done()
		ws.log.Debug().Msg("close reader")
	}()
	ws.conn.setupRead(maxMessageSize, ws.pingPong, pongTime)
	for {
		message, err := ws.conn.read()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.log.Debug().Err(err).Msg("read fail")
			}
			return
		}
		if h := ws.handler; h != nil {
			h(message, nil)
		}
	}
}

// writer pumps messages from the send channel to the websocket connection.
// Serializes all websocket writes.
func (ws *WS) writer() {
	var ping <-chan time.Time
	if ws.pingPong {
		ticker := time.NewTicker(pingTime)
		defer ticker.Stop()
		ping = ticker.C
	}
	defer func() {
		ws.pumps.Done()
		ws.log.Debug().Msg("close writer")
	}()
	for {
		select {
		case message := <-ws.send:
			if err := ws.conn.write(websocket.TextMessage, message); err != nil {
				ws.shutdown()
				return
			}
		case <-ping:
			if err := ws.conn.write(websocket.PingMessage, nil); err != nil {
				ws.shutdown()
				return
			}
		case <-ws.stop:
			_ = ws.conn.write(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// Write queues a message for sending; drops it if the socket is closing.
func (ws *WS) Write(data []byte) {
	select {
	case ws.send <- data:
	case <-ws.stop:
	}
}

func (ws *WS) Close() { ws.shutdown() }

func (ws *WS) shutdown() {
	ws.stopOnce.Do(func() {
		close(ws.stop)
		// unblocks the reader
		_ = ws.conn.close()
	})
}
