package broadcast

import (
	"net/url"
	"sync"

	"github.com/openminis/party/pkg/api"
	"github.com/openminis/party/pkg/logger"
	"github.com/openminis/party/pkg/network/websocket"
)

// KindRelay marks the websocket transport going through a shared
// relay server (cmd/relay). The relay fans every message out to all
// other attached clients, so unlike the memory hub there is no
// loopback of the publisher's own messages over the wire.
const KindRelay = "relay"

type WsChannel struct {
	conn *websocket.WS
	done chan struct{}

	mu   sync.Mutex
	subs map[int]Handler
	next int

	log *logger.Logger
}

// NewWs dials the relay server and attaches to its broadcast stream.
func NewWs(address url.URL, log *logger.Logger) (*WsChannel, error) {
	conn, err := websocket.NewClient(address, log)
	if err != nil {
		return nil, err
	}
	c := &WsChannel{conn: conn, subs: make(map[int]Handler, 2), log: log}
	conn.SetMessageHandler(c.handleMessage)
	c.done = conn.Listen()
	return c, nil
}

func (c *WsChannel) Publish(m api.Message) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	c.conn.Write(data)
	// self doesn't come back through the relay, loop it locally
	c.dispatch(m)
	return nil
}

func (c *WsChannel) Subscribe(fn Handler) (unsub func()) {
	c.mu.Lock()
	id := c.next
	c.next++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *WsChannel) Kind() string { return KindRelay }

func (c *WsChannel) Close() error {
	c.conn.Close()
	return nil
}

// Done is closed when the underlying connection has shut down.
func (c *WsChannel) Done() chan struct{} { return c.done }

func (c *WsChannel) handleMessage(message []byte, err error) {
	if err != nil {
		return
	}
	m, err := api.Decode(message)
	if err != nil {
		// malformed relay traffic is dropped, never surfaced
		c.log.Warn().Err(err).Msg("drop malformed message")
		return
	}
	c.dispatch(m)
}

func (c *WsChannel) dispatch(m api.Message) {
	c.mu.Lock()
	handlers := make([]Handler, 0, len(c.subs))
	for _, fn := range c.subs {
		handlers = append(handlers, fn)
	}
	c.mu.Unlock()
	for _, fn := range handlers {
		fn(m)
	}
}
