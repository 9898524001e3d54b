package relay

import (
	"net/http"

	"github.com/openminis/party/pkg/api"
	"github.com/openminis/party/pkg/com"
	"github.com/openminis/party/pkg/logger"
	"github.com/openminis/party/pkg/network"
	"github.com/openminis/party/pkg/network/websocket"
)

type client struct {
	id   network.Uid
	conn *websocket.WS
}

func (c *client) Id() network.Uid { return c.id }
func (c *client) Disconnect()     { c.conn.Close() }

// Hub fans every message from one attached client out to all the
// others. It never interprets payloads beyond the envelope: session
// filtering is the receivers' job, the relay stays dumb on purpose.
type Hub struct {
	clients  com.NetMap[network.Uid, *client]
	upgrader *websocket.Upgrader
	log      *logger.Logger
}

// NewHub makes a hub accepting upgrades from the given origin only,
// where empty or * allows any.
func NewHub(origin string, log *logger.Logger) *Hub {
	return &Hub{
		clients:  com.NewNetMap[network.Uid, *client](),
		upgrader: websocket.NewUpgrader(origin),
		log:      log,
	}
}

// handleClientConnection serves one websocket client for its whole
// lifetime; blocks until the peer is gone.
func (h *Hub) handleClientConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.NewServer(w, r, h.log)
	if err != nil {
		h.log.Error().Err(err).Msg("couldn't upgrade client connection")
		return
	}
	c := &client{id: conn.Id(), conn: conn}
	conn.SetMessageHandler(func(message []byte, err error) {
		if err != nil {
			return
		}
		h.fanOut(c, message)
	})

	h.clients.Add(c)
	metricConnectionsTotal.Inc()
	metricConnections.Inc()
	h.log.Debug().Str("cid", c.id.Short()).Msg("client attached")

	<-conn.Listen()

	h.clients.Remove(c)
	metricConnections.Dec()
	h.log.Debug().Str("cid", c.id.Short()).Msg("client detached")
}

// fanOut forwards the raw message to every client except its sender.
// Only the envelope is checked; malformed traffic dies here.
func (h *Hub) fanOut(from *client, message []byte) {
	m, err := api.Decode(message)
	if err != nil || m.T.String() == "Unknown" {
		metricDropped.Inc()
		h.log.Warn().Err(err).Str("cid", from.id.Short()).Msg("drop malformed message")
		return
	}
	metricMessages.WithLabelValues(m.T.String()).Inc()
	h.clients.ForEach(func(c *client) {
		if c.id != from.id {
			c.conn.Write(message)
		}
	})
}

// Size returns the number of attached clients.
func (h *Hub) Size() int { return h.clients.Len() }
