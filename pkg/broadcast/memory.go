package broadcast

import (
	"errors"
	"sync"
	"time"

	"github.com/openminis/party/pkg/api"
)

// KindMemory marks the in-process stand-in transport. It mimics a
// same-origin cross-tab broadcast: every attached channel sees every
// message after a short artificial delay, the sender included.
const KindMemory = "memory"

const DefaultDelay = 30 * time.Millisecond

var (
	errHubClosed = errors.New("broadcast: hub closed")
	errHubFull   = errors.New("broadcast: hub queue full")
)

// Hub is the shared medium the memory channels attach to. One Hub
// models one browser profile: all attached channels observe all
// traffic. Delivery order follows publish order.
type Hub struct {
	mu       sync.Mutex
	channels map[*MemChannel]struct{}
	queue    chan api.Message
	stop     chan struct{}
	stopOnce sync.Once
	delay    time.Duration
}

// NewHub creates a hub with the given artificial delivery delay,
// modeling the asynchrony a real transport would have. Negative delay
// means DefaultDelay; zero is allowed for tests.
func NewHub(delay time.Duration) *Hub {
	if delay < 0 {
		delay = DefaultDelay
	}
	h := &Hub{
		channels: make(map[*MemChannel]struct{}, 4),
		queue:    make(chan api.Message, 256),
		stop:     make(chan struct{}),
		delay:    delay,
	}
	go h.pump()
	return h
}

// pump serializes delivery so that messages arrive in publish order.
func (h *Hub) pump() {
	for {
		select {
		case m := <-h.queue:
			if h.delay > 0 {
				select {
				case <-time.After(h.delay):
				case <-h.stop:
					return
				}
			}
			h.deliver(m)
		case <-h.stop:
			return
		}
	}
}

func (h *Hub) deliver(m api.Message) {
	h.mu.Lock()
	targets := make([]*MemChannel, 0, len(h.channels))
	for ch := range h.channels {
		targets = append(targets, ch)
	}
	h.mu.Unlock()
	for _, ch := range targets {
		ch.dispatch(m)
	}
}

// publish never blocks: handlers may publish from inside a delivery
// (the host answers a join with a sync), so a blocking send here could
// park the pump on its own queue. Overflow is dropped, the transport
// is fire-and-forget anyway.
func (h *Hub) publish(m api.Message) error {
	select {
	case <-h.stop:
		return errHubClosed
	default:
	}
	select {
	case h.queue <- m:
		return nil
	default:
		return errHubFull
	}
}

// Channel attaches a new peer endpoint to the hub.
func (h *Hub) Channel() *MemChannel {
	ch := &MemChannel{hub: h, subs: make(map[int]Handler, 2)}
	h.mu.Lock()
	h.channels[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Close() { h.stopOnce.Do(func() { close(h.stop) }) }

// MemChannel is one peer's endpoint on a Hub.
type MemChannel struct {
	hub  *Hub
	mu   sync.Mutex
	subs map[int]Handler
	next int
	off  bool
}

func (c *MemChannel) Publish(m api.Message) error {
	c.mu.Lock()
	off := c.off
	c.mu.Unlock()
	if off {
		return errHubClosed
	}
	return c.hub.publish(m)
}

func (c *MemChannel) Subscribe(fn Handler) (unsub func()) {
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

func (c *MemChannel) Kind() string { return KindMemory }

func (c *MemChannel) Close() error {
	c.mu.Lock()
	c.off = true
	c.subs = make(map[int]Handler)
	c.mu.Unlock()
	c.hub.mu.Lock()
	delete(c.hub.channels, c)
	c.hub.mu.Unlock()
	return nil
}

func (c *MemChannel) dispatch(m api.Message) {
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
