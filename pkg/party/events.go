package party

import (
	"sync"

	"github.com/goccy/go-json"
	"github.com/openminis/party/pkg/logger"
)

// Event is a public coordinator event kind.
type Event uint8

const (
	SessionCreated Event = iota + 1
	SessionJoined
	PlayerConnected
	PlayerDisconnected
	PlayerReadyChanged
	GameSelected
	GameStarted
	GameMoveReceived
	GameStateUpdated
	GameEnded
	ConnectionError
)

func (e Event) String() string {
	switch e {
	case SessionCreated:
		return "session-created"
	case SessionJoined:
		return "session-joined"
	case PlayerConnected:
		return "player-connected"
	case PlayerDisconnected:
		return "player-disconnected"
	case PlayerReadyChanged:
		return "player-ready-changed"
	case GameSelected:
		return "game-selected"
	case GameStarted:
		return "game-started"
	case GameMoveReceived:
		return "game-move-received"
	case GameStateUpdated:
		return "game-state-updated"
	case GameEnded:
		return "game-ended"
	case ConnectionError:
		return "connection-error"
	default:
		return "unknown"
	}
}

// Event payloads.
type (
	ReadyChange struct {
		PlayerId string
		Ready    bool
	}
	GameChange struct {
		GameId string
	}
	Move struct {
		PlayerId string
		Move     json.RawMessage
	}
	State struct {
		PlayerId string
		State    json.RawMessage
	}
)

// Callback receives the payload of a subscribed event.
type Callback func(data any)

type listener struct {
	id int
	fn Callback
}

// bus is a multi-listener registry keyed by event kind. Callbacks run
// synchronously in subscription order; a panicking callback is isolated
// and logged so the rest still run.
type bus struct {
	mu   sync.Mutex
	ls   map[Event][]listener
	next int
	log  *logger.Logger
}

func newBus(log *logger.Logger) *bus {
	return &bus{ls: make(map[Event][]listener, 8), log: log}
}

func (b *bus) on(ev Event, fn Callback) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.ls[ev] = append(b.ls[ev], listener{id: b.next, fn: fn})
	return b.next
}

func (b *bus) off(ev Event, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ls := b.ls[ev]
	for i := range ls {
		if ls[i].id == id {
			b.ls[ev] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

func (b *bus) emit(ev Event, data any) {
	// snapshot, so on/off during a callback has no visible effect
	b.mu.Lock()
	snapshot := make([]listener, len(b.ls[ev]))
	copy(snapshot, b.ls[ev])
	b.mu.Unlock()
	for _, l := range snapshot {
		b.call(ev, l, data)
	}
}

func (b *bus) call(ev Event, l listener, data any) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Msgf("%v listener #%d panic: %v", ev, l.id, r)
		}
	}()
	l.fn(data)
}
