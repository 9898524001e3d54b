// Package party implements the multiplayer session layer of the platform:
// session lifecycle, the player roster, and relaying of player and game
// state between peers over a broadcast channel.
//
// One Coordinator drives at most one session at a time. All commands
// apply their local effects synchronously; the relay round-trip only
// feeds the event subscriptions afterwards, so several events fire
// optimistically before any peer has acknowledged anything.
package party

import (
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/openminis/party/pkg/api"
	"github.com/openminis/party/pkg/broadcast"
	"github.com/openminis/party/pkg/config"
	"github.com/openminis/party/pkg/games"
	"github.com/openminis/party/pkg/logger"
	"github.com/openminis/party/pkg/network"
)

const joinPath = "#/multiplayer/join/"

const DefaultMaxPlayers = 4

type Options struct {
	// PublicURL is the origin+path base of join deep links.
	PublicURL string
	// MaxPlayers caps sessions whose game does not say otherwise.
	MaxPlayers int
	// Library validates game ids when set.
	Library games.Library
}

type Option func(*Options)

func WithPublicURL(url string) Option      { return func(o *Options) { o.PublicURL = url } }
func WithMaxPlayers(n int) Option          { return func(o *Options) { o.MaxPlayers = n } }
func WithLibrary(lib games.Library) Option { return func(o *Options) { o.Library = lib } }

// WithSessionConfig applies the client's loaded session settings.
func WithSessionConfig(conf config.Session) Option {
	return func(o *Options) {
		o.PublicURL = conf.PublicURL
		if conf.MaxPlayers > 0 {
			o.MaxPlayers = conf.MaxPlayers
		}
	}
}

// Coordinator owns the local end of a multiplayer session.
// It is the sole mutator of its session state; construct one per client
// and share the broadcast channel with the peers it should see.
type Coordinator struct {
	channel broadcast.Channel
	events  *bus
	log     *logger.Logger
	opts    Options

	mu       sync.Mutex
	session  *api.Session
	playerId string
	role     api.Role

	unsub func()
}

func NewCoordinator(channel broadcast.Channel, log *logger.Logger, options ...Option) *Coordinator {
	opts := Options{MaxPlayers: DefaultMaxPlayers}
	for _, opt := range options {
		opt(&opts)
	}
	c := &Coordinator{
		channel: channel,
		events:  newBus(log),
		log:     log,
		opts:    opts,
	}
	c.unsub = channel.Subscribe(c.handleMessage)
	return c
}

// Close detaches the coordinator from its channel.
// The channel itself belongs to the caller.
func (c *Coordinator) Close() {
	if c.unsub != nil {
		c.unsub()
	}
}

// On subscribes fn to the event kind and returns a listener id for Off.
func (c *Coordinator) On(ev Event, fn Callback) int { return c.events.on(ev, fn) }

// Off removes a previously subscribed listener.
func (c *Coordinator) Off(ev Event, id int) { c.events.off(ev, id) }

// CreateSession starts a new session with the caller as its host.
// The gameId param is optional; empty means no game chosen yet.
// Construction is local, no relay round-trip is required.
func (c *Coordinator) CreateSession(gameId string, maxPlayers int, hostName string) (*api.Session, error) {
	c.mu.Lock()
	if c.session != nil {
		c.mu.Unlock()
		return nil, ErrAlreadyInSession
	}
	if gameId != "" && c.opts.Library != nil && !c.opts.Library.Has(gameId) {
		c.mu.Unlock()
		return nil, ErrUnknownGame
	}
	if maxPlayers < 1 {
		maxPlayers = c.defaultCapacity(gameId)
	}
	now := time.Now().UnixMilli()
	pid := network.NewUid().String()
	host := api.Player{
		Id:        pid,
		Name:      hostName,
		Role:      api.RoleHost,
		Conn:      api.Connected,
		JoinedAt:  now,
		Transport: c.channel.Kind(),
	}
	s := &api.Session{
		Id:         network.NewUid().String(),
		GameId:     gameId,
		HostId:     pid,
		Players:    []api.Player{host},
		MaxPlayers: maxPlayers,
		State:      api.Waiting,
		CreatedAt:  now,
	}
	c.session, c.playerId, c.role = s, pid, api.RoleHost
	out := s.Copy()
	c.mu.Unlock()

	c.log.Info().Str("sid", out.Id).Msgf("session created by %s", hostName)
	c.events.emit(SessionCreated, out)
	return out, nil
}

// JoinSession enters an existing session as a guest. The returned
// session is provisional (host and game are unknown) and is reconciled
// once the host's session-sync response arrives; the UI should not
// block on that.
func (c *Coordinator) JoinSession(sessionId string, playerName string) (*api.Session, error) {
	c.mu.Lock()
	if c.session != nil {
		c.mu.Unlock()
		return nil, ErrAlreadyInSession
	}
	now := time.Now().UnixMilli()
	pid := network.NewUid().String()
	me := api.Player{
		Id:        pid,
		Name:      playerName,
		Role:      api.RoleGuest,
		Conn:      api.Connecting,
		JoinedAt:  now,
		Transport: c.channel.Kind(),
	}
	s := &api.Session{
		Id:         sessionId,
		Players:    []api.Player{me},
		MaxPlayers: c.opts.MaxPlayers,
		State:      api.Waiting,
		CreatedAt:  now,
	}
	c.session, c.playerId, c.role = s, pid, api.RoleGuest
	out := s.Copy()
	c.mu.Unlock()

	m, err := api.New(api.PlayerJoin, sessionId, pid, api.PlayerJoinData{Player: me})
	c.publish(m, err)
	c.events.emit(SessionJoined, out)
	return out, nil
}

// LeaveSession resets the coordinator to the no-session state.
// Peers are not notified; they learn of departures only by absence
// (a known gap of the protocol, there is no disconnect broadcast).
func (c *Coordinator) LeaveSession() {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return
	}
	sid := c.session.Id
	c.session, c.playerId, c.role = nil, "", ""
	c.mu.Unlock()
	c.log.Debug().Msgf("left session %s", sid)
}

// SendGameMove relays one opaque move to all peers. It never mutates
// the local session: the caller's own game reducer interprets the echo
// (its move comes back through the game-move-received event as well).
func (c *Coordinator) SendGameMove(move any) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return ErrNotInSession
	}
	sid, pid, gid := c.session.Id, c.playerId, c.session.GameId
	c.mu.Unlock()

	raw, err := json.Marshal(move)
	if err != nil {
		return err
	}
	m, err := api.New(api.GameMove, sid, pid, api.GameMoveData{GameId: gid, Move: raw})
	c.publish(m, err)
	return nil
}

// SendGameState relays a full game state snapshot. Host only: the host
// is the sole authority for full-state broadcasts.
func (c *Coordinator) SendGameState(state any) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return ErrNotInSession
	}
	if c.role != api.RoleHost {
		c.mu.Unlock()
		return ErrNotHost
	}
	sid, pid, gid := c.session.Id, c.playerId, c.session.GameId
	c.mu.Unlock()

	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m, err := api.New(api.GameState, sid, pid, api.GameStateData{GameId: gid, State: raw})
	c.publish(m, err)
	return nil
}

// SetPlayerReady flips the local player's ready flag and tells peers.
// The player-ready-changed event fires locally right away, before any
// peer echoes the change back.
func (c *Coordinator) SetPlayerReady(ready bool) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return ErrNotInSession
	}
	if i := c.session.Find(c.playerId); i >= 0 {
		c.session.Players[i].Ready = ready
	}
	sid, pid := c.session.Id, c.playerId
	c.mu.Unlock()

	m, err := api.New(api.PlayerReady, sid, pid, api.PlayerReadyData{Ready: ready})
	c.publish(m, err)
	c.events.emit(PlayerReadyChanged, ReadyChange{PlayerId: pid, Ready: ready})
	return nil
}

// SelectGame picks the game to play. Host only.
func (c *Coordinator) SelectGame(gameId string) error {
	return c.gameChange(gameId, api.GameSelect)
}

// StartGame transitions the session into the playing state. Host only.
func (c *Coordinator) StartGame(gameId string) error {
	return c.gameChange(gameId, api.GameStart)
}

func (c *Coordinator) gameChange(gameId string, t api.MT) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return ErrNotInSession
	}
	if c.role != api.RoleHost {
		c.mu.Unlock()
		return ErrNotHost
	}
	if c.opts.Library != nil && !c.opts.Library.Has(gameId) {
		c.mu.Unlock()
		return ErrUnknownGame
	}
	c.session.GameId = gameId
	if t == api.GameStart {
		c.session.State = api.Playing
	}
	sid, pid := c.session.Id, c.playerId
	c.mu.Unlock()

	switch t {
	case api.GameSelect:
		m, err := api.New(t, sid, pid, api.GameSelectData{GameId: gameId})
		c.publish(m, err)
		c.events.emit(GameSelected, GameChange{GameId: gameId})
	case api.GameStart:
		m, err := api.New(t, sid, pid, api.GameStartData{GameId: gameId})
		c.publish(m, err)
		c.events.emit(GameStarted, GameChange{GameId: gameId})
	}
	return nil
}

// CurrentSession returns a copy of the held session or nil.
func (c *Coordinator) CurrentSession() *api.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Copy()
}

func (c *Coordinator) IsHost() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil && c.role == api.RoleHost
}

// IsConnected reports whether the local player's roster entry has
// reached the connected state.
func (c *Coordinator) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return false
	}
	if i := c.session.Find(c.playerId); i >= 0 {
		return c.session.Players[i].Conn == api.Connected
	}
	return false
}

// SessionURL builds the join deep link of the current session,
// or empty when no session is held.
func (c *Coordinator) SessionURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return strings.TrimSuffix(c.opts.PublicURL, "/") + joinPath + c.session.Id
}

func (c *Coordinator) defaultCapacity(gameId string) int {
	if gameId != "" && c.opts.Library != nil {
		if meta := c.opts.Library.FindById(gameId); meta.MaxPlayers > 0 {
			return meta.MaxPlayers
		}
	}
	return c.opts.MaxPlayers
}

// publish pushes a message to the channel. The relay is fire-and-forget:
// failures are logged and surfaced as a connection-error event, never as
// a command error.
func (c *Coordinator) publish(m api.Message, err error) {
	if err == nil {
		err = c.channel.Publish(m)
	}
	if err != nil {
		c.log.Error().Err(err).Msgf("%v send fail", m.T)
		c.events.emit(ConnectionError, err)
	}
}
