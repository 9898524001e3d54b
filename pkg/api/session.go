package api

// Role of a player within a session.
type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// ConnState is a player's connection state.
// Reconnecting and ConnFailed are reserved for transports that
// implement reconnection; nothing produces them yet.
type ConnState string

const (
	Connecting   ConnState = "connecting"
	Connected    ConnState = "connected"
	Reconnecting ConnState = "reconnecting"
	ConnFailed   ConnState = "failed"
)

// SessionState is a session's lifecycle state.
type SessionState string

const (
	Waiting SessionState = "waiting"
	Playing SessionState = "playing"
	Ended   SessionState = "ended"
)

// Player is a participant in a session. The struct travels inside
// player-join and session-sync payloads as-is.
type Player struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Conn      ConnState `json:"conn"`
	Ready     bool      `json:"ready"`
	JoinedAt  int64     `json:"joined_at"`
	Transport string    `json:"transport,omitempty"` // which transport variant delivered the player
}

// Session is the unit of coordination: one group of players
// attempting to play one game together.
type Session struct {
	Id         string       `json:"id"`
	GameId     string       `json:"game_id,omitempty"` // empty until a game is chosen
	HostId     string       `json:"host_id"`
	Players    []Player     `json:"players"` // insertion order = join order
	MaxPlayers int          `json:"max_players"`
	State      SessionState `json:"state"`
	CreatedAt  int64        `json:"created_at"`
}

// Find returns the index of the player with the given id, or -1.
func (s *Session) Find(id string) int {
	for i := range s.Players {
		if s.Players[i].Id == id {
			return i
		}
	}
	return -1
}

// Host returns the roster entry of the session host, or nil.
func (s *Session) Host() *Player {
	if i := s.Find(s.HostId); i >= 0 {
		return &s.Players[i]
	}
	return nil
}

func (s *Session) Full() bool { return len(s.Players) >= s.MaxPlayers }

// Copy returns a deep copy safe to hand out to callers and callbacks.
func (s *Session) Copy() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Players = make([]Player, len(s.Players))
	copy(c.Players, s.Players)
	return &c
}
