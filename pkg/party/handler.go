package party

import (
	"github.com/openminis/party/pkg/api"
)

type emission struct {
	ev   Event
	data any
}

// handleMessage is the single entry point for everything the channel
// delivers, own echoes included. Messages for another session are
// dropped here, once, before any dispatch.
func (c *Coordinator) handleMessage(m api.Message) {
	emits, syn := c.apply(m)
	if syn != nil {
		c.publish(*syn, nil)
	}
	for _, e := range emits {
		c.events.emit(e.ev, e.data)
	}
}

// apply mutates session state under the lock and returns the events to
// emit plus, for a host answering a join, the session-sync response.
// Events fire after the lock is released so listeners may call back in.
func (c *Coordinator) apply(m api.Message) (emits []emission, syn *api.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if s == nil || m.Sid != s.Id {
		// stale or cross-session, not an error
		return nil, nil
	}
	self := m.Pid == c.playerId

	switch m.T {
	case api.PlayerJoin:
		d := api.Unwrap[api.PlayerJoinData](m.Payload)
		if d == nil {
			c.drop(m)
			return nil, nil
		}
		p := d.Player
		if i := s.Find(p.Id); i >= 0 {
			s.Players[i].Name = p.Name
			s.Players[i].Ready = p.Ready
			return nil, nil
		}
		if s.Full() {
			c.log.Warn().Str("sid", s.Id).Msgf("%v for a full session, dropped", m.T)
			return nil, nil
		}
		p.Conn = api.Connected
		p.Transport = c.channel.Kind()
		s.Players = append(s.Players, p)
		emits = append(emits, emission{PlayerConnected, p})
		if c.role == api.RoleHost {
			msg, err := api.New(api.SessionSync, s.Id, c.playerId, api.SessionSyncData{To: p.Id, Session: *s.Copy()})
			if err != nil {
				c.log.Error().Err(err).Msg("session-sync encode fail")
			} else {
				syn = &msg
			}
		}

	case api.SessionSync:
		d := api.Unwrap[api.SessionSyncData](m.Payload)
		if d == nil {
			c.drop(m)
			return nil, nil
		}
		if d.To != c.playerId {
			// targeted at some other joiner
			return nil, nil
		}
		snap := d.Session
		// the host's snapshot is authoritative for everything except our
		// own roster entry, which must not regress to the host's echo
		if i := s.Find(c.playerId); i >= 0 {
			me := s.Players[i]
			me.Conn = api.Connected
			if j := snap.Find(me.Id); j >= 0 {
				snap.Players[j] = me
			} else {
				snap.Players = append(snap.Players, me)
			}
		}
		c.session = &snap

	case api.GameMove:
		d := api.Unwrap[api.GameMoveData](m.Payload)
		if d == nil {
			c.drop(m)
			return nil, nil
		}
		emits = append(emits, emission{GameMoveReceived, Move{PlayerId: m.Pid, Move: d.Move}})

	case api.GameState:
		d := api.Unwrap[api.GameStateData](m.Payload)
		if d == nil {
			c.drop(m)
			return nil, nil
		}
		emits = append(emits, emission{GameStateUpdated, State{PlayerId: m.Pid, State: d.State}})

	case api.PlayerReady:
		if self {
			// already applied and emitted optimistically
			return nil, nil
		}
		d := api.Unwrap[api.PlayerReadyData](m.Payload)
		if d == nil {
			c.drop(m)
			return nil, nil
		}
		if i := s.Find(m.Pid); i >= 0 {
			s.Players[i].Ready = d.Ready
		}
		emits = append(emits, emission{PlayerReadyChanged, ReadyChange{PlayerId: m.Pid, Ready: d.Ready}})

	case api.GameSelect:
		if self {
			return nil, nil
		}
		d := api.Unwrap[api.GameSelectData](m.Payload)
		if d == nil {
			c.drop(m)
			return nil, nil
		}
		s.GameId = d.GameId
		emits = append(emits, emission{GameSelected, GameChange{GameId: d.GameId}})

	case api.GameStart:
		if self {
			return nil, nil
		}
		d := api.Unwrap[api.GameStartData](m.Payload)
		if d == nil {
			c.drop(m)
			return nil, nil
		}
		s.GameId = d.GameId
		s.State = api.Playing
		emits = append(emits, emission{GameStarted, GameChange{GameId: d.GameId}})

	default:
		c.drop(m)
	}
	return emits, syn
}

func (c *Coordinator) drop(m api.Message) {
	c.log.Debug().Str("pid", m.Pid).Msgf("%v dropped", m.T)
}
