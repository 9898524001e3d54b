// Package api defines the wire protocol spoken between session peers.
//
// Each message is a JSON-encoded envelope of the following structure:
//
//	  t - (required) one of the predefined unique message types;
//	sid - (required) id of the session the message belongs to;
//	pid - (required) id of the sending player;
//	 ts - message creation time in Unix milliseconds;
//	  p - message payload with type-specific data.
//
// The basic idea behind this protocol is that the messages differentiate by
// their predefined types with which it is possible to unwrap the payload into
// distinct data structures. Receivers drop any message whose sid does not
// match their current session, so stale or cross-session traffic is never an
// error, just noise.
//
// Example:
//
//	{"t":3,"sid":"cn4fg3hdrc3je92kb7o0","pid":"cn4fg3hdrc3je92kb7og","ts":1700000000123,"p":{"move":{"row":0,"col":0}}}
package api

import (
	"time"

	"github.com/goccy/go-json"
)

// MT is a wire message type tag.
type MT uint8

const (
	PlayerJoin MT = iota + 1
	SessionSync
	GameMove
	GameState
	PlayerReady
	GameSelect
	GameStart
)

func (t MT) String() string {
	switch t {
	case PlayerJoin:
		return "PlayerJoin"
	case SessionSync:
		return "SessionSync"
	case GameMove:
		return "GameMove"
	case GameState:
		return "GameState"
	case PlayerReady:
		return "PlayerReady"
	case GameSelect:
		return "GameSelect"
	case GameStart:
		return "GameStart"
	default:
		return "Unknown"
	}
}

// Message is the transport envelope for all inter-peer traffic.
// Messages are not persisted; they exist only in transit.
type Message struct {
	T       MT              `json:"t"`
	Sid     string          `json:"sid"`
	Pid     string          `json:"pid"`
	Ts      int64           `json:"ts"`
	Payload json.RawMessage `json:"p,omitempty"` // raw for 2-pass unmarshal
}

// New wraps a payload into a Message envelope stamped with the current time.
func New(t MT, sid string, pid string, payload any) (Message, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{T: t, Sid: sid, Pid: pid, Ts: time.Now().UnixMilli(), Payload: p}, nil
}

func (m Message) Encode() ([]byte, error) { return json.Marshal(m) }

func Decode(data []byte) (Message, error) {
	var m Message
	err := json.Unmarshal(data, &m)
	return m, err
}

// Unwrap extracts a payload of type T from raw bytes or returns nil.
func Unwrap[T any](data []byte) *T {
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		return nil
	}
	return out
}
