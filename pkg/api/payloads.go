package api

import "github.com/goccy/go-json"

type (
	// PlayerJoinData announces a new player to everyone in the session.
	PlayerJoinData struct {
		Player Player `json:"player"`
	}
	// SessionSyncData is the host's authoritative snapshot, targeted
	// at one joining player.
	SessionSyncData struct {
		To      string  `json:"to"`
		Session Session `json:"session"`
	}
	// GameMoveData relays a single opaque move of the current game.
	GameMoveData struct {
		GameId string          `json:"game_id,omitempty"`
		Move   json.RawMessage `json:"move"`
	}
	// GameStateData relays a full opaque game state (host only).
	GameStateData struct {
		GameId string          `json:"game_id,omitempty"`
		State  json.RawMessage `json:"state"`
	}
	PlayerReadyData struct {
		Ready bool `json:"ready"`
	}
	GameSelectData struct {
		GameId string `json:"game_id"`
	}
	GameStartData struct {
		GameId string `json:"game_id"`
	}
)
