package party

import (
	"testing"

	"github.com/openminis/party/pkg/logger"
)

func TestBusOrderAndOff(t *testing.T) {
	b := newBus(logger.Default())

	var got []int
	b.on(PlayerReadyChanged, func(any) { got = append(got, 1) })
	second := b.on(PlayerReadyChanged, func(any) { got = append(got, 2) })
	b.on(PlayerReadyChanged, func(any) { got = append(got, 3) })

	b.emit(PlayerReadyChanged, nil)
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("wrong call order: %v", got)
	}

	b.off(PlayerReadyChanged, second)
	got = got[:0]
	b.emit(PlayerReadyChanged, nil)
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("off didn't remove the listener: %v", got)
	}
}

func TestBusKindIsolation(t *testing.T) {
	b := newBus(logger.Default())
	calls := 0
	b.on(GameStarted, func(any) { calls++ })
	b.emit(GameSelected, nil)
	if calls != 0 {
		t.Errorf("listener fired for a different event kind")
	}
}

func TestBusPanicIsolation(t *testing.T) {
	b := newBus(logger.Default())
	survived := false
	b.on(ConnectionError, func(any) { panic("boom") })
	b.on(ConnectionError, func(any) { survived = true })
	b.emit(ConnectionError, nil)
	if !survived {
		t.Errorf("a panicking listener killed the rest")
	}
}

func TestBusSnapshotDuringEmit(t *testing.T) {
	b := newBus(logger.Default())
	calls := 0
	// subscribing mid-emit must not affect the current dispatch
	b.on(GameEnded, func(any) {
		calls++
		b.on(GameEnded, func(any) { calls += 100 })
	})
	b.emit(GameEnded, nil)
	if calls != 1 {
		t.Errorf("mid-emit subscription leaked into the dispatch: %d", calls)
	}
}

func TestEventString(t *testing.T) {
	tests := []struct {
		ev Event
		s  string
	}{
		{SessionCreated, "session-created"},
		{SessionJoined, "session-joined"},
		{PlayerConnected, "player-connected"},
		{PlayerDisconnected, "player-disconnected"},
		{PlayerReadyChanged, "player-ready-changed"},
		{GameSelected, "game-selected"},
		{GameStarted, "game-started"},
		{GameMoveReceived, "game-move-received"},
		{GameStateUpdated, "game-state-updated"},
		{GameEnded, "game-ended"},
		{ConnectionError, "connection-error"},
		{Event(0), "unknown"},
	}
	for _, test := range tests {
		if test.ev.String() != test.s {
			t.Errorf("expected %v, got %v", test.s, test.ev.String())
		}
	}
}
