package relay

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/openminis/party/pkg/api"
	"github.com/openminis/party/pkg/broadcast"
	"github.com/openminis/party/pkg/logger"
)

var testLog = logger.Default()

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %v", what)
}

func newTestRelay(t *testing.T, origin string) (*Hub, url.URL) {
	t.Helper()
	hub := NewHub(origin, testLog)
	ts := httptest.NewServer(http.HandlerFunc(hub.handleClientConnection))
	t.Cleanup(ts.Close)
	return hub, url.URL{Scheme: "ws", Host: strings.TrimPrefix(ts.URL, "http://"), Path: "/"}
}

type sink struct {
	mu   sync.Mutex
	msgs []api.Message
}

func (s *sink) put(m api.Message) { s.mu.Lock(); s.msgs = append(s.msgs, m); s.mu.Unlock() }
func (s *sink) len() int          { s.mu.Lock(); defer s.mu.Unlock(); return len(s.msgs) }
func (s *sink) at(i int) api.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msgs[i]
}

func TestRelayFansOutToOthers(t *testing.T) {
	hub, addr := newTestRelay(t, "")

	a, err := broadcast.NewWs(addr, testLog)
	if err != nil {
		t.Fatalf("dial fail: %v", err)
	}
	defer func() { _ = a.Close() }()
	b, err := broadcast.NewWs(addr, testLog)
	if err != nil {
		t.Fatalf("dial fail: %v", err)
	}
	defer func() { _ = b.Close() }()

	waitFor(t, "both clients attached", func() bool { return hub.Size() == 2 })

	var sa, sb sink
	a.Subscribe(sa.put)
	b.Subscribe(sb.put)

	m, err := api.New(api.PlayerReady, "s1", "p1", api.PlayerReadyData{Ready: true})
	if err != nil {
		t.Fatalf("new message fail: %v", err)
	}
	if err = a.Publish(m); err != nil {
		t.Fatalf("publish fail: %v", err)
	}

	waitFor(t, "fan-out", func() bool { return sb.len() == 1 })
	if got := sb.at(0); got.T != api.PlayerReady || got.Sid != "s1" || got.Pid != "p1" {
		t.Errorf("mangled in transit: %+v", got)
	}

	// the publisher hears itself exactly once, via the local loopback,
	// the relay never echoes a message back to its sender
	if sa.len() != 1 {
		t.Errorf("expected 1 loopback message, got %d", sa.len())
	}
}

func TestRelayDropsMalformed(t *testing.T) {
	hub, addr := newTestRelay(t, "")

	good, err := broadcast.NewWs(addr, testLog)
	if err != nil {
		t.Fatalf("dial fail: %v", err)
	}
	defer func() { _ = good.Close() }()
	bad, err := broadcast.NewWs(addr, testLog)
	if err != nil {
		t.Fatalf("dial fail: %v", err)
	}
	defer func() { _ = bad.Close() }()

	waitFor(t, "both clients attached", func() bool { return hub.Size() == 2 })

	var got sink
	good.Subscribe(got.put)

	// an envelope with an unknown type tag must die at the relay
	_ = bad.Publish(api.Message{T: api.MT(200), Sid: "s1", Pid: "p2"})

	m, err := api.New(api.GameStart, "s1", "p2", api.GameStartData{GameId: "tetris"})
	if err != nil {
		t.Fatalf("new message fail: %v", err)
	}
	if err = bad.Publish(m); err != nil {
		t.Fatalf("publish fail: %v", err)
	}

	// only the well-formed trailing message arrives
	waitFor(t, "valid message", func() bool { return got.len() == 1 })
	if got.at(0).T != api.GameStart {
		t.Errorf("wrong message passed the relay: %+v", got.at(0))
	}
}

func TestRelayOriginRestriction(t *testing.T) {
	hub, addr := newTestRelay(t, "https://games.example.com")

	// the dialer sends no Origin header, so the upgrade is refused
	if _, err := broadcast.NewWs(addr, testLog); err == nil {
		t.Fatalf("expected the upgrade to be rejected")
	}
	if hub.Size() != 0 {
		t.Errorf("rejected client got attached")
	}
}

func TestRelayDetachOnDisconnect(t *testing.T) {
	hub, addr := newTestRelay(t, "")

	c, err := broadcast.NewWs(addr, testLog)
	if err != nil {
		t.Fatalf("dial fail: %v", err)
	}
	waitFor(t, "client attached", func() bool { return hub.Size() == 1 })

	_ = c.Close()
	<-c.Done()
	waitFor(t, "client detached", func() bool { return hub.Size() == 0 })
}
