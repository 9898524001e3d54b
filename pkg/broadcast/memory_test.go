package broadcast

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/openminis/party/pkg/api"
)

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

func TestHubDeliversToEveryoneInOrder(t *testing.T) {
	hub := NewHub(0)
	defer hub.Close()

	a, b := hub.Channel(), hub.Channel()
	var sa, sb sink
	a.Subscribe(sa.put)
	b.Subscribe(sb.put)

	const n = 20
	for i := 0; i < n; i++ {
		if err := a.Publish(api.Message{T: api.GameMove, Sid: "s1", Pid: fmt.Sprintf("p%d", i)}); err != nil {
			t.Fatalf("publish fail: %v", err)
		}
	}

	waitFor(t, "delivery", func() bool { return sa.len() == n && sb.len() == n })

	// publish order is preserved and the sender hears itself
	for i := 0; i < n; i++ {
		want := fmt.Sprintf("p%d", i)
		if sa.at(i).Pid != want || sb.at(i).Pid != want {
			t.Fatalf("order broken at %d: %v / %v", i, sa.at(i).Pid, sb.at(i).Pid)
		}
	}
}

func TestHubDelay(t *testing.T) {
	hub := NewHub(20 * time.Millisecond)
	defer hub.Close()

	ch := hub.Channel()
	var s sink
	ch.Subscribe(s.put)

	start := time.Now()
	_ = ch.Publish(api.Message{T: api.PlayerReady, Sid: "s1", Pid: "p1"})
	waitFor(t, "delayed delivery", func() bool { return s.len() == 1 })
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("delivered too early: %v", elapsed)
	}
}

func TestChannelUnsubscribe(t *testing.T) {
	hub := NewHub(0)
	defer hub.Close()

	ch := hub.Channel()
	var muted, active sink
	unsub := ch.Subscribe(muted.put)
	ch.Subscribe(active.put)
	unsub()

	_ = ch.Publish(api.Message{T: api.PlayerReady, Sid: "s1", Pid: "p1"})
	waitFor(t, "delivery", func() bool { return active.len() == 1 })
	if muted.len() != 0 {
		t.Errorf("unsubscribed handler was called")
	}
}

func TestClosedChannelStopsDelivery(t *testing.T) {
	hub := NewHub(0)
	defer hub.Close()

	gone, stays := hub.Channel(), hub.Channel()
	var sg, ss sink
	gone.Subscribe(sg.put)
	stays.Subscribe(ss.put)

	_ = gone.Close()
	if err := gone.Publish(api.Message{T: api.PlayerReady}); err == nil {
		t.Errorf("expected publish on a closed channel to fail")
	}

	_ = stays.Publish(api.Message{T: api.PlayerReady, Sid: "s1", Pid: "p1"})
	waitFor(t, "delivery", func() bool { return ss.len() == 1 })
	if sg.len() != 0 {
		t.Errorf("closed channel still receives")
	}
}

func TestClosedHubRejectsPublish(t *testing.T) {
	hub := NewHub(0)
	ch := hub.Channel()
	hub.Close()
	if err := ch.Publish(api.Message{T: api.PlayerReady}); err == nil {
		t.Errorf("publish on a closed hub must fail")
	}
}

func TestFullHubDropsInsteadOfBlocking(t *testing.T) {
	// a huge delay parks the pump on the first message, so the queue
	// can only fill up; publish must fail fast rather than block
	hub := NewHub(time.Hour)
	defer hub.Close()
	ch := hub.Channel()

	var failed error
	for i := 0; i < 600; i++ {
		if err := ch.Publish(api.Message{T: api.GameMove, Sid: "s1"}); err != nil {
			failed = err
			break
		}
	}
	if failed == nil {
		t.Fatalf("publish never reported a full queue")
	}
}
