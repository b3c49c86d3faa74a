package streamclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/emanuele-galle/fodi-os-sub008/internal/platform/logger"
	"github.com/emanuele-galle/fodi-os-sub008/internal/realtime"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func TestBackoffScheduleDoublesToCap(t *testing.T) {
	bo := newBackoff()
	want := []time.Duration{
		1000 * time.Millisecond,
		2000 * time.Millisecond,
		4000 * time.Millisecond,
		8000 * time.Millisecond,
		16000 * time.Millisecond,
		30000 * time.Millisecond,
		30000 * time.Millisecond,
	}
	for i, w := range want {
		if got := bo.delay(); got != w {
			t.Fatalf("delay %d: want=%v got=%v", i, w, got)
		}
	}
	bo.reset()
	if got := bo.delay(); got != 1000*time.Millisecond {
		t.Fatalf("delay after reset: want=1s got=%v", got)
	}
}

func TestBackoffOnlyResetsAfterHandshakeFrame(t *testing.T) {
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		// 200 with no frames, then the stream drops.
	}))
	t.Cleanup(empty.Close)

	bo := newBackoff()
	bo.delay()
	bo.delay() // next delay would be 4s

	m := New(mustTestLogger(t), empty.URL, Options{})
	if err := m.stream(context.Background(), bo); err == nil {
		t.Fatalf("stream against an empty 200 must fail")
	}
	if got := bo.delay(); got != 4000*time.Millisecond {
		t.Fatalf("backoff reset by a frameless 200: want=4s got=%v", got)
	}
	if m.State() == StateConnected {
		t.Fatalf("frameless 200 must not count as connected")
	}

	handshake := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, connectedFrame())
	}))
	t.Cleanup(handshake.Close)

	m2 := New(mustTestLogger(t), handshake.URL, Options{})
	_ = m2.stream(context.Background(), bo)
	if got := bo.delay(); got != 1000*time.Millisecond {
		t.Fatalf("backoff after handshake: want=1s got=%v", got)
	}
}

// streamServer is a minimal stream endpoint for client tests. Each call to
// its frames function is written as-is; the stream then stays open until the
// client goes away.
func streamServer(t *testing.T, active *atomic.Int32, frames func(n int) []string) *httptest.Server {
	t.Helper()
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if active != nil {
			active.Add(1)
			defer active.Add(-1)
		}
		n := int(requests.Add(1))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fs := frames(n)
		for _, f := range fs {
			fmt.Fprint(w, f)
			flusher.Flush()
		}
		// A nil frame list means "drop the stream right away".
		if fs == nil {
			return
		}
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func connectedFrame() string {
	return "data: {\"type\":\"connected\"}\n\n"
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %v", timeout)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestManagerDispatchesInSubscriptionOrder(t *testing.T) {
	srv := streamServer(t, nil, func(n int) []string {
		return []string{
			connectedFrame(),
			"data: {\"type\":\"new_message\",\"channelId\":\"c1\"}\n\n",
		}
	})

	m := New(mustTestLogger(t), srv.URL, Options{})
	defer m.Close()

	var mu sync.Mutex
	var order []string
	record := func(tag string) func(realtime.Envelope) {
		return func(env realtime.Envelope) {
			mu.Lock()
			order = append(order, tag+":"+string(env.Type))
			mu.Unlock()
		}
	}
	m.Subscribe(record("first"))
	m.Subscribe(record("second"))

	m.Start()

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 4
	})

	mu.Lock()
	defer mu.Unlock()
	want := []string{"first:connected", "second:connected", "first:new_message", "second:new_message"}
	for i, w := range want {
		if order[i] != w {
			t.Fatalf("dispatch order[%d]: want=%s got=%s", i, w, order[i])
		}
	}
}

func TestHeartbeatNeverReachesSubscribers(t *testing.T) {
	srv := streamServer(t, nil, func(n int) []string {
		return []string{
			connectedFrame(),
			": ping\n\n",
			": ping\n\n",
			"data: {\"type\":\"typing\"}\n\n",
		}
	})

	m := New(mustTestLogger(t), srv.URL, Options{})
	defer m.Close()

	var mu sync.Mutex
	var got []realtime.Event
	m.Subscribe(func(env realtime.Envelope) {
		mu.Lock()
		got = append(got, env.Type)
		mu.Unlock()
	})
	m.Start()

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) >= 2
	})

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != realtime.EventConnected || got[1] != realtime.EventTyping {
		t.Fatalf("heartbeats must not invoke subscribers, got %v", got)
	}
}

func TestMalformedFramesAreDiscarded(t *testing.T) {
	srv := streamServer(t, nil, func(n int) []string {
		return []string{
			connectedFrame(),
			"data: {this is not json\n\n",
			"data: {\"type\":\"badge_update\"}\n\n",
		}
	})

	m := New(mustTestLogger(t), srv.URL, Options{})
	defer m.Close()

	var mu sync.Mutex
	var got []realtime.Event
	m.Subscribe(func(env realtime.Envelope) {
		mu.Lock()
		got = append(got, env.Type)
		mu.Unlock()
	})
	m.Start()

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) >= 2
	})

	mu.Lock()
	defer mu.Unlock()
	if got[0] != realtime.EventConnected || got[1] != realtime.EventBadgeUpdate {
		t.Fatalf("malformed frame leaked to subscribers: %v", got)
	}
}

func TestSingleConnectionRegardlessOfSubscriberCount(t *testing.T) {
	var active atomic.Int32
	srv := streamServer(t, &active, func(n int) []string {
		return []string{connectedFrame()}
	})

	m := New(mustTestLogger(t), srv.URL, Options{})
	defer m.Close()

	for i := 0; i < 5; i++ {
		m.Subscribe(func(realtime.Envelope) {})
	}
	m.Start()

	waitFor(t, 2*time.Second, func() bool { return m.State() == StateConnected })
	time.Sleep(50 * time.Millisecond)
	if got := active.Load(); got != 1 {
		t.Fatalf("open transports: want=1 got=%d", got)
	}
}

func TestManagerReconnectsAfterStreamLoss(t *testing.T) {
	srv := streamServer(t, nil, func(n int) []string {
		if n == 1 {
			// First stream ends right after the handshake.
			return nil
		}
		return []string{
			connectedFrame(),
			"data: {\"type\":\"data_changed\"}\n\n",
		}
	})
	m := New(mustTestLogger(t), srv.URL, Options{})
	defer m.Close()

	var mu sync.Mutex
	var got []realtime.Event
	m.Subscribe(func(env realtime.Envelope) {
		mu.Lock()
		got = append(got, env.Type)
		mu.Unlock()
	})
	m.Start()

	// First attempt fails fast, reconnect is scheduled at the initial 1s
	// backoff, then the second stream delivers.
	waitFor(t, 5*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range got {
			if e == realtime.EventDataChanged {
				return true
			}
		}
		return false
	})
}

func TestUnsubscribeRemovesExactlyThatCallback(t *testing.T) {
	srv := streamServer(t, nil, func(n int) []string {
		return []string{connectedFrame()}
	})

	m := New(mustTestLogger(t), srv.URL, Options{})
	defer m.Close()

	var mu sync.Mutex
	var keptCalls, droppedCalls int
	m.Subscribe(func(realtime.Envelope) {
		mu.Lock()
		keptCalls++
		mu.Unlock()
	})
	unsubDropped := m.Subscribe(func(realtime.Envelope) {
		mu.Lock()
		droppedCalls++
		mu.Unlock()
	})
	unsubDropped()
	unsubDropped() // second call is a no-op

	m.Start()

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return keptCalls >= 1
	})

	mu.Lock()
	defer mu.Unlock()
	if droppedCalls != 0 {
		t.Fatalf("unsubscribed callback was invoked %d times", droppedCalls)
	}
}

func TestCloseIsPermanent(t *testing.T) {
	var active atomic.Int32
	srv := streamServer(t, &active, func(n int) []string {
		return []string{connectedFrame()}
	})

	m := New(mustTestLogger(t), srv.URL, Options{})
	m.Start()
	waitFor(t, 2*time.Second, func() bool { return m.State() == StateConnected })

	m.Close()
	if m.State() != StateDisconnected {
		t.Fatalf("state after close: want=disconnected got=%s", m.State())
	}
	waitFor(t, 2*time.Second, func() bool { return active.Load() == 0 })

	// No reconnect attempt ever follows.
	time.Sleep(100 * time.Millisecond)
	if got := active.Load(); got != 0 {
		t.Fatalf("transport reopened after close: %d", got)
	}
}
