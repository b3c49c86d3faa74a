package streamclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emanuele-galle/fodi-os-sub008/internal/platform/logger"
	"github.com/emanuele-galle/fodi-os-sub008/internal/realtime"
)

// Manager keeps exactly one streaming connection open against the stream
// endpoint, reconnects with exponential backoff, and fans received envelopes
// out to any number of local subscribers. UI units subscribe here instead of
// opening their own streams.
type Manager struct {
	log        *logger.Logger
	url        string
	token      string
	httpClient *http.Client

	state atomic.Int32

	mu        sync.Mutex
	subs      []subscriber
	nextSubID int

	startOnce sync.Once
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

type subscriber struct {
	id int
	fn func(realtime.Envelope)
}

type Options struct {
	Token      string
	HTTPClient *http.Client
}

func New(log *logger.Logger, url string, opts Options) *Manager {
	hc := opts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Manager{
		log:        log.With("component", "StreamClient"),
		url:        url,
		token:      opts.Token,
		httpClient: hc,
	}
}

// Start launches the connection loop. Calling it more than once is a no-op.
func (m *Manager) Start() {
	m.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		m.cancel = cancel
		m.wg.Add(1)
		go m.run(ctx)
	})
}

// Close cancels any pending reconnect, closes the active transport, and
// leaves the manager disconnected permanently.
func (m *Manager) Close() {
	m.startOnce.Do(func() {}) // a never-started manager has nothing to stop
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.setState(StateDisconnected)
}

func (m *Manager) State() State {
	return State(m.state.Load())
}

// Subscribe adds a callback to the local fan-out set and returns a function
// that removes exactly that callback. Callbacks run synchronously, in the
// order Subscribe calls were made.
func (m *Manager) Subscribe(fn func(realtime.Envelope)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSubID++
	id := m.nextSubID
	m.subs = append(m.subs, subscriber{id: id, fn: fn})
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

func (m *Manager) setState(s State) {
	m.state.Store(int32(s))
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	bo := newBackoff()
	for {
		if ctx.Err() != nil {
			m.setState(StateDisconnected)
			return
		}
		m.setState(StateConnecting)
		err := m.stream(ctx, bo)
		m.setState(StateDisconnected)
		if ctx.Err() != nil {
			return
		}
		delay := bo.delay()
		m.log.Debug("stream lost, scheduling reconnect", "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// stream opens one transport and pumps frames until it ends. The manager
// only counts as connected, and the backoff only resets, once the handshake
// frame arrives; a server that answers 200 and drops the stream before
// writing anything keeps the backoff growing.
func (m *Manager) stream(ctx context.Context, bo *backoff) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream open: %s", resp.Status)
	}

	return m.readFrames(resp.Body, func() {
		m.setState(StateConnected)
		bo.reset()
	})
}

// readFrames parses the text stream line by line. Comment frames (heartbeats)
// and frames that fail to parse are discarded without reaching subscribers.
// onOpen runs once, when the first well-formed frame is observed.
func (m *Manager) readFrames(r io.Reader, onOpen func()) error {
	br := bufio.NewReader(r)
	var dataLines []string
	opened := false

	flush := func() {
		if len(dataLines) == 0 {
			return
		}
		data := strings.Join(dataLines, "\n")
		dataLines = nil
		var env realtime.Envelope
		if err := json.Unmarshal([]byte(data), &env); err != nil {
			m.log.Debug("discarding malformed frame", "error", err)
			return
		}
		if !opened {
			opened = true
			onOpen()
		}
		m.dispatch(env)
	}

	for {
		line, err := br.ReadString('\n')
		if err != nil {
			flush()
			if err == io.EOF {
				return fmt.Errorf("stream ended")
			}
			return err
		}
		line = strings.TrimRight(line, "\r\n")

		// Blank line ends a frame.
		if line == "" {
			flush()
			continue
		}

		// Comment frame: heartbeat, ignored by presence.
		if strings.HasPrefix(line, ":") {
			continue
		}

		if strings.HasPrefix(line, "data:") {
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
			continue
		}
	}
}

func (m *Manager) dispatch(env realtime.Envelope) {
	m.mu.Lock()
	subs := make([]subscriber, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, s := range subs {
		s.fn(env)
	}
}
