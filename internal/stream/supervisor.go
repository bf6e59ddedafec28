package stream

import (
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lehrwerk/ai-authoring-sync/internal/protocol"
)

// Status describes the supervisor's connection state.
type Status int

const (
	// StatusDisconnected means no connection exists but reconnection may
	// still happen.
	StatusDisconnected Status = iota
	// StatusConnecting means a dial or retry cycle is in progress.
	StatusConnecting
	// StatusConnected means the stream is live.
	StatusConnected
	// StatusOffline means the retry budget is exhausted; only an explicit
	// EnsureConnected starts a new cycle.
	StatusOffline
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusOffline:
		return "offline"
	}
	return "unknown"
}

// Config tunes the supervisor. Zero values fall back to the defaults below.
type Config struct {
	Endpoint          string
	RetryDelay        time.Duration
	MaxAttempts       int
	HeartbeatInterval time.Duration
	HandshakeTimeout  time.Duration
}

const (
	defaultRetryDelay        = 3 * time.Second
	defaultMaxAttempts       = 5
	defaultHeartbeatInterval = 30 * time.Second
	defaultHandshakeTimeout  = 10 * time.Second

	// readWait is how long the read loop tolerates silence before
	// declaring the connection dead.
	readWait = 90 * time.Second
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second
)

func (c Config) withDefaults() Config {
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaultRetryDelay
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = defaultHeartbeatInterval
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = defaultHandshakeTimeout
	}
	return c
}

var errNoCredential = errors.New("no credential available")

// Supervisor owns the event-stream connection: it dials only when a
// credential is present and something is interested in the stream, retries
// failed dials a bounded number of times at a fixed interval, keeps the
// connection alive with application-level pings, and re-subscribes tracked
// channels after a reconnect.
type Supervisor struct {
	cfg        Config
	dispatcher *Dispatcher
	log        zerolog.Logger

	// OnStatus, if set before the first EnsureConnected, is called on
	// every status change.
	OnStatus func(Status)

	mu         sync.Mutex
	conn       *websocket.Conn
	credential string
	interested bool
	running    bool
	closing    bool
	status     Status
	channels   map[string]bool
}

// NewSupervisor creates a Supervisor for the endpoint in cfg.
func NewSupervisor(cfg Config, d *Dispatcher, log zerolog.Logger) *Supervisor {
	return &Supervisor{
		cfg:        cfg.withDefaults(),
		dispatcher: d,
		log:        log,
		channels:   make(map[string]bool),
	}
}

// Status returns the current connection status.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetCredential stores the bearer credential used to authenticate the
// stream. Changing it while connected forces a reconnect so the new
// credential takes effect.
func (s *Supervisor) SetCredential(credential string) {
	s.mu.Lock()
	changed := s.credential != credential
	s.credential = credential
	conn := s.conn
	s.mu.Unlock()

	if changed && conn != nil {
		s.log.Info().Msg("credential changed, cycling connection")
		conn.Close()
	}
	if changed && credential != "" {
		s.EnsureConnected()
	}
}

// SetInterested declares whether anything currently wants the stream.
// Without interest the supervisor neither connects nor reconnects.
func (s *Supervisor) SetInterested(interested bool) {
	s.mu.Lock()
	s.interested = interested
	conn := s.conn
	if !interested {
		s.closing = true
	}
	s.mu.Unlock()

	if !interested && conn != nil {
		conn.Close()
	}
	if interested {
		s.EnsureConnected()
	}
}

// EnsureConnected starts a connect cycle if one is not already running and
// the gating conditions (credential present, interest declared) hold. It
// also restarts a supervisor that went offline.
func (s *Supervisor) EnsureConnected() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || s.credential == "" || !s.interested {
		return
	}
	s.running = true
	s.closing = false
	go s.run()
}

// Disconnect closes the connection and stops reconnection until the next
// EnsureConnected.
func (s *Supervisor) Disconnect() {
	s.mu.Lock()
	s.closing = true
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// Subscribe registers interest in a job's event channel. The frame is sent
// immediately when connected and replayed after every reconnect.
func (s *Supervisor) Subscribe(jobID string) error {
	s.mu.Lock()
	s.channels[jobID] = true
	connected := s.conn != nil
	s.mu.Unlock()

	if !connected {
		return nil
	}
	frame, err := protocol.MarshalSubscribe(jobID)
	if err != nil {
		return err
	}
	return s.write(frame)
}

// Unsubscribe withdraws interest in a job's event channel.
func (s *Supervisor) Unsubscribe(jobID string) error {
	s.mu.Lock()
	delete(s.channels, jobID)
	connected := s.conn != nil
	s.mu.Unlock()

	if !connected {
		return nil
	}
	frame, err := protocol.MarshalUnsubscribe(jobID)
	if err != nil {
		return err
	}
	return s.write(frame)
}

func (s *Supervisor) run() {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.closing = false
		s.mu.Unlock()
	}()

	attempts := 0
	for {
		if s.shouldStop() {
			s.setStatus(StatusDisconnected)
			return
		}

		s.setStatus(StatusConnecting)
		conn, err := s.dial()
		if err != nil {
			attempts++
			if attempts >= s.cfg.MaxAttempts {
				s.log.Error().Err(err).Int("attempts", attempts).Msg("retry budget exhausted, going offline")
				s.setStatus(StatusOffline)
				return
			}
			s.log.Warn().Err(err).Int("attempt", attempts).Dur("retry_in", s.cfg.RetryDelay).Msg("dial failed")
			time.Sleep(s.cfg.RetryDelay)
			continue
		}

		s.attach(conn)
		s.setStatus(StatusConnected)
		s.log.Info().Msg("event stream connected")

		stopHeartbeat := make(chan struct{})
		go s.heartbeat(conn, stopHeartbeat)

		frames, err := s.readLoop(conn)
		close(stopHeartbeat)
		s.detach(conn)

		if s.shouldStop() {
			s.setStatus(StatusDisconnected)
			return
		}

		// A dropped connection consumes retry budget like a failed dial;
		// only a connection that actually delivered frames re-arms it.
		if frames > 0 {
			attempts = 0
		}
		attempts++
		if attempts >= s.cfg.MaxAttempts {
			s.log.Error().Err(err).Int("attempts", attempts).Msg("retry budget exhausted, going offline")
			s.setStatus(StatusOffline)
			return
		}
		s.log.Warn().Err(err).Int("attempt", attempts).Dur("retry_in", s.cfg.RetryDelay).Msg("event stream dropped")
		s.setStatus(StatusDisconnected)
		time.Sleep(s.cfg.RetryDelay)
	}
}

func (s *Supervisor) shouldStop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing || s.credential == "" || !s.interested
}

func (s *Supervisor) dial() (*websocket.Conn, error) {
	s.mu.Lock()
	credential := s.credential
	s.mu.Unlock()
	if credential == "" {
		return nil, errNoCredential
	}

	u, err := url.Parse(s.cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", credential)
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: s.cfg.HandshakeTimeout}
	conn, _, err := dialer.Dial(u.String(), nil)
	return conn, err
}

func (s *Supervisor) attach(conn *websocket.Conn) {
	s.mu.Lock()
	s.conn = conn
	channels := make([]string, 0, len(s.channels))
	for ch := range s.channels {
		channels = append(channels, ch)
	}
	s.mu.Unlock()

	for _, ch := range channels {
		frame, err := protocol.MarshalSubscribe(ch)
		if err != nil {
			continue
		}
		if err := s.write(frame); err != nil {
			s.log.Warn().Err(err).Str("channel", ch).Msg("resubscribe failed")
		}
	}
}

func (s *Supervisor) detach(conn *websocket.Conn) {
	conn.Close()
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
}

// readLoop dispatches frames until the connection dies, returning how many
// frames arrived alongside the terminating error.
func (s *Supervisor) readLoop(conn *websocket.Conn) (int, error) {
	conn.SetReadDeadline(time.Now().Add(readWait))
	frames := 0
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return frames, err
		}
		frames++
		conn.SetReadDeadline(time.Now().Add(readWait))
		s.dispatcher.Dispatch(message)
	}
}

func (s *Supervisor) heartbeat(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			frame, err := protocol.MarshalPing(time.Now().UnixMilli())
			if err != nil {
				return
			}
			if err := s.write(frame); err != nil {
				s.log.Warn().Err(err).Msg("heartbeat write failed")
				conn.Close()
				return
			}
		}
	}
}

func (s *Supervisor) write(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return errors.New("not connected")
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

func (s *Supervisor) setStatus(status Status) {
	s.mu.Lock()
	changed := s.status != status
	s.status = status
	cb := s.OnStatus
	s.mu.Unlock()

	if changed && cb != nil {
		cb(status)
	}
}
