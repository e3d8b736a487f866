package session

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/danmuck/peerline/internal/observability"
	"github.com/danmuck/peerline/internal/packet"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var ErrSessionClosed = errors.New("session: closed")

// Hooks are implemented by the session owner. They run on the session's
// worker goroutine.
type Hooks interface {
	OnNormalClose(s *Session, reason string)
	OnAbruptClose(s *Session)
	RemoveSession(s *Session)
}

// Session owns one connected peer socket and its worker goroutine.
type Session struct {
	id        uuid.UUID
	conn      net.Conn
	stream    *packet.Stream
	hooks     Hooks
	cfg       Config
	logger    zerolog.Logger
	startedAt time.Time

	handler  any
	dispatch func(packet.Packet) error

	mu                 sync.Mutex
	selfInitiatedClose bool

	done chan struct{}
}

// Start wraps a connected socket and launches its worker. bind receives the
// session before the worker starts; owners register the session there and
// return the connection-level handler that packets are dispatched to.
func Start[H any](conn net.Conn, hooks Hooks, catalog *packet.Catalog[H], bind func(*Session) H, cfg Config) (*Session, error) {
	if conn == nil {
		return nil, fmt.Errorf("session: nil conn")
	}
	if hooks == nil || catalog == nil || bind == nil {
		return nil, fmt.Errorf("session: hooks, catalog and bind are required")
	}
	cfg = cfg.WithDefaults()
	id := uuid.New()
	s := &Session{
		id:        id,
		conn:      conn,
		stream:    packet.NewStream(conn, catalog, cfg.Limits),
		hooks:     hooks,
		cfg:       cfg,
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}
	s.logger = log.With().
		Str("node", cfg.Node).
		Str("session", id.String()).
		Str("remote", remoteString(conn)).
		Logger()

	h := bind(s)
	s.handler = h
	s.dispatch = func(p packet.Packet) error {
		return catalog.Dispatch(h, p)
	}

	observability.RecordSessionEvent(cfg.Node, observability.SessionOpened)
	s.logger.Debug().Msg("session started")
	go s.run()
	return s, nil
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

func (s *Session) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// Handler returns the value bind produced for this session.
func (s *Session) Handler() any {
	return s.handler
}

// Done is closed once the worker goroutine has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) String() string {
	return fmt.Sprintf("%s (%s)", remoteString(s.conn), s.id.String()[:8])
}

// Send writes one packet to the peer. Safe for concurrent use.
func (s *Session) Send(p packet.Packet) error {
	if s.closing() {
		return ErrSessionClosed
	}
	return s.write(p)
}

func (s *Session) write(p packet.Packet) error {
	if s.cfg.WriteTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if err := s.stream.Write(p); err != nil {
		return fmt.Errorf("session %s: send %q: %w", s.id, p.Kind(), err)
	}
	observability.RecordPacket(s.cfg.Node, string(p.Kind()), observability.DirectionOut)
	return nil
}

// SendEnd notifies the peer that this side is closing with reason. From
// here on the session counts as self-closing: the peer tearing the socket
// down in response is not reported as an abrupt close.
func (s *Session) SendEnd(reason string) error {
	s.mu.Lock()
	already := s.selfInitiatedClose
	s.selfInitiatedClose = true
	s.mu.Unlock()
	if already {
		return ErrSessionClosed
	}
	return s.write(packet.EndSignal{Reason: reason})
}

// Close tears the socket down under a pending read and waits for the worker
// to exit. No close hook fires. Close must not be called from a packet
// handler of the same session.
func (s *Session) Close() {
	s.mu.Lock()
	s.selfInitiatedClose = true
	s.mu.Unlock()

	_ = s.conn.Close()
	<-s.done
}

func (s *Session) closing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selfInitiatedClose
}

func (s *Session) run() {
	defer close(s.done)
	err := s.loop()
	defer s.conn.Close()

	var end *packet.EndReceived
	switch {
	case errors.As(err, &end):
		s.logger.Info().Str("reason", end.Reason).Msg("session closed by peer")
		observability.RecordSessionEvent(s.cfg.Node, observability.SessionNormalClose)
		s.hooks.OnNormalClose(s, end.Reason)
		s.hooks.RemoveSession(s)
	case s.closing():
		s.logger.Debug().Err(err).Msg("session closed locally")
		observability.RecordSessionEvent(s.cfg.Node, observability.SessionSelfClose)
	default:
		s.logger.Warn().Err(err).Msg("session closed abruptly")
		observability.RecordSessionEvent(s.cfg.Node, observability.SessionAbruptClose)
		s.hooks.OnAbruptClose(s)
		s.hooks.RemoveSession(s)
	}
}

// loop reads and dispatches packets strictly in arrival order until the
// first error.
func (s *Session) loop() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("session: handler panic: %v", r)
		}
	}()
	for {
		p, err := s.stream.Read()
		if err != nil {
			return err
		}
		observability.RecordPacket(s.cfg.Node, string(p.Kind()), observability.DirectionIn)
		if err := s.dispatch(p); err != nil {
			return err
		}
	}
}

func remoteString(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "unknown"
}
