package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/danmuck/peerline/internal/app"
	"github.com/danmuck/peerline/internal/command"
	"github.com/danmuck/peerline/internal/packet"
	"github.com/danmuck/peerline/internal/session"
	"github.com/rs/zerolog/log"
)

var ErrAlreadyListening = errors.New("chat: already listening")

// Chat is the console application. Its exported methods are safe to call
// from any goroutine.
type Chat struct {
	*app.Application[*Chat]
	cfg Config

	mu       sync.Mutex
	name     string
	listener *session.Listener
}

func New(cfg Config, in io.Reader, out io.Writer) *Chat {
	c := &Chat{cfg: cfg, name: cfg.Name}
	c.Application = app.New(c, commands, app.Options{
		In:      in,
		Out:     out,
		Debug:   cfg.Debug,
		Session: cfg.Session,
	})
	return c
}

func (c *Chat) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

// Rename changes the local display name and announces it to every peer.
func (c *Chat) Rename(name string) {
	c.mu.Lock()
	c.name = name
	c.mu.Unlock()
	c.broadcast(Hello{Name: name})
}

// Listen accepts peers on addr until exit.
func (c *Chat) Listen(addr string) (net.Addr, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listener != nil {
		return nil, fmt.Errorf("%w on %s", ErrAlreadyListening, c.listener.Addr())
	}
	l, err := session.Listen(addr, c.SessionConfig(), c.Sessions().Len, c.accept)
	if err != nil {
		return nil, err
	}
	c.listener = l
	log.Info().Str("addr", l.Addr().String()).Msg("listening for peers")
	return l.Addr(), nil
}

// Connect dials addr and starts a session with the remote peer.
func (c *Chat) Connect(ctx context.Context, addr string) (*session.Session, error) {
	conn, err := session.Dial(ctx, addr, c.SessionConfig())
	if err != nil {
		return nil, err
	}
	s, err := c.attach(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (c *Chat) accept(conn net.Conn) {
	if _, err := c.attach(conn); err != nil {
		log.Warn().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("peer rejected")
		_ = conn.Close()
	}
}

func (c *Chat) attach(conn net.Conn) (*session.Session, error) {
	s, err := app.Attach(c.Application, conn, packets, func(s *session.Session) *peer {
		return &peer{chat: c, s: s}
	})
	if err != nil {
		return nil, err
	}
	c.WriteDebug(fmt.Sprintf("session %s opened", s))
	if err := s.Send(Hello{Name: c.Name()}); err != nil {
		log.Debug().Err(err).Str("session", s.ID().String()).Msg("hello not delivered")
	}
	return s, nil
}

// broadcast returns how many peers the packet reached.
func (c *Chat) broadcast(p packet.Packet) int {
	sent := 0
	for _, s := range c.Sessions().Snapshot() {
		if err := s.Send(p); err != nil {
			log.Debug().Err(err).Str("session", s.ID().String()).Msg("broadcast skipped peer")
			continue
		}
		sent++
	}
	return sent
}

func (c *Chat) HandleNotFound(nf command.NotFound) error {
	c.Write(fmt.Sprintf("unknown command %q, try help", nf.Input))
	return nil
}

func (c *Chat) OnNormalClose(s *session.Session, reason string) {
	c.Write(fmt.Sprintf("%s left: %s", peerName(s), reason))
}

func (c *Chat) OnAbruptClose(s *session.Session) {
	c.Write(fmt.Sprintf("lost connection to %s", peerName(s)))
}

func (c *Chat) ExitMessage() string {
	return c.cfg.ExitMessage
}

func (c *Chat) AfterExit() {
	c.mu.Lock()
	l := c.listener
	c.listener = nil
	c.mu.Unlock()
	if l != nil {
		_ = l.Close()
	}
}
