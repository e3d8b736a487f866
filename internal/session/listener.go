package session

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// Dial connects to addr, honoring cfg.DialTimeout and ctx.
func Dial(ctx context.Context, addr string, cfg Config) (net.Conn, error) {
	cfg = cfg.WithDefaults()
	d := net.Dialer{Timeout: cfg.DialTimeout}
	return d.DialContext(ctx, "tcp", addr)
}

// Listener accepts sockets and hands each one to accept on the accept loop
// goroutine; accept must not block.
type Listener struct {
	ln     net.Listener
	cfg    Config
	live   func() int
	accept func(net.Conn)
	done   chan struct{}
}

// Listen starts accepting on addr. live reports the owner's current session
// count for the MaxSessions limit and may be nil.
func Listen(addr string, cfg Config, live func() int, accept func(net.Conn)) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return Serve(ln, cfg, live, accept), nil
}

// Serve runs the accept loop on an existing listener.
func Serve(ln net.Listener, cfg Config, live func() int, accept func(net.Conn)) *Listener {
	l := &Listener{
		ln:     ln,
		cfg:    cfg.WithDefaults(),
		live:   live,
		accept: accept,
		done:   make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Close stops accepting and waits for the accept loop to exit. Sessions
// already accepted are unaffected.
func (l *Listener) Close() error {
	err := l.ln.Close()
	<-l.done
	return err
}

// Wait blocks until the accept loop exits or ctx is done.
func (l *Listener) Wait(ctx context.Context) error {
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Listener) run() {
	defer close(l.done)

	attempt := 0
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if retryableAccept(err) {
				attempt++
				delay := nextBackoffDelay(l.cfg.AcceptBackoff, attempt, nil)
				log.Warn().Err(err).Dur("retry_in", delay).Msg("accept error")
				time.Sleep(delay)
				continue
			}
			log.Error().Err(err).Str("addr", l.ln.Addr().String()).Msg("accept loop stopped, no longer accepting peers")
			return
		}
		attempt = 0

		if l.cfg.MaxSessions > 0 && l.live != nil && l.live() >= l.cfg.MaxSessions {
			_ = conn.Close()
			log.Warn().Str("remote", conn.RemoteAddr().String()).Int("max", l.cfg.MaxSessions).Msg("too many sessions")
			continue
		}
		l.accept(conn)
	}
}

// retryableAccept reports whether an Accept error is transient: timeouts,
// descriptor exhaustion and connections reset before they were accepted.
func retryableAccept(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE) ||
		errors.Is(err, syscall.ECONNABORTED)
}
