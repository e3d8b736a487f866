package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/danmuck/peerline/internal/command"
	"github.com/danmuck/peerline/internal/observability"
	"github.com/danmuck/peerline/internal/packet"
	"github.com/danmuck/peerline/internal/session"
	"github.com/danmuck/peerline/internal/tokenize"
	"github.com/rs/zerolog/log"
)

// ErrShuttingDown is returned by Attach once the application has begun to
// exit.
var ErrShuttingDown = errors.New("app: shutting down")

// Handler is implemented by the concrete application. Embedding
// *Application provides Write and CommandNames.
type Handler interface {
	Write(s string)
	CommandNames() []string
	HandleNotFound(nf command.NotFound) error
	OnNormalClose(s *session.Session, reason string)
	OnAbruptClose(s *session.Session)
	ExitMessage() string
	AfterExit()
}

// Options configures an Application.
type Options struct {
	In      io.Reader
	Out     io.Writer
	Debug   bool
	Session session.Config
	// Tokenizer defaults to the whitespace tokenizer.
	Tokenizer tokenize.Tokenizer
}

// Application owns the console loop and the live sessions of one handler.
type Application[H Handler] struct {
	handler  H
	resolver *command.Resolver[H]
	sessions *session.Set
	opts     Options

	outMu sync.Mutex

	lifeMu       sync.Mutex
	shuttingDown bool
}

func New[H Handler](handler H, catalog *command.Catalog[H], opts Options) *Application[H] {
	opts.Session = opts.Session.WithDefaults()
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Application[H]{
		handler:  handler,
		resolver: command.NewResolver(catalog, opts.Tokenizer),
		sessions: session.NewSet(opts.Session.Node),
		opts:     opts,
	}
}

// NewBuilder returns a command builder carrying the built-in exit and help
// commands and the default fallbacks.
func NewBuilder[H Handler]() *command.Builder[H] {
	return command.NewBuilder[H]().
		Add(
			command.ExitCommand[H](),
			command.HelpCommand(func(h H, _ command.Help) error {
				h.Write("commands: " + strings.Join(h.CommandNames(), ", "))
				return nil
			}),
		).
		Fallbacks(
			func(h H, nf command.NotFound) error {
				return h.HandleNotFound(nf)
			},
			func(h H, bc command.BadArgumentCount) error {
				h.Write(fmt.Sprintf("bad argument count: %d", bc.Count))
				return nil
			},
		)
}

// Write prints one line to the operator. Safe for concurrent use.
func (a *Application[H]) Write(s string) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	_, _ = fmt.Fprintln(a.opts.Out, s)
}

// WriteDebug prints only when the application runs with Debug.
func (a *Application[H]) WriteDebug(s string) {
	if a.opts.Debug {
		a.Write(s)
	}
}

func (a *Application[H]) CommandNames() []string {
	return a.resolver.Catalog().Names()
}

func (a *Application[H]) Sessions() *session.Set {
	return a.sessions
}

func (a *Application[H]) SessionConfig() session.Config {
	return a.opts.Session
}

// Attach starts a session on a connected socket and registers it before its
// worker runs. It returns ErrShuttingDown once exit has begun; the caller
// still owns conn in that case.
func Attach[H Handler, C any](a *Application[H], conn net.Conn, catalog *packet.Catalog[C], bind func(*session.Session) C) (*session.Session, error) {
	a.lifeMu.Lock()
	defer a.lifeMu.Unlock()
	if a.shuttingDown {
		return nil, ErrShuttingDown
	}
	return session.Start(conn, hooks[H]{a: a}, catalog, func(s *session.Session) C {
		a.sessions.Add(s)
		return bind(s)
	}, a.opts.Session)
}

// Execute resolves and invokes one trimmed operator line.
func (a *Application[H]) Execute(line string) error {
	res, ok := a.resolver.Resolve(line)
	if !ok {
		return nil
	}
	err := command.Invoke(a.handler, res)
	observability.RecordDispatch(a.opts.Session.Node, a.dispatchResult(res, err))
	return err
}

func (a *Application[H]) dispatchResult(res command.Resolution[H], err error) string {
	var pe *command.ParseError
	switch {
	case errors.Is(err, command.ErrExit):
		return observability.DispatchExit
	case errors.As(err, &pe):
		return observability.DispatchParse
	case err != nil:
		return observability.DispatchFailed
	case res.Outcome == command.Unmatched:
		return observability.DispatchNotFound
	case res.Outcome == command.WrongArgumentCount:
		return observability.DispatchBadArity
	default:
		return observability.DispatchOK
	}
}

// Run reads operator lines until the exit command, the end of input or ctx
// cancellation, then shuts every session down. A read error from the
// input is returned after shutdown.
func (a *Application[H]) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go a.scanLines(ctx, done, lines, readErr)

	for {
		select {
		case <-ctx.Done():
			a.exit()
			return nil
		case line, ok := <-lines:
			if !ok {
				a.exit()
				return <-readErr
			}
			if a.handle(strings.TrimSpace(line)) {
				a.exit()
				return nil
			}
		}
	}
}

// scanLines feeds operator input to Run. It stops once Run has returned or
// ctx is done; a Read already in progress still has to return first.
func (a *Application[H]) scanLines(ctx context.Context, done <-chan struct{}, lines chan<- string, readErr chan<- error) {
	scanner := bufio.NewScanner(a.opts.In)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		case <-done:
			return
		}
	}
	readErr <- scanner.Err()
	close(lines)
}

// handle reports whether the loop should exit.
func (a *Application[H]) handle(line string) bool {
	if line == "" {
		return false
	}
	err := a.Execute(line)
	if err == nil {
		return false
	}
	if errors.Is(err, command.ErrExit) {
		return true
	}
	var pe *command.ParseError
	if errors.As(err, &pe) {
		a.Write(pe.Error())
		return false
	}
	log.Debug().Err(err).Str("line", line).Msg("command failed")
	a.Write(err.Error())
	return false
}

func (a *Application[H]) exit() {
	a.lifeMu.Lock()
	a.shuttingDown = true
	a.lifeMu.Unlock()
	session.CloseAll(a.sessions, a.handler.ExitMessage())
	a.handler.AfterExit()
}

// hooks adapts the handler to session.Hooks.
type hooks[H Handler] struct {
	a *Application[H]
}

func (h hooks[H]) OnNormalClose(s *session.Session, reason string) {
	h.a.handler.OnNormalClose(s, reason)
}

func (h hooks[H]) OnAbruptClose(s *session.Session) {
	h.a.handler.OnAbruptClose(s)
}

func (h hooks[H]) RemoveSession(s *session.Session) {
	h.a.sessions.Remove(s)
}
