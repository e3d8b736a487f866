package chat

import (
	"fmt"
	"sync"

	"github.com/danmuck/peerline/internal/session"
)

// peer is the per-session packet handler.
type peer struct {
	chat *Chat
	s    *session.Session

	mu   sync.Mutex
	name string
}

func (p *peer) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.name == "" {
		return p.s.RemoteAddr().String()
	}
	return p.name
}

func (p *peer) onHello(h Hello) error {
	p.mu.Lock()
	prev := p.name
	p.name = h.Name
	p.mu.Unlock()

	if prev == "" {
		p.chat.Write(fmt.Sprintf("%s joined from %s", h.Name, p.s.RemoteAddr()))
		return nil
	}
	if prev != h.Name {
		p.chat.Write(fmt.Sprintf("%s is now known as %s", prev, h.Name))
	}
	return nil
}

func (p *peer) onText(t Text) error {
	from := t.From
	if from == "" {
		from = p.Name()
	}
	p.chat.Write(fmt.Sprintf("[%s] %s", from, t.Body))
	return nil
}

func peerName(s *session.Session) string {
	if p, ok := s.Handler().(*peer); ok {
		return p.Name()
	}
	return s.String()
}
