package session

import (
	"slices"
	"sync"

	"github.com/danmuck/peerline/internal/observability"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Set is the owner's collection of live sessions. Terminating workers remove
// themselves from it concurrently with the owner's reads.
type Set struct {
	node  string
	mu    sync.Mutex
	items map[uuid.UUID]*Session
}

func NewSet(node string) *Set {
	return &Set{node: node, items: make(map[uuid.UUID]*Session)}
}

func (s *Set) Add(sess *Session) {
	s.mu.Lock()
	s.items[sess.id] = sess
	n := len(s.items)
	s.mu.Unlock()
	observability.SetLiveSessions(s.node, n)
}

// Remove reports whether sess was present.
func (s *Set) Remove(sess *Session) bool {
	s.mu.Lock()
	_, ok := s.items[sess.id]
	delete(s.items, sess.id)
	n := len(s.items)
	s.mu.Unlock()
	observability.SetLiveSessions(s.node, n)
	return ok
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Snapshot returns the live sessions ordered by start time.
func (s *Set) Snapshot() []*Session {
	s.mu.Lock()
	out := lo.Values(s.items)
	s.mu.Unlock()
	slices.SortFunc(out, func(a, b *Session) int {
		return a.startedAt.Compare(b.startedAt)
	})
	return out
}

// CloseAll sends EndSignal{reason} to every live session, then closes and
// removes each one. Sessions added while it runs are swept on the next pass,
// so the set is empty on return unless the owner keeps admitting sockets.
// Sends are best effort and not synchronized with packets arriving
// concurrently.
func CloseAll(set *Set, reason string) {
	for {
		sessions := set.Snapshot()
		if len(sessions) == 0 {
			return
		}
		for _, sess := range sessions {
			if err := sess.SendEnd(reason); err != nil {
				log.Debug().Err(err).Str("session", sess.id.String()).Msg("end signal not delivered")
			}
		}
		for _, sess := range sessions {
			sess.Close()
			set.Remove(sess)
		}
	}
}
