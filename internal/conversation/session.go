package conversation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// DefaultIdleTTL is how long an untouched session survives.
const DefaultIdleTTL = 24 * time.Hour

// Session is the volatile per-user context of a conversation.
type Session struct {
	lastSeen        time.Time
	Selected        *model.Snapshot
	UserID          string
	PendingCategory string
	Listed          []model.Snapshot
	Notes           []string
	State           State
}

// Reset returns the session to Normal and drops every pending obligation.
// Listed survives so an earlier list can still be selected from.
func (s *Session) Reset() {
	s.State = StateNormal
	s.PendingCategory = ""
}

// transition moves to next, dropping the context the previous state owned.
func (s *Session) transition(next State) {
	if next != StateEditCategoryName {
		s.PendingCategory = ""
	}
	s.State = next
}

// lookup finds id in the last listed transactions.
func (s *Session) lookup(id int64) (model.Snapshot, bool) {
	for _, snap := range s.Listed {
		if snap.ID == id {
			return snap, true
		}
	}
	return model.Snapshot{}, false
}

// forget drops id from the listed transactions.
func (s *Session) forget(id int64) {
	kept := s.Listed[:0]
	for _, snap := range s.Listed {
		if snap.ID != id {
			kept = append(kept, snap)
		}
	}
	s.Listed = kept
}

// replace swaps the listed snapshot with the same id for snap.
func (s *Session) replace(snap model.Snapshot) {
	for i := range s.Listed {
		if s.Listed[i].ID == snap.ID {
			s.Listed[i] = snap
		}
	}
}

type sessionEntry struct {
	session Session
	mu      sync.Mutex
	evicted bool
}

// SessionStore keeps one session per user. Lock serializes all work on a
// user's session; different users never contend beyond the map lookup.
type SessionStore struct {
	now     func() time.Time
	logger  *slog.Logger
	entries map[string]*sessionEntry
	idleTTL time.Duration
	mu      sync.Mutex
}

// NewSessionStore creates a store evicting sessions idle for longer than idleTTL.
func NewSessionStore(idleTTL time.Duration, logger *slog.Logger) *SessionStore {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		entries: make(map[string]*sessionEntry),
		idleTTL: idleTTL,
		now:     time.Now,
		logger:  logger,
	}
}

// Lock returns the session for userID, creating it in Normal if absent, and
// holds it exclusively until the returned unlock func is called.
func (s *SessionStore) Lock(userID string) (*Session, func()) {
	for {
		s.mu.Lock()
		entry, ok := s.entries[userID]
		if !ok {
			entry = &sessionEntry{session: Session{UserID: userID}}
			s.entries[userID] = entry
		}
		s.mu.Unlock()

		entry.mu.Lock()
		if entry.evicted {
			// Pruned between lookup and lock; take the fresh entry instead.
			entry.mu.Unlock()
			continue
		}
		entry.session.lastSeen = s.now()
		return &entry.session, entry.mu.Unlock
	}
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Prune evicts sessions idle longer than the TTL and returns how many went.
// Sessions currently locked are skipped.
func (s *SessionStore) Prune() int {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for id, entry := range s.entries {
		if !entry.mu.TryLock() {
			continue
		}
		if entry.session.lastSeen.Before(cutoff) {
			entry.evicted = true
			delete(s.entries, id)
			pruned++
		}
		entry.mu.Unlock()
	}
	return pruned
}

// Run prunes every interval until ctx is done.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Prune(); n > 0 {
				s.logger.Debug("Pruned idle sessions", "count", n, "remaining", s.Len())
			}
		}
	}
}
