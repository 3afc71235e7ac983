package ballot

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/uniwahl/wahlportal/internal/election"
)

// Session ties one draft to one voter and one election. Exactly one of Draft
// and Referendum is set, depending on the election mode. Callers must hold
// the session mutex while touching the draft; drafts themselves are not
// concurrency-safe.
type Session struct {
	sync.Mutex

	ID         string
	VoterUID   string
	ElectionID string
	CreatedAt  time.Time

	Draft      *Draft
	Referendum *ReferendumDraft
}

// Store owns the mutable ballot drafts, one per voter session. Drafts are
// discarded on submit or cancel and are never persisted.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create starts a new draft session for the given election. For referendums
// the options list seeds the priority slots; for vote-based elections it is
// ignored.
func (s *Store) Create(voterUID string, e election.Election, options []election.ReferendumOption) *Session {
	sess := &Session{
		ID:         uuid.NewString(),
		VoterUID:   voterUID,
		ElectionID: e.ID,
		CreatedAt:  time.Now(),
	}
	if e.Mode == election.ModeReferendum {
		sess.Referendum = NewReferendumDraft(e.Info, options)
	} else {
		sess.Draft = NewDraft(e.VotesPerBallot, e.MaxCumulativeVotes)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// One draft per voter and election: starting over discards the old one.
	for id, old := range s.sessions {
		if old.VoterUID == voterUID && old.ElectionID == e.ID {
			delete(s.sessions, id)
		}
	}
	s.sessions[sess.ID] = sess
	return sess
}

// Get looks up a session by ID.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Discard destroys a session's draft. Safe to call for unknown IDs.
func (s *Store) Discard(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
