// Package conversation keeps a bounded, in-memory dialogue transcript per
// learner. Transcripts are never persisted.
package conversation

import (
	"context"
	"sync"
	"sync/atomic"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a transcript.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserTurn and AssistantTurn are shorthands for building turns.
func UserTurn(content string) Turn      { return Turn{Role: RoleUser, Content: content} }
func AssistantTurn(content string) Turn { return Turn{Role: RoleAssistant, Content: content} }

const (
	// DefaultMaxTurns bounds a transcript: the priming pair plus 20 turns.
	DefaultMaxTurns = 22
	// DefaultPriming is the number of leading turns that survive truncation.
	DefaultPriming = 2
)

// Option configures a Store.
type Option func(*Store)

// WithCap sets the transcript bound and how many leading turns are kept
// when it is exceeded. priming must be smaller than maxTurns.
func WithCap(maxTurns, priming int) Option {
	return func(s *Store) {
		if maxTurns > 0 && priming >= 0 && priming < maxTurns {
			s.maxTurns, s.priming = maxTurns, priming
		}
	}
}

// WithPrimer sets the turns that seed a transcript created by Store.Append.
func WithPrimer(fn func(userID string) []Turn) Option {
	return func(s *Store) { s.primer = fn }
}

// entry is one learner's transcript.
type entry struct {
	// sem is a one-slot semaphore; holding it grants the exclusive section.
	sem chan struct{}
	// refs counts sessions holding or waiting for sem. Guarded by Store.mu.
	refs int
	// turns is owned by whoever holds sem.
	turns []Turn
	// snap is the last published copy of turns, nil when empty.
	snap atomic.Pointer[[]Turn]
}

// Store owns every transcript. The zero value is not usable; use New.
//
// Writers for the same learner are serialized through Acquire; different
// learners never contend beyond the brief map lookup. Read serves the last
// published snapshot and never waits on a writer.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry

	maxTurns int
	priming  int
	primer   func(userID string) []Turn
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		entries:  make(map[string]*entry),
		maxTurns: DefaultMaxTurns,
		priming:  DefaultPriming,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Acquire waits for the learner's exclusive section. The returned Session
// must be released. Waiting stops with ctx's error when ctx is done.
func (s *Store) Acquire(ctx context.Context, userID string) (*Session, error) {
	e := s.ref(userID)
	select {
	case e.sem <- struct{}{}:
		return &Session{store: s, userID: userID, e: e}, nil
	case <-ctx.Done():
		s.unref(userID, e)
		return nil, ctx.Err()
	}
}

// Append adds turn to the learner's transcript, seeding a new transcript
// with the configured primer first.
func (s *Store) Append(ctx context.Context, userID string, turn Turn) error {
	sess, err := s.Acquire(ctx, userID)
	if err != nil {
		return err
	}
	defer sess.Release()

	if sess.Len() == 0 && s.primer != nil {
		sess.Append(s.primer(userID)...)
	}
	sess.Append(turn)
	return nil
}

// Read returns a copy of the learner's transcript and whether one exists.
func (s *Store) Read(userID string) ([]Turn, bool) {
	s.mu.Lock()
	e, ok := s.entries[userID]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	p := e.snap.Load()
	if p == nil {
		return nil, false
	}
	return append([]Turn(nil), (*p)...), true
}

// Clear removes the learner's transcript. It waits for an in-flight writer.
func (s *Store) Clear(ctx context.Context, userID string) error {
	sess, err := s.Acquire(ctx, userID)
	if err != nil {
		return err
	}
	sess.reset()
	sess.Release()
	return nil
}

// Len reports the number of learners with a live transcript.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.snap.Load() != nil {
			n++
		}
	}
	return n
}

func (s *Store) ref(userID string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		s.entries[userID] = e
	}
	e.refs++
	return e
}

func (s *Store) unref(userID string, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.refs--
	if e.refs == 0 && e.snap.Load() == nil && s.entries[userID] == e {
		delete(s.entries, userID)
	}
}

// truncate keeps the priming turns and the most recent remainder.
func (s *Store) truncate(turns []Turn) []Turn {
	if len(turns) <= s.maxTurns {
		return turns
	}
	out := make([]Turn, 0, s.maxTurns)
	out = append(out, turns[:s.priming]...)
	return append(out, turns[len(turns)-(s.maxTurns-s.priming):]...)
}

// Session is a learner's exclusive section. Methods must not be called
// after Release.
type Session struct {
	store    *Store
	userID   string
	e        *entry
	released bool
}

// Turns returns a copy of the transcript.
func (ss *Session) Turns() []Turn {
	return append([]Turn(nil), ss.e.turns...)
}

// Len is the number of turns in the transcript.
func (ss *Session) Len() int {
	return len(ss.e.turns)
}

// Prime seeds an empty transcript with a user/assistant pair. It does
// nothing when the transcript already has turns.
func (ss *Session) Prime(user, assistant string) {
	if len(ss.e.turns) > 0 {
		return
	}
	ss.Append(UserTurn(user), AssistantTurn(assistant))
}

// Append adds turns, applies the cap and publishes the result to readers.
func (ss *Session) Append(turns ...Turn) {
	if len(turns) == 0 {
		return
	}
	ss.e.turns = ss.store.truncate(append(ss.e.turns, turns...))
	published := append([]Turn(nil), ss.e.turns...)
	ss.e.snap.Store(&published)
}

func (ss *Session) reset() {
	ss.e.turns = nil
	ss.e.snap.Store(nil)
}

// Release ends the exclusive section. Extra calls are no-ops.
func (ss *Session) Release() {
	if ss.released {
		return
	}
	ss.released = true
	<-ss.e.sem
	ss.store.unref(ss.userID, ss.e)
}
