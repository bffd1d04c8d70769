// Package session provides the in-memory session store with sliding
// expiration.
package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pdfchat/pdfchat/internal/domain"
)

// ErrNotFound is returned when a session id is unknown or has expired.
// It tells the client the document must be uploaded again.
var ErrNotFound = errors.New("session not found")

// ErrEmptyDocument is returned when a session is created without any
// document text.
var ErrEmptyDocument = errors.New("document text is empty")

// record is the store-internal session state. lastActivity is read and
// written atomically so touches on one session never contend with another.
// mu guards history only; documentText and createdAt are immutable.
type record struct {
	mu           sync.Mutex
	fileName     string
	documentText string
	history      []domain.Message
	createdAt    time.Time
	lastActivity atomic.Int64 // unix nanoseconds
}

// Store holds sessions keyed by id. Expiry is sliding: every successful
// read or write resets the countdown. Expired records become invisible at
// access time; the periodic sweep only reclaims memory.
type Store struct {
	timeout       time.Duration
	sweepInterval time.Duration
	now           func() time.Time

	mu       sync.RWMutex
	sessions map[string]*record
}

// NewStore creates a Store with the given sliding timeout and sweep
// interval.
func NewStore(timeout, sweepInterval time.Duration) *Store {
	return &Store{
		timeout:       timeout,
		sweepInterval: sweepInterval,
		now:           time.Now,
		sessions:      make(map[string]*record),
	}
}

// Create stores a new session for the given document text and returns its
// id. The text must be non-empty; empty extraction is rejected upstream.
func (s *Store) Create(documentText, fileName string) (string, error) {
	if documentText == "" {
		return "", ErrEmptyDocument
	}

	id := uuid.New().String()
	rec := &record{
		fileName:     fileName,
		documentText: documentText,
		createdAt:    s.now(),
	}
	rec.lastActivity.Store(rec.createdAt.UnixNano())

	s.mu.Lock()
	s.sessions[id] = rec
	s.mu.Unlock()

	log.Printf("Created chat session %s for file %q", id, fileName)
	return id, nil
}

// Get returns a snapshot of the session and refreshes its last-activity
// timestamp. An expired session is evicted and reported as not found even
// if the sweep has not run yet.
func (s *Store) Get(sessionID string) (*domain.Session, error) {
	rec, ok := s.lookup(sessionID)
	if !ok {
		return nil, ErrNotFound
	}

	now := s.now()
	if s.expired(rec, now) {
		s.remove(sessionID)
		log.Printf("WARN: session expired: %s", sessionID)
		return nil, ErrNotFound
	}
	rec.lastActivity.Store(now.UnixNano())

	return rec.snapshot(sessionID, now), nil
}

// Append adds a message to the session's history and refreshes its
// last-activity timestamp. A missing or expired session is logged and
// ignored: a late-arriving message after expiry must not fail the request.
func (s *Store) Append(sessionID string, msg domain.Message) {
	rec, ok := s.lookup(sessionID)
	if !ok {
		log.Printf("WARN: dropping message for unknown session %s", sessionID)
		return
	}

	now := s.now()
	if s.expired(rec, now) {
		s.remove(sessionID)
		log.Printf("WARN: dropping message for expired session %s", sessionID)
		return
	}

	rec.mu.Lock()
	rec.history = append(rec.history, msg)
	rec.mu.Unlock()
	rec.lastActivity.Store(now.UnixNano())
}

// Exists reports whether the session is present and unexpired. It does not
// refresh the last-activity timestamp.
func (s *Store) Exists(sessionID string) bool {
	rec, ok := s.lookup(sessionID)
	if !ok {
		return false
	}
	if s.expired(rec, s.now()) {
		s.remove(sessionID)
		return false
	}
	return true
}

// Delete removes the session if present. Deleting an unknown id is not an
// error.
func (s *Store) Delete(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// Len reports the number of stored sessions, including any that have
// expired but not yet been reclaimed.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Run sweeps expired sessions on a fixed interval until ctx is cancelled.
// Intended to be started as a goroutine from main.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Printf("Session sweep reclaimed %d expired session(s)", n)
			}
		}
	}
}

// Sweep reclaims expired sessions and returns how many were removed. It
// snapshots the session set first so request handlers are never delayed by
// a full scan, then re-checks expiry under the write lock before deleting.
func (s *Store) Sweep() int {
	type candidate struct {
		id  string
		rec *record
	}

	now := s.now()

	s.mu.RLock()
	var stale []candidate
	for id, rec := range s.sessions {
		if s.expired(rec, now) {
			stale = append(stale, candidate{id, rec})
		}
	}
	s.mu.RUnlock()

	if len(stale) == 0 {
		return 0
	}

	removed := 0
	s.mu.Lock()
	for _, c := range stale {
		// A concurrent access may have refreshed the session since the
		// scan; only reclaim if it is still expired.
		if cur, ok := s.sessions[c.id]; ok && cur == c.rec && s.expired(cur, now) {
			delete(s.sessions, c.id)
			removed++
		}
	}
	s.mu.Unlock()

	return removed
}

func (s *Store) lookup(sessionID string) (*record, bool) {
	s.mu.RLock()
	rec, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	return rec, ok
}

func (s *Store) remove(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

func (s *Store) expired(rec *record, now time.Time) bool {
	return now.UnixNano()-rec.lastActivity.Load() > int64(s.timeout)
}

// snapshot copies the record into a caller-owned Session. The history
// slice is cloned so callers cannot mutate store state.
func (r *record) snapshot(id string, lastActivity time.Time) *domain.Session {
	r.mu.Lock()
	history := make([]domain.Message, len(r.history))
	copy(history, r.history)
	r.mu.Unlock()

	return &domain.Session{
		SessionID:    id,
		FileName:     r.fileName,
		DocumentText: r.documentText,
		History:      history,
		CreatedAt:    r.createdAt,
		LastActivity: lastActivity,
	}
}
