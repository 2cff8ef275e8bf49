// Package chat owns the conversation sessions and the active-session
// pointer. All mutation goes through the Store so the bounded-history and
// active-pointer invariants hold, and every mutation persists the whole
// state through the configured Snapshotter.
package chat

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opsdesk-ai/opsdesk/internal/domain"
	"github.com/opsdesk-ai/opsdesk/internal/snapshot"
)

// Store is the single source of truth for sessions. It is safe for
// concurrent use.
type Store struct {
	mu           sync.Mutex
	sessions     []*domain.Session // insertion order, newest-created first
	activeID     string
	snap         snapshot.Snapshotter
	historyLimit int
	titleMaxLen  int
}

// New creates a Store backed by the given Snapshotter and rehydrates any
// previously persisted state. A failed or unreadable load starts the store
// empty; it never prevents startup.
func New(ctx context.Context, snap snapshot.Snapshotter, historyLimit, titleMaxLen int) *Store {
	s := &Store{
		snap:         snap,
		historyLimit: historyLimit,
		titleMaxLen:  titleMaxLen,
	}

	loaded, err := snap.Load(ctx)
	if err != nil {
		log.Printf("WARN: failed to load chat snapshot, starting empty: %v", err)
		return s
	}

	s.sessions = loaded.Sessions
	if s.find(loaded.ActiveSessionID) != nil {
		s.activeID = loaded.ActiveSessionID
	} else if len(s.sessions) > 0 {
		s.activeID = s.sessions[0].SessionID
	}
	return s
}

// CreateSession makes a fresh empty session, inserts it at the front of the
// list, and makes it active.
func (s *Store) CreateSession(ctx context.Context) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	sess := &domain.Session{
		SessionID: uuid.New().String(),
		Title:     domain.TitleSentinel,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions = append([]*domain.Session{sess}, s.sessions...)
	s.activeID = sess.SessionID
	s.persist(ctx)
	return sess.Clone()
}

// DeleteSession removes the session with the given id. Deleting the active
// session repoints the active pointer to the first remaining session, or
// clears it when none remain. Unknown ids are a no-op.
func (s *Store) DeleteSession(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, sess := range s.sessions {
		if sess.SessionID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)
	if s.activeID == id {
		if len(s.sessions) > 0 {
			s.activeID = s.sessions[0].SessionID
		} else {
			s.activeID = ""
		}
	}
	s.persist(ctx)
}

// RenameSession sets the session title to the trimmed value, or to
// "Untitled" when the trimmed value is empty. Unknown ids are a no-op.
// A manual rename sticks; automatic titling never runs again afterwards
// because the title is no longer the sentinel.
func (s *Store) RenameSession(ctx context.Context, id, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.find(id)
	if sess == nil {
		return
	}

	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		trimmed = domain.TitleUntitled
	}
	sess.Title = trimmed
	sess.UpdatedAt = time.Now()
	s.persist(ctx)
}

// AppendMessages appends the given messages to the session, evicting from
// the front when the history bound is exceeded. Empty-after-trim texts are
// dropped. Timestamps are assigned here, not by the caller. While the title
// is still the sentinel and the history now contains a user message, a
// title is derived from the first user message.
func (s *Store) AppendMessages(ctx context.Context, id string, msgs []domain.Message) (*domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.find(id)
	if sess == nil {
		return nil, false
	}

	now := time.Now()
	appended := false
	for _, m := range msgs {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		if m.Timestamp.IsZero() {
			m.Timestamp = now
		}
		sess.Messages = append(sess.Messages, m)
		appended = true
	}
	if !appended {
		return sess.Clone(), true
	}

	if over := len(sess.Messages) - s.historyLimit; over > 0 {
		sess.Messages = append([]domain.Message(nil), sess.Messages[over:]...)
	}

	if sess.Title == domain.TitleSentinel {
		for _, m := range sess.Messages {
			if m.Role == domain.RoleUser {
				sess.Title = domain.DeriveTitle(m.Text, s.titleMaxLen)
				break
			}
		}
	}

	sess.UpdatedAt = now
	s.persist(ctx)
	return sess.Clone(), true
}

// SelectSession makes the given session active. Unknown ids are a no-op.
func (s *Store) SelectSession(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.find(id) == nil {
		return false
	}
	s.activeID = id
	s.persist(ctx)
	return true
}

// GetActive returns the active session, or nil when none exists.
func (s *Store) GetActive() *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.find(s.activeID)
	if sess == nil {
		return nil
	}
	return sess.Clone()
}

// Get returns the session with the given id.
func (s *Store) Get(id string) (*domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.find(id)
	if sess == nil {
		return nil, false
	}
	return sess.Clone(), true
}

// List returns all sessions in insertion order, newest-created first.
func (s *Store) List() []*domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Clone())
	}
	return out
}

// ActiveID returns the id of the active session, or "" when none exists.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// TailWindow returns up to n trailing messages of the session, for use as
// bounded context on the remote backend call.
func (s *Store) TailWindow(id string, n int) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.find(id)
	if sess == nil {
		return nil
	}
	msgs := sess.Messages
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return append([]domain.Message(nil), msgs...)
}

// find returns the live session for id. Callers must hold s.mu.
func (s *Store) find(id string) *domain.Session {
	if id == "" {
		return nil
	}
	for _, sess := range s.sessions {
		if sess.SessionID == id {
			return sess
		}
	}
	return nil
}

// persist saves the whole state. Save failures are logged and the store
// keeps operating in memory; nothing is rolled back. Callers must hold s.mu.
func (s *Store) persist(ctx context.Context) {
	snap := &domain.Snapshot{
		SchemaVersion:   domain.SnapshotSchemaVersion,
		Sessions:        s.sessions,
		ActiveSessionID: s.activeID,
	}
	if err := s.snap.Save(ctx, snap); err != nil {
		log.Printf("WARN: failed to persist chat snapshot: %v", err)
	}
}
