// Package service glues the session store, the directive interpreter, and
// the remote chat backend into the operations the API exposes.
package service

import (
	"context"
	"sync"

	"github.com/opsdesk-ai/opsdesk/internal/assistant"
	"github.com/opsdesk-ai/opsdesk/internal/chat"
	"github.com/opsdesk-ai/opsdesk/internal/config"
	"github.com/opsdesk-ai/opsdesk/internal/domain"
	"github.com/opsdesk-ai/opsdesk/internal/hub"
)

// Interpreter scans user input for local directives.
type Interpreter interface {
	Interpret(ctx context.Context, text string) (string, bool)
}

// Service owns the turn pipeline and session operations.
type Service struct {
	store       *chat.Store
	interpreter Interpreter
	assistant   assistant.Client
	eventHub    *hub.Hub
	config      *config.Config

	mu       sync.Mutex
	inFlight map[string]bool
}

// New creates a Service. The hub may be nil when no dashboard push is
// wanted (tests, one-shot tools).
func New(store *chat.Store, interpreter Interpreter, assistantClient assistant.Client, eventHub *hub.Hub, cfg *config.Config) *Service {
	return &Service{
		store:       store,
		interpreter: interpreter,
		assistant:   assistantClient,
		eventHub:    eventHub,
		config:      cfg,
		inFlight:    make(map[string]bool),
	}
}

// CreateSession makes a new empty session and marks it active.
func (s *Service) CreateSession(ctx context.Context) *domain.Session {
	sess := s.store.CreateSession(ctx)
	s.publish(hub.EventSessionCreated, sess.SessionID, sess)
	return sess
}

// DeleteSession removes a session. Unknown ids are a no-op.
func (s *Service) DeleteSession(ctx context.Context, id string) {
	s.store.DeleteSession(ctx, id)
	s.publish(hub.EventSessionDeleted, id, nil)
}

// RenameSession retitles a session. Unknown ids are a no-op.
func (s *Service) RenameSession(ctx context.Context, id, title string) {
	s.store.RenameSession(ctx, id, title)
	if sess, ok := s.store.Get(id); ok {
		s.publish(hub.EventSessionRenamed, id, sess)
	}
}

// SelectSession changes the active session.
func (s *Service) SelectSession(ctx context.Context, id string) bool {
	if !s.store.SelectSession(ctx, id) {
		return false
	}
	s.publish(hub.EventSessionSelected, id, nil)
	return true
}

// ListSessions returns all sessions, newest-created first, plus the active
// session id.
func (s *Service) ListSessions() ([]*domain.Session, string) {
	return s.store.List(), s.store.ActiveID()
}

// GetSession returns one session by id.
func (s *Service) GetSession(id string) (*domain.Session, bool) {
	return s.store.Get(id)
}

func (s *Service) publish(eventType, sessionID string, payload interface{}) {
	if s.eventHub == nil {
		return
	}
	s.eventHub.Publish(eventType, sessionID, payload)
}

// tryAcquire marks the session as having a send in flight. It returns false
// when one already is.
func (s *Service) tryAcquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[id] {
		return false
	}
	s.inFlight[id] = true
	return true
}

func (s *Service) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}
