package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/opsdesk-ai/opsdesk/internal/assistant"
	"github.com/opsdesk-ai/opsdesk/internal/domain"
	"github.com/opsdesk-ai/opsdesk/internal/hub"
)

// Send errors surfaced to the transport layer.
var (
	ErrEmptyMessage    = errors.New("message is empty")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionBusy     = errors.New("a send is already in flight for this session")
)

// Reply sources.
const (
	SourceDirective = "directive"
	SourceAssistant = "assistant"
	SourceFallback  = "fallback"
)

// fallbackReply is appended when the remote backend fails. A sent user turn
// always gets a reply.
const fallbackReply = "Sorry, I ran into a problem answering that. Please try again in a moment."

// SendResult is the outcome of one send.
type SendResult struct {
	Session *domain.Session `json:"session"`
	Reply   domain.Message  `json:"reply"`
	Source  string          `json:"source"`
}

// SendMessage runs one user turn through the pipeline: validate, resolve
// the target session (creating one if none is active), append the user
// message, try the directive interpreter, otherwise call the remote backend
// with the trailing conversation window, and append the reply. The reply
// append targets the session id resolved here, not whatever is active when
// the backend answers.
func (s *Service) SendMessage(ctx context.Context, sessionID, text string, profile map[string]interface{}) (*SendResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	var sess *domain.Session
	switch {
	case sessionID != "":
		var ok bool
		sess, ok = s.store.Get(sessionID)
		if !ok {
			return nil, ErrSessionNotFound
		}
	default:
		sess = s.store.GetActive()
		if sess == nil {
			sess = s.CreateSession(ctx)
		}
	}
	targetID := sess.SessionID

	if !s.tryAcquire(targetID) {
		return nil, ErrSessionBusy
	}
	defer s.release(targetID)

	// Context window is captured before the user turn is appended, so the
	// backend sees the prior conversation plus the message itself.
	window := s.store.TailWindow(targetID, s.config.ContextMessages)

	userMsg := domain.Message{Role: domain.RoleUser, Text: text}
	if updated, ok := s.store.AppendMessages(ctx, targetID, []domain.Message{userMsg}); ok {
		s.publish(hub.EventMessageAppended, targetID, updated.Messages[len(updated.Messages)-1])
	}

	reply, source := s.resolveReply(ctx, text, window, profile)

	replyMsg := domain.Message{Role: domain.RoleModel, Text: reply}
	updated, ok := s.store.AppendMessages(ctx, targetID, []domain.Message{replyMsg})
	if !ok {
		// Session was deleted while the send was in flight.
		return nil, ErrSessionNotFound
	}
	appended := updated.Messages[len(updated.Messages)-1]
	s.publish(hub.EventMessageAppended, targetID, appended)

	return &SendResult{
		Session: updated,
		Reply:   appended,
		Source:  source,
	}, nil
}

// resolveReply produces the assistant's reply text: a directive handler's
// synthesized reply, the remote backend's answer, or the fixed fallback.
// It never returns an error; every failure path ends in a reply.
func (s *Service) resolveReply(ctx context.Context, text string, window []domain.Message, profile map[string]interface{}) (string, string) {
	if s.interpreter != nil {
		if reply, matched := s.interpreter.Interpret(ctx, text); matched {
			return reply, SourceDirective
		}
	}

	reply, err := s.assistant.Reply(ctx, &assistant.ReplyRequest{
		Message: text,
		Context: assistant.ReplyContext{
			History: window,
			Profile: profile,
		},
	})
	if err != nil {
		log.Printf("WARN: chat backend call failed, using fallback reply: %v", err)
		return fallbackReply, SourceFallback
	}
	return reply, SourceAssistant
}
