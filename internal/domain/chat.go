// Package domain defines the core domain models for the assistant service.
package domain

import (
	"strings"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Title values with special meaning to the session store.
const (
	// TitleSentinel is the title a session carries until its first user
	// message, at which point a title is derived from that message.
	TitleSentinel = "New Chat"

	// TitleUntitled replaces an empty title on manual rename.
	TitleUntitled = "Untitled"
)

// SnapshotSchemaVersion is the current on-disk snapshot layout version.
const SnapshotSchemaVersion = 1

// Message is a single conversation turn. Messages are immutable once
// created; the store only appends or evicts them.
type Message struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a named, bounded, persisted conversation thread.
type Session struct {
	SessionID string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of the session. Handlers get copies so the
// store's internal state is never aliased outside its lock.
func (s *Session) Clone() *Session {
	out := *s
	out.Messages = append([]Message(nil), s.Messages...)
	return &out
}

// Snapshot is the unit of persistence: all sessions plus the active
// pointer, serialized and reloaded wholesale.
type Snapshot struct {
	SchemaVersion   int        `json:"schemaVersion"`
	Sessions        []*Session `json:"sessions"`
	ActiveSessionID string     `json:"activeSessionId"`
}

// DeriveTitle builds a session title from the first user message: internal
// whitespace runs collapse to single spaces, the result is trimmed, and
// anything longer than max runes is cut at max with an ellipsis appended.
func DeriveTitle(text string, max int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if max <= 0 {
		return collapsed
	}
	runes := []rune(collapsed)
	if len(runes) <= max {
		return collapsed
	}
	return string(runes[:max]) + "…"
}
