/*
Session memory management (core/memory.go).

Thread-safe in-memory storage for conversation sessions. Each session
holds the ordered message list the orchestrator operates on, plus the user
identity used for staged-action correlation. Expired sessions are removed
by a background cleanup goroutine so long-running deployments do not leak
memory.
*/
package core

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ChatSession is one conversation with its identity and message history.
// All message access goes through the session's methods; the slice itself
// is never shared.
type ChatSession struct {
	ID       string    `json:"id"`       // Unique session identifier for client reference
	Identity Identity  `json:"identity"` // User identity bound to the session for action correlation
	Messages []Message `json:"messages"` // Ordered conversation messages
	Created  time.Time `json:"created"`  // Session creation timestamp
	Updated  time.Time `json:"updated"`  // Last activity, drives cleanup eligibility
	mutex    sync.RWMutex
}

// MemoryStore manages chat sessions with automatic expiry.
type MemoryStore struct {
	sessions        map[string]*ChatSession
	mutex           sync.RWMutex
	maxAge          time.Duration
	cleanupInterval time.Duration
	logger          *logrus.Logger
}

// NewMemoryStore creates a memory store and starts its background cleanup
// goroutine.
func NewMemoryStore(maxAge, cleanupInterval time.Duration, logger *logrus.Logger) *MemoryStore {
	store := &MemoryStore{
		sessions:        make(map[string]*ChatSession),
		maxAge:          maxAge,
		cleanupInterval: cleanupInterval,
		logger:          logger,
	}

	go store.cleanupExpiredSessions()

	return store
}

// GetOrCreateSession retrieves an existing session or creates a new one.
// A non-empty identity on an existing session is refreshed so later turns
// can supply the user info the first turn lacked.
func (m *MemoryStore) GetOrCreateSession(sessionID string, identity Identity) *ChatSession {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if sessionID == "" {
		sessionID = "session_" + uuid.NewString()
	}

	session, exists := m.sessions[sessionID]
	if !exists {
		session = &ChatSession{
			ID:       sessionID,
			Identity: identity,
			Messages: make([]Message, 0),
			Created:  time.Now(),
			Updated:  time.Now(),
		}
		m.sessions[sessionID] = session
		m.logger.WithField("sessionID", sessionID).Info("Created new chat session")
		return session
	}

	session.mutex.Lock()
	session.Updated = time.Now()
	if identity.UserID != "" || identity.Email != "" {
		session.Identity = identity
	}
	session.mutex.Unlock()
	return session
}

// GetSession retrieves an existing session without creating one.
func (m *MemoryStore) GetSession(sessionID string) (*ChatSession, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	session, exists := m.sessions[sessionID]
	if exists {
		session.touch()
	}
	return session, exists
}

// touch refreshes the activity timestamp under the session's own lock.
func (s *ChatSession) touch() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Updated = time.Now()
}

// DeleteSession removes a session by ID, reporting whether it existed.
func (m *MemoryStore) DeleteSession(sessionID string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	_, exists := m.sessions[sessionID]
	if exists {
		delete(m.sessions, sessionID)
		m.logger.WithField("sessionID", sessionID).Info("Session deleted")
	}
	return exists
}

// GetAllSessions returns a snapshot of all current sessions for the
// administrative endpoints.
func (m *MemoryStore) GetAllSessions() []*ChatSession {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	sessions := make([]*ChatSession, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

// AddMessage appends one message to the conversation.
func (s *ChatSession) AddMessage(role, content string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.Messages = append(s.Messages, Message{Role: role, Content: content})
	s.Updated = time.Now()
}

// Snapshot returns a copy of the full conversation. The orchestrator
// mutates its copy; Replace writes the result back.
func (s *ChatSession) Snapshot() []Message {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]Message, len(s.Messages))
	copy(out, s.Messages)
	return out
}

// Replace swaps in a new conversation, typically the orchestrator's
// output for the turn.
func (s *ChatSession) Replace(messages []Message) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.Messages = messages
	s.Updated = time.Now()
}

// RecentMessages returns up to limit of the most recent messages in
// chronological order.
func (s *ChatSession) RecentMessages(limit int) []Message {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	msgs := s.Messages
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// ClearMessages resets the conversation while keeping the session
// identity, returning the number of cleared messages.
func (s *ChatSession) ClearMessages() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	count := len(s.Messages)
	s.Messages = make([]Message, 0)
	s.Updated = time.Now()
	return count
}

// ConversationContext formats recent messages for inclusion in the agent
// prompt. Injected system context is labeled distinctly so the model can
// tell it apart from dialogue.
func (s *ChatSession) ConversationContext(limit int) string {
	messages := s.RecentMessages(limit)
	if len(messages) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Previous conversation context:\n")

	for _, msg := range messages {
		switch msg.Role {
		case RoleUser:
			fmt.Fprintf(&b, "Human: %s\n", msg.Content)
		case RoleAssistant:
			fmt.Fprintf(&b, "Assistant: %s\n", msg.Content)
		case RoleSystem:
			fmt.Fprintf(&b, "Context: %s\n", msg.Content)
		}
	}

	b.WriteString("\nCurrent conversation:\n")
	return b.String()
}

// cleanupExpiredSessions periodically removes sessions idle past maxAge.
func (m *MemoryStore) cleanupExpiredSessions() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		m.mutex.Lock()
		now := time.Now()
		expired := make([]string, 0)

		for id, session := range m.sessions {
			session.mutex.RLock()
			idle := now.Sub(session.Updated)
			session.mutex.RUnlock()
			if idle > m.maxAge {
				expired = append(expired, id)
			}
		}

		for _, id := range expired {
			delete(m.sessions, id)
		}

		if len(expired) > 0 {
			m.logger.WithFields(logrus.Fields{
				"expiredSessions":   len(expired),
				"remainingSessions": len(m.sessions),
			}).Info("Cleaned up expired chat sessions")
		}

		m.mutex.Unlock()
	}
}

// SessionStats reports session and message counts for the status endpoint.
func (m *MemoryStore) SessionStats() map[string]interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	totalMessages := 0
	for _, session := range m.sessions {
		session.mutex.RLock()
		totalMessages += len(session.Messages)
		session.mutex.RUnlock()
	}

	return map[string]interface{}{
		"totalSessions": len(m.sessions),
		"totalMessages": totalMessages,
	}
}
