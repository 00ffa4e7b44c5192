package session

import "sync"

// Message roles. A system message, when present, is always the first element
// of a history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged entry in a conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store is a volatile, concurrency-safe history store. Histories are keyed by
// session id and created lazily. Every read returns a copy to prevent external
// mutation of internal state.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]Message
}

// NewStore constructs an empty history store.
func NewStore() *Store {
	return &Store{sessions: make(map[string][]Message)}
}

// Get returns a copy of the history for the given session id, creating an
// empty history if the session has never been seen.
func (s *Store) Get(sessionID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs, ok := s.sessions[sessionID]
	if !ok {
		s.sessions[sessionID] = []Message{}
		return []Message{}
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// AppendTurn atomically appends a completed turn to the stored history. When
// system is non-empty and the stored history does not already start with a
// system message, one is inserted first, so exactly one system message exists
// per session. Appending under the lock avoids the lost-update race two
// concurrent same-session requests would otherwise hit with a
// read-modify-replace cycle.
func (s *Store) AppendTurn(sessionID, system string, msgs ...Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hist := s.sessions[sessionID]
	if system != "" && (len(hist) == 0 || hist[0].Role != RoleSystem) {
		hist = append([]Message{{Role: RoleSystem, Content: system}}, hist...)
	}
	s.sessions[sessionID] = append(hist, msgs...)
}

// Clear empties the history for the given session id. The session entry
// itself is kept so a subsequent Get observes an empty, existing history.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; ok {
		s.sessions[sessionID] = []Message{}
	}
}

// Len reports the number of messages currently stored for a session.
func (s *Store) Len(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions[sessionID])
}
