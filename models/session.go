package models

import "sync"

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn is one message of a conversation transcript.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is a single conversation. Turns are append-only.
type Session struct {
	ID    string     `json:"id"`
	Turns []ChatTurn `json:"turns"`

	mu sync.Mutex
}

// Append adds a turn to the end of the transcript.
func (s *Session) Append(role, content string) {
	s.mu.Lock()
	s.Turns = append(s.Turns, ChatTurn{Role: role, Content: content})
	s.mu.Unlock()
}

// Snapshot returns a copy of the turns so far.
func (s *Session) Snapshot() []ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := make([]ChatTurn, len(s.Turns))
	copy(turns, s.Turns)
	return turns
}
