package services

import (
	"sync"

	"github.com/google/uuid"

	"github.com/RosShpakovskiy/bc2-as3/models"
)

// SessionStore keeps conversations in memory for the lifetime of the process.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

// NewSessionStore returns an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*models.Session)}
}

// GetOrCreate returns the session with id, or a new one when id is empty or
// unknown (e.g. after a restart).
func (s *SessionStore) GetOrCreate(id string) *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if session, ok := s.sessions[id]; ok {
			return session
		}
	}
	session := &models.Session{ID: uuid.New().String()}
	s.sessions[session.ID] = session
	return session
}

// Transcript returns a copy of the session's turns.
func (s *SessionStore) Transcript(id string) ([]models.ChatTurn, bool) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	return session.Snapshot(), true
}
