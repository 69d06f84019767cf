package session

import (
	"sync"
	"time"

	"github.com/wfunc/bingoserver/network"
)

// Session is one connected client. PlayerID is the externally-issued
// identity the client presented; RoomID is set once the session
// enters a room.
type Session struct {
	ID         string
	Conn       network.Connection
	PlayerID   string
	PlayerName string
	RoomID     string
	CreatedAt  time.Time
	LastActive time.Time
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		LastActive: now,
	}
}

func (s *Session) GetID() string {
	return s.ID
}

// SetIdentity records who this connection claims to be. First
// command wins; later commands reuse it.
func (s *Session) SetIdentity(playerID, playerName string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.PlayerID == "" {
		s.PlayerID = playerID
		s.PlayerName = playerName
	}
}

func (s *Session) Identity() (playerID, playerName string) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.PlayerID, s.PlayerName
}

func (s *Session) SetRoom(roomID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.RoomID = roomID
}

func (s *Session) Room() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.RoomID
}

// Touch marks the session active. Heartbeats and sends call it; the
// broadcaster sends from its own goroutine, so the write must hold
// the mutex.
func (s *Session) Touch() {
	s.mutex.Lock()
	s.LastActive = time.Now()
	s.mutex.Unlock()
}

func (s *Session) Send(msgID uint16, data []byte) error {
	s.Touch()
	return s.Conn.Send(msgID, data)
}

func (s *Session) SendJSON(msgID uint16, v interface{}) error {
	s.Touch()
	return s.Conn.SendJSON(msgID, v)
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Manager Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

// GetByRoom returns every session currently inside a room.
func (m *Manager) GetByRoom(roomID string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.Room() == roomID {
			result = append(result, session)
		}
	}
	return result
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}
