package app

import (
	"sync"
	"sync/atomic"

	askdocs "github.com/askdocs-ai/askdocs"
)

// Session holds one user's selection and active index. The index is
// replaced by pointer swap: queries in flight keep reading the index they
// started with, and a failed rebuild leaves the old index serving.
type Session struct {
	id string

	mu        sync.RWMutex
	selection askdocs.Selection

	index atomic.Pointer[askdocs.Index]

	// buildMu serializes index builds for this session so the serving
	// index and the persisted corpus always come from the same build.
	buildMu sync.Mutex
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Selection returns a copy of the current selection.
func (s *Session) Selection() askdocs.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.selection.DocumentIDs))
	copy(ids, s.selection.DocumentIDs)
	return askdocs.Selection{DocumentIDs: ids}
}

// SetSelection replaces the selection.
func (s *Session) SetSelection(sel askdocs.Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = sel
}

// Index returns the active index, or nil when none has been built.
func (s *Session) Index() *askdocs.Index {
	return s.index.Load()
}

// SetIndex swaps in a new index. Passing nil clears it.
func (s *Session) SetIndex(idx *askdocs.Index) {
	s.index.Store(idx)
}

// Clear drops the selection and the index.
func (s *Session) Clear() {
	s.mu.Lock()
	s.selection = askdocs.Selection{}
	s.mu.Unlock()
	s.index.Store(nil)
}

// SessionManager tracks sessions by ID, creating them on first use.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager creates an empty manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

// Get returns the session for id, creating it if needed.
func (m *SessionManager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := &Session{id: id}
	m.sessions[id] = s
	return s
}

// Delete removes a session entirely.
func (m *SessionManager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
