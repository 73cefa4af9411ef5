package store

import (
	"context"
	"sort"
	"sync"

	"github.com/cinematch/engine/internal/core/model"
)

// MemoryStore is the single-process SessionStore. Swipes for different
// users append concurrently; the lock only guards the map structure.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string][]model.SwipeRecord // session -> user -> records
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]map[string][]model.SwipeRecord)}
}

func (s *MemoryStore) AppendSwipe(ctx context.Context, rec model.SwipeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, ok := s.sessions[rec.SessionID]
	if !ok {
		users = make(map[string][]model.SwipeRecord)
		s.sessions[rec.SessionID] = users
	}

	records := users[rec.UserName]
	for i, existing := range records {
		if existing.MovieID == rec.MovieID {
			records[i] = rec
			return nil
		}
	}
	users[rec.UserName] = append(records, rec)
	return nil
}

func (s *MemoryStore) Swipes(ctx context.Context, sessionID string) ([]model.SwipeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.SwipeRecord
	for _, user := range s.userNamesLocked(sessionID) {
		out = append(out, s.sessions[sessionID][user]...)
	}
	return out, nil
}

func (s *MemoryStore) UserSwipes(ctx context.Context, sessionID, userName string) ([]model.SwipeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.sessions[sessionID][userName]
	out := make([]model.SwipeRecord, len(records))
	copy(out, records)
	return out, nil
}

func (s *MemoryStore) Participants(ctx context.Context, sessionID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userNamesLocked(sessionID), nil
}

func (s *MemoryStore) ClearSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// userNamesLocked returns sorted user names for deterministic iteration.
func (s *MemoryStore) userNamesLocked(sessionID string) []string {
	users := s.sessions[sessionID]
	names := make([]string, 0, len(users))
	for name := range users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
