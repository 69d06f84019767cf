package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/wfunc/bingoserver/models"
)

// MemoryStore keeps room documents in process memory. It is the
// default backend and the one the tests run against; it honors the
// same conditional-write and snapshot semantics as the SQL backend.
type MemoryStore struct {
	mutex    sync.RWMutex
	rooms    map[string]*models.Room
	notifier *notifier
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:    make(map[string]*models.Room),
		notifier: newNotifier(),
	}
}

func (s *MemoryStore) Create(ctx context.Context, room *models.Room) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	doc := room.Clone()
	doc.ID = uuid.New().String()
	s.rooms[doc.ID] = doc
	return doc.ID, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Room, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	room, exists := s.rooms[id]
	if !exists {
		return nil, ErrNotFound
	}
	return room.Clone(), nil
}

func (s *MemoryStore) FindByCode(ctx context.Context, code string) (*models.Room, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, room := range s.rooms {
		if room.Code == code {
			return room.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateIf(ctx context.Context, id string, cond func(*models.Room) error, mutate func(*models.Room)) (*models.Room, error) {
	s.mutex.Lock()

	room, exists := s.rooms[id]
	if !exists {
		s.mutex.Unlock()
		return nil, ErrNotFound
	}

	if cond != nil {
		if err := cond(room); err != nil {
			s.mutex.Unlock()
			return nil, err
		}
	}

	updated := room.Clone()
	mutate(updated)
	s.rooms[id] = updated
	result := updated.Clone()
	s.mutex.Unlock()

	// Snapshots go out after the write is visible, never under the
	// store lock.
	s.notifier.publish(id, result)
	return result, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mutex.Lock()
	_, exists := s.rooms[id]
	delete(s.rooms, id)
	s.mutex.Unlock()

	if !exists {
		return ErrNotFound
	}
	s.notifier.publish(id, nil)
	return nil
}

func (s *MemoryStore) Subscribe(id string, fn SnapshotFunc) (Unsubscribe, error) {
	s.mutex.Lock()
	room, exists := s.rooms[id]
	if !exists {
		s.mutex.Unlock()
		return nil, ErrNotFound
	}

	// Register and deliver the initial snapshot under the write lock:
	// a concurrent UpdateIf cannot commit, so its newer snapshot can
	// never arrive before this one.
	unsub := s.notifier.add(id, fn)
	fn(room.Clone())
	s.mutex.Unlock()
	return unsub, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
