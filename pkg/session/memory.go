package session

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/papercomputeco/voiceagent/pkg/conversation"
)

// MemoryStore is a Store backed by a map. Sessions live until the process exits.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]conversation.Transcript
	locks    keyedMutex
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]conversation.Transcript),
		locks:    keyedMutex{locks: make(map[string]*keyLock)},
	}
}

func (s *MemoryStore) GetOrCreate(_ context.Context, id string) (conversation.Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns, ok := s.sessions[id]
	if !ok {
		turns = conversation.Transcript{}
		s.sessions[id] = turns
	}
	return slices.Clone(turns), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (conversation.Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound{SessionID: id}
	}
	return slices.Clone(turns), nil
}

func (s *MemoryStore) AppendTurn(_ context.Context, id string, turn conversation.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns, ok := s.sessions[id]
	if !ok {
		return ErrNotFound{SessionID: id}
	}
	s.sessions[id] = append(turns, turn)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]Summary, 0, len(s.sessions))
	for id, turns := range s.sessions {
		summaries = append(summaries, Summary{SessionID: id, Depth: len(turns)})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].SessionID < summaries[j].SessionID
	})
	return summaries, nil
}

func (s *MemoryStore) Lock(id string) func() {
	return s.locks.lock(id)
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// keyedMutex hands out one mutex per key and forgets it once nobody holds
// or waits on it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()

			k.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(k.locks, key)
			}
			k.mu.Unlock()
		})
	}
}

var _ Store = (*MemoryStore)(nil)
