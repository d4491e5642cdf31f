package history

import (
	"context"
	"slices"
	"sync"

	"fluxcareer/internal/types"
)

// MemoryArtifactStore is a process-local ArtifactStore
type MemoryArtifactStore struct {
	mu       sync.RWMutex
	items    []types.HistoryItem
	maxItems int
}

// NewMemoryArtifactStore keeps at most maxItems entries
func NewMemoryArtifactStore(maxItems int) *MemoryArtifactStore {
	if maxItems <= 0 {
		maxItems = 20
	}
	return &MemoryArtifactStore{maxItems: maxItems}
}

func (s *MemoryArtifactStore) Add(_ context.Context, item types.HistoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append([]types.HistoryItem{item}, s.items...)
	if len(s.items) > s.maxItems {
		s.items = s.items[:s.maxItems]
	}
	return nil
}

func (s *MemoryArtifactStore) List(_ context.Context) ([]types.HistoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items), nil
}

func (s *MemoryArtifactStore) Get(_ context.Context, id string) (types.HistoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, nil
		}
	}
	return types.HistoryItem{}, notFound(id)
}

func (s *MemoryArtifactStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.items, func(item types.HistoryItem) bool { return item.ID == id })
	if i < 0 {
		return notFound(id)
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

// MemorySessionStore is a process-local SessionStore without expiry
type MemorySessionStore struct {
	mu          sync.Mutex
	sessions    map[string][]types.ChatMessage
	maxMessages int
}

// NewMemorySessionStore keeps the newest maxMessages per session
func NewMemorySessionStore(maxMessages int) *MemorySessionStore {
	if maxMessages <= 0 {
		maxMessages = 50
	}
	return &MemorySessionStore{
		sessions:    make(map[string][]types.ChatMessage),
		maxMessages: maxMessages,
	}
}

func (s *MemorySessionStore) Load(_ context.Context, sessionID string) ([]types.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.sessions[sessionID]
	if msgs == nil {
		return []types.ChatMessage{}, nil
	}
	return slices.Clone(msgs), nil
}

func (s *MemorySessionStore) Append(_ context.Context, sessionID string, msgs ...types.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := append(s.sessions[sessionID], msgs...)
	if len(all) > s.maxMessages {
		all = slices.Clone(all[len(all)-s.maxMessages:])
	}
	s.sessions[sessionID] = all
	return nil
}
