package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// StateStore is a per-conversation property store. Values are JSON documents
// keyed by conversation id.
type StateStore interface {
	// Get loads the stored value into `into`. It reports false when no state
	// exists for the conversation.
	Get(ctx context.Context, conversationID string, into any) (bool, error)
	// Set replaces the stored value.
	Set(ctx context.Context, conversationID string, value any) error
	// Clear removes any stored value.
	Clear(ctx context.Context, conversationID string) error
}

// MemoryStateStore keeps conversation state in process memory. State does not
// survive restarts.
type MemoryStateStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStateStore creates an empty store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{data: make(map[string][]byte)}
}

func (s *MemoryStateStore) Get(_ context.Context, conversationID string, into any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.data[conversationID]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return false, fmt.Errorf("decode state for %s: %w", conversationID, err)
	}
	return true, nil
}

func (s *MemoryStateStore) Set(_ context.Context, conversationID string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode state for %s: %w", conversationID, err)
	}
	s.mu.Lock()
	s.data[conversationID] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStateStore) Clear(_ context.Context, conversationID string) error {
	s.mu.Lock()
	delete(s.data, conversationID)
	s.mu.Unlock()
	return nil
}
