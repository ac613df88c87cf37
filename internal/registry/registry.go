package registry

import (
	"context"
	"sync"
)

// Registry maps a live socket ID to the trainer session it is tracking.
// The mapping is a cache over the persisted session records, never the
// source of truth: losing it only forces the heartbeat fallback lookup.
type Registry interface {
	Bind(ctx context.Context, socketID, sessionID string) error
	Lookup(ctx context.Context, socketID string) (string, bool, error)
	Unbind(ctx context.Context, socketID string) error
}

// Memory is the single-process implementation.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]string
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]string)}
}

func (m *Memory) Bind(ctx context.Context, socketID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[socketID] = sessionID
	return nil
}

func (m *Memory) Lookup(ctx context.Context, socketID string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sessionID, ok := m.sessions[socketID]
	return sessionID, ok, nil
}

func (m *Memory) Unbind(ctx context.Context, socketID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, socketID)
	return nil
}
