// Package memory provides an in-memory implementation of the storage interface.
package memory

import (
	"context"
	"sync"

	"github.com/awareness-network/semindex/pkg/storage"
)

// MemoryStorage implements the AgentStore interface using in-memory maps.
// State lives for the lifetime of the value; nothing is persisted.
type MemoryStorage struct {
	mu     sync.RWMutex
	agents map[string]*storage.AgentState
	order  []string // creation order
}

// NewMemoryStorage creates a new in-memory storage instance.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		agents: make(map[string]*storage.AgentState),
	}
}

// CreateAgent stores a new agent.
func (m *MemoryStorage) CreateAgent(ctx context.Context, agent *storage.AgentState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.agents[agent.ID]; exists {
		return &storage.DuplicateKeyError{EntityType: storage.EntityAgent, ID: agent.ID}
	}

	m.agents[agent.ID] = agent.Clone()
	m.order = append(m.order, agent.ID)
	return nil
}

// UpdateAgent replaces an existing agent.
func (m *MemoryStorage) UpdateAgent(ctx context.Context, agent *storage.AgentState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.agents[agent.ID]; !exists {
		return &storage.NotFoundError{EntityType: storage.EntityAgent, ID: agent.ID}
	}

	m.agents[agent.ID] = agent.Clone()
	return nil
}

// RecordActivity applies delta under the write lock.
func (m *MemoryStorage) RecordActivity(ctx context.Context, id string, delta storage.ActivityDelta) (*storage.AgentState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	agent, exists := m.agents[id]
	if !exists {
		return nil, &storage.NotFoundError{EntityType: storage.EntityAgent, ID: id}
	}
	delta.Apply(agent)
	return agent.Clone(), nil
}

// GetAgent retrieves an agent by ID.
func (m *MemoryStorage) GetAgent(ctx context.Context, id string) (*storage.AgentState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	agent, exists := m.agents[id]
	if !exists {
		return nil, &storage.NotFoundError{EntityType: storage.EntityAgent, ID: id}
	}

	return agent.Clone(), nil
}

// ListAgents returns every agent in creation order.
func (m *MemoryStorage) ListAgents(ctx context.Context) ([]*storage.AgentState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	agents := make([]*storage.AgentState, 0, len(m.order))
	for _, id := range m.order {
		agents = append(agents, m.agents[id].Clone())
	}
	return agents, nil
}

// CountAgents returns the number of stored agents.
func (m *MemoryStorage) CountAgents(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.agents), nil
}

// Ping always succeeds.
func (m *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for memory storage.
func (m *MemoryStorage) Close() error {
	return nil
}
