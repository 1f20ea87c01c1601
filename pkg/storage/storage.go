// Package storage provides the persistence abstraction for registered agents.
package storage

import (
	"context"
	"fmt"
	"time"
)

// AgentStore persists registered agents.
//
// Implementations must be safe for concurrent use and must copy records on
// the way in and out so callers never share memory with the store.
type AgentStore interface {
	// CreateAgent inserts a new agent. Returns *DuplicateKeyError if the id exists.
	CreateAgent(ctx context.Context, agent *AgentState) error

	// UpdateAgent replaces an existing agent. Returns *NotFoundError if the id is unknown.
	UpdateAgent(ctx context.Context, agent *AgentState) error

	// RecordActivity applies delta to the stored agent as one atomic step and
	// returns the result. Concurrent calls, from this process or another one
	// sharing the backend, never lose an increment. Returns *NotFoundError if
	// the id is unknown.
	RecordActivity(ctx context.Context, id string, delta ActivityDelta) (*AgentState, error)

	// GetAgent returns the agent with the given id or *NotFoundError.
	GetAgent(ctx context.Context, id string) (*AgentState, error)

	// ListAgents returns every agent in creation order.
	ListAgents(ctx context.Context) ([]*AgentState, error)

	// CountAgents returns the number of stored agents.
	CountAgents(ctx context.Context) (int, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// AgentState is the persisted form of a registered agent.
type AgentState struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	ModelType         string    `json:"model_type"`
	Capabilities      []string  `json:"capabilities"`
	TBAAddress        string    `json:"tba_address"`
	RegisteredAt      time.Time `json:"registered_at"`
	LastActive        time.Time `json:"last_active"`
	MemoriesPublished int       `json:"memories_published"`
	MemoriesConsumed  int       `json:"memories_consumed"`
	ReputationScore   int       `json:"reputation_score"`
}

// ActivityDelta is the change RecordActivity applies to an agent's counters.
type ActivityDelta struct {
	Published  int
	Consumed   int
	Reputation int

	// At becomes the agent's LastActive.
	At time.Time
}

// Apply adds d to a in place.
func (d ActivityDelta) Apply(a *AgentState) {
	a.MemoriesPublished += d.Published
	a.MemoriesConsumed += d.Consumed
	a.ReputationScore += d.Reputation
	a.LastActive = d.At
}

// Clone returns a deep copy of the agent.
func (a *AgentState) Clone() *AgentState {
	if a == nil {
		return nil
	}
	copied := *a
	if a.Capabilities != nil {
		copied.Capabilities = append([]string(nil), a.Capabilities...)
	}
	return &copied
}

// HasCapability reports whether capability is in the agent's capability set.
func (a *AgentState) HasCapability(capability string) bool {
	for _, c := range a.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// NotFoundError indicates that the requested entity was not found.
type NotFoundError struct {
	EntityType string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.EntityType, e.ID)
}

// DuplicateKeyError indicates that an entity with the given ID already exists.
type DuplicateKeyError struct {
	EntityType string
	ID         string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.EntityType, e.ID)
}

// StorageUnavailableError indicates that the storage backend is unavailable.
type StorageUnavailableError struct {
	Cause error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable: %v", e.Cause)
}

func (e *StorageUnavailableError) Unwrap() error {
	return e.Cause
}

// SerializationError indicates a failure in data serialization/deserialization.
type SerializationError struct {
	Operation string
	Cause     error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization error during %s: %v", e.Operation, e.Cause)
}

func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// EntityAgent is the entity type reported in agent storage errors.
const EntityAgent = "agent"
