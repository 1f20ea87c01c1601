package memory

import (
	"context"
	"testing"
	"time"

	"github.com/awareness-network/semindex/pkg/storage"
)

// TestMemoryStorageSuite runs the full agent store test suite against MemoryStorage.
func TestMemoryStorageSuite(t *testing.T) {
	suite := &storage.AgentStoreTestSuite{
		NewStore: func(t *testing.T) storage.AgentStore {
			return NewMemoryStorage()
		},
	}

	suite.RunAllTests(t)
}

func TestMemoryStorage_NilCapabilities(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	agent := &storage.AgentState{ID: "agent-1", Name: "bare", RegisteredAt: time.Now()}
	if err := s.CreateAgent(ctx, agent); err != nil {
		t.Fatalf("CreateAgent failed: %v", err)
	}

	retrieved, err := s.GetAgent(ctx, "agent-1")
	if err != nil {
		t.Fatalf("GetAgent failed: %v", err)
	}
	if retrieved.Capabilities != nil {
		t.Errorf("Expected nil capabilities, got %v", retrieved.Capabilities)
	}
	if retrieved.HasCapability("anything") {
		t.Error("Expected HasCapability to be false")
	}
}

func TestMemoryStorage_EmptyList(t *testing.T) {
	s := NewMemoryStorage()

	agents, err := s.ListAgents(context.Background())
	if err != nil {
		t.Fatalf("ListAgents failed: %v", err)
	}
	if agents == nil || len(agents) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", agents)
	}
}
