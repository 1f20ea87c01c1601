package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// AgentStoreTestSuite defines a test suite that can be run against any AgentStore implementation.
type AgentStoreTestSuite struct {
	NewStore func(t *testing.T) AgentStore

	// NewPeer opens a second handle on the backend behind store, as another
	// replica would. Nil means the backend can only be opened once and store
	// itself is shared.
	NewPeer func(t *testing.T, store AgentStore) AgentStore
}

// RunAllTests runs all agent store tests against the provided implementation.
func (s *AgentStoreTestSuite) RunAllTests(t *testing.T) {
	t.Run("AgentCRUD", s.TestAgentCRUD)
	t.Run("DuplicateCreate", s.TestDuplicateCreate)
	t.Run("UpdateUnknown", s.TestUpdateUnknown)
	t.Run("AgentNotFound", s.TestAgentNotFound)
	t.Run("ListOrder", s.TestListOrder)
	t.Run("CopySemantics", s.TestCopySemantics)
	t.Run("ConcurrentAccess", s.TestConcurrentAccess)
	t.Run("RecordActivity", s.TestRecordActivity)
	t.Run("ConcurrentActivity", s.TestConcurrentActivity)
	t.Run("Ping", s.TestPing)
}

func testAgent(id string, registeredAt time.Time) *AgentState {
	return &AgentState{
		ID:           id,
		Name:         "Agent " + id,
		Description:  "test agent",
		ModelType:    "llama-3-70b",
		Capabilities: []string{"solidity", "audit"},
		TBAAddress:   "0xabc",
		RegisteredAt: registeredAt,
		LastActive:   registeredAt,
	}
}

// TestAgentCRUD tests create, get and update.
func (s *AgentStoreTestSuite) TestAgentCRUD(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	agent := testAgent("agent-1", now)
	if err := store.CreateAgent(ctx, agent); err != nil {
		t.Fatalf("CreateAgent failed: %v", err)
	}

	retrieved, err := store.GetAgent(ctx, "agent-1")
	if err != nil {
		t.Fatalf("GetAgent failed: %v", err)
	}
	if retrieved.Name != agent.Name {
		t.Errorf("expected Name %s, got %s", agent.Name, retrieved.Name)
	}
	if len(retrieved.Capabilities) != 2 {
		t.Errorf("expected 2 capabilities, got %d", len(retrieved.Capabilities))
	}
	if !retrieved.RegisteredAt.Equal(now) {
		t.Errorf("expected RegisteredAt %v, got %v", now, retrieved.RegisteredAt)
	}

	retrieved.MemoriesPublished = 1
	retrieved.ReputationScore = 10
	retrieved.LastActive = now.Add(time.Minute)
	if err := store.UpdateAgent(ctx, retrieved); err != nil {
		t.Fatalf("UpdateAgent failed: %v", err)
	}

	updated, err := store.GetAgent(ctx, "agent-1")
	if err != nil {
		t.Fatalf("GetAgent (after update) failed: %v", err)
	}
	if updated.ReputationScore != 10 || updated.MemoriesPublished != 1 {
		t.Errorf("expected published=1 reputation=10, got published=%d reputation=%d",
			updated.MemoriesPublished, updated.ReputationScore)
	}
	if !updated.LastActive.Equal(now.Add(time.Minute)) {
		t.Errorf("expected LastActive to be updated, got %v", updated.LastActive)
	}

	count, err := store.CountAgents(ctx)
	if err != nil {
		t.Fatalf("CountAgents failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 agent, got %d", count)
	}
}

// TestDuplicateCreate tests that creating an existing id fails.
func (s *AgentStoreTestSuite) TestDuplicateCreate(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()

	ctx := context.Background()
	if err := store.CreateAgent(ctx, testAgent("agent-dup", time.Now())); err != nil {
		t.Fatalf("CreateAgent failed: %v", err)
	}

	err := store.CreateAgent(ctx, testAgent("agent-dup", time.Now()))
	var dupErr *DuplicateKeyError
	if !errors.As(err, &dupErr) {
		t.Fatalf("expected DuplicateKeyError, got %v", err)
	}
	if dupErr.ID != "agent-dup" {
		t.Errorf("expected ID agent-dup, got %s", dupErr.ID)
	}

	count, _ := store.CountAgents(ctx)
	if count != 1 {
		t.Errorf("expected 1 agent after duplicate create, got %d", count)
	}
}

// TestUpdateUnknown tests that updating a missing agent fails.
func (s *AgentStoreTestSuite) TestUpdateUnknown(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()

	err := store.UpdateAgent(context.Background(), testAgent("ghost", time.Now()))
	var nfErr *NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	count, _ := store.CountAgents(context.Background())
	if count != 0 {
		t.Errorf("expected no agents, got %d", count)
	}
}

// TestAgentNotFound tests retrieval of non-existent agent.
func (s *AgentStoreTestSuite) TestAgentNotFound(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()

	_, err := store.GetAgent(context.Background(), "non-existent")
	var nfErr *NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nfErr.EntityType != EntityAgent {
		t.Errorf("expected EntityType %s, got %s", EntityAgent, nfErr.EntityType)
	}
}

// TestListOrder tests that agents are listed in creation order and that
// updates do not reorder them.
func (s *AgentStoreTestSuite) TestListOrder(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()

	ctx := context.Background()
	now := time.Now()

	// ids chosen so that lexical order differs from creation order
	ids := []string{"agent-c", "agent-a", "agent-b", "agent-e", "agent-d"}
	for i, id := range ids {
		if err := store.CreateAgent(ctx, testAgent(id, now.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("CreateAgent(%s) failed: %v", id, err)
		}
	}

	first, _ := store.GetAgent(ctx, "agent-c")
	first.ReputationScore = 99
	if err := store.UpdateAgent(ctx, first); err != nil {
		t.Fatalf("UpdateAgent failed: %v", err)
	}

	agents, err := store.ListAgents(ctx)
	if err != nil {
		t.Fatalf("ListAgents failed: %v", err)
	}
	if len(agents) != len(ids) {
		t.Fatalf("expected %d agents, got %d", len(ids), len(agents))
	}
	for i, a := range agents {
		if a.ID != ids[i] {
			t.Errorf("position %d: expected %s, got %s", i, ids[i], a.ID)
		}
	}
	if agents[0].ReputationScore != 99 {
		t.Errorf("expected updated reputation 99, got %d", agents[0].ReputationScore)
	}
}

// TestCopySemantics tests that callers never share memory with the store.
func (s *AgentStoreTestSuite) TestCopySemantics(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()

	ctx := context.Background()
	agent := testAgent("agent-copy", time.Now())
	if err := store.CreateAgent(ctx, agent); err != nil {
		t.Fatalf("CreateAgent failed: %v", err)
	}

	agent.Name = "mutated"
	agent.Capabilities[0] = "mutated"

	retrieved, _ := store.GetAgent(ctx, "agent-copy")
	if retrieved.Name == "mutated" || retrieved.Capabilities[0] == "mutated" {
		t.Error("store shares memory with the caller's input")
	}

	retrieved.Capabilities[0] = "changed"
	again, _ := store.GetAgent(ctx, "agent-copy")
	if again.Capabilities[0] == "changed" {
		t.Error("store shares memory with returned records")
	}
}

// TestConcurrentAccess tests concurrent create and read operations.
func (s *AgentStoreTestSuite) TestConcurrentAccess(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()

	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 40)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			id := fmt.Sprintf("agent-%02d", idx)
			if err := store.CreateAgent(ctx, testAgent(id, time.Now())); err != nil {
				errs <- err
				return
			}
			if _, err := store.GetAgent(ctx, id); err != nil {
				errs <- err
			}
			if _, err := store.ListAgents(ctx); err != nil {
				errs <- err
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent operation failed: %v", err)
	}

	count, err := store.CountAgents(ctx)
	if err != nil {
		t.Fatalf("CountAgents failed: %v", err)
	}
	if count != 20 {
		t.Errorf("expected 20 agents, got %d", count)
	}
}

// TestPing tests that an open store is reachable.
func (s *AgentStoreTestSuite) TestPing(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

// TestRecordActivity tests that deltas accumulate and unknown ids fail.
func (s *AgentStoreTestSuite) TestRecordActivity(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	if err := store.CreateAgent(ctx, testAgent("agent-act", now)); err != nil {
		t.Fatalf("CreateAgent failed: %v", err)
	}

	later := now.Add(time.Minute)
	got, err := store.RecordActivity(ctx, "agent-act", ActivityDelta{Published: 1, Reputation: 10, At: later})
	if err != nil {
		t.Fatalf("RecordActivity failed: %v", err)
	}
	got, err = store.RecordActivity(ctx, "agent-act", ActivityDelta{Consumed: 1, Reputation: 1, At: later})
	if err != nil {
		t.Fatalf("RecordActivity failed: %v", err)
	}
	if got.MemoriesPublished != 1 || got.MemoriesConsumed != 1 || got.ReputationScore != 11 {
		t.Errorf("expected published=1 consumed=1 reputation=11, got %d/%d/%d",
			got.MemoriesPublished, got.MemoriesConsumed, got.ReputationScore)
	}
	if !got.LastActive.Equal(later) || !got.RegisteredAt.Equal(now) {
		t.Errorf("unexpected timestamps: registered %v last active %v", got.RegisteredAt, got.LastActive)
	}

	stored, err := store.GetAgent(ctx, "agent-act")
	if err != nil {
		t.Fatalf("GetAgent failed: %v", err)
	}
	if stored.ReputationScore != 11 || len(stored.Capabilities) != 2 {
		t.Errorf("stored agent does not match returned one: %+v", stored)
	}

	_, err = store.RecordActivity(ctx, "ghost", ActivityDelta{Published: 1, At: later})
	var nfErr *NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

// TestConcurrentActivity tests that increments from two handles on one
// backend are never lost.
func (s *AgentStoreTestSuite) TestConcurrentActivity(t *testing.T) {
	store := s.NewStore(t)
	defer store.Close()

	peer := store
	if s.NewPeer != nil {
		peer = s.NewPeer(t, store)
		defer peer.Close()
	}

	ctx := context.Background()
	if err := store.CreateAgent(ctx, testAgent("agent-hot", time.Now())); err != nil {
		t.Fatalf("CreateAgent failed: %v", err)
	}

	const workers, perWorker = 4, 25
	handles := []AgentStore{store, peer}

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(h AgentStore) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := h.RecordActivity(ctx, "agent-hot", ActivityDelta{Published: 1, Reputation: 10, At: time.Now()}); err != nil {
					errs <- err
				}
			}
		}(handles[w%len(handles)])
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("RecordActivity failed: %v", err)
	}

	got, err := peer.GetAgent(ctx, "agent-hot")
	if err != nil {
		t.Fatalf("GetAgent failed: %v", err)
	}
	if got.MemoriesPublished != workers*perWorker || got.ReputationScore != workers*perWorker*10 {
		t.Errorf("lost updates: published=%d reputation=%d, want %d and %d",
			got.MemoriesPublished, got.ReputationScore, workers*perWorker, workers*perWorker*10)
	}
}
