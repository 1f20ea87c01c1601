package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awareness-network/semindex/pkg/storage"
	"github.com/awareness-network/semindex/pkg/storage/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu         sync.Mutex
	registered []string
	activity   []string
}

func (n *recordingNotifier) AgentRegistered(agent *Agent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.registered = append(n.registered, agent.ID)
}

func (n *recordingNotifier) AgentActivity(agent *Agent, action string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.activity = append(n.activity, agent.ID+":"+action)
}

type countingMetrics struct {
	registered int
	actions    map[string]int
}

func (m *countingMetrics) RecordAgentRegistered() { m.registered++ }
func (m *countingMetrics) RecordAgentActivity(action string) {
	if m.actions == nil {
		m.actions = make(map[string]int)
	}
	m.actions[action]++
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("agent-%03d", n)
	}
}

func newTestRegistry(t *testing.T, opts ...Option) (*Registry, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now), WithIDGenerator(sequentialIDs())}, opts...)
	return New(memory.NewMemoryStorage(), opts...), clock
}

func botParams() RegisterParams {
	return RegisterParams{
		Name:         "Bot",
		Description:  "d",
		ModelType:    "llama-3-70b",
		Capabilities: []string{"solidity"},
		TBAAddress:   "0xabc",
	}
}

func TestRegister(t *testing.T) {
	r, clock := newTestRegistry(t)
	ctx := context.Background()

	agent, err := r.Register(ctx, botParams())
	require.NoError(t, err)

	assert.Equal(t, "agent-001", agent.ID)
	assert.Equal(t, "Bot", agent.Name)
	assert.Equal(t, []string{"solidity"}, agent.Capabilities)
	assert.Equal(t, clock.Now(), agent.RegisteredAt)
	assert.Equal(t, clock.Now(), agent.LastActive)
	assert.Zero(t, agent.MemoriesPublished)
	assert.Zero(t, agent.MemoriesConsumed)
	assert.Zero(t, agent.ReputationScore)
}

func TestRegister_DefaultIDs(t *testing.T) {
	r := New(memory.NewMemoryStorage())
	ctx := context.Background()

	a, err := r.Register(ctx, botParams())
	require.NoError(t, err)
	b, err := r.Register(ctx, botParams())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a.ID, IDPrefix))
	assert.Len(t, a.ID, len(IDPrefix)+36)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestRegister_NilCapabilities(t *testing.T) {
	r, _ := newTestRegistry(t)
	agent, err := r.Register(context.Background(), RegisterParams{Name: "x"})
	require.NoError(t, err)
	assert.NotNil(t, agent.Capabilities)
	assert.Empty(t, agent.Capabilities)
}

func TestRegister_DoesNotAliasInput(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	params := botParams()
	agent, err := r.Register(ctx, params)
	require.NoError(t, err)

	params.Capabilities[0] = "mutated"
	got, err := r.Get(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"solidity"}, got.Capabilities)
}

// Registering never touches existing agents and duplicates are allowed.
func TestRegister_Isolation(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	first, err := r.Register(ctx, botParams())
	require.NoError(t, err)
	require.NoError(t, r.UpdateActivity(ctx, first.ID, ActionPublish))
	before, err := r.Get(ctx, first.ID)
	require.NoError(t, err)

	second, err := r.Register(ctx, botParams())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Zero(t, second.ReputationScore)

	after, err := r.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestGet_NotFound(t *testing.T) {
	r, _ := newTestRegistry(t)

	agent, err := r.Get(context.Background(), "agent-missing")
	assert.Nil(t, agent)
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

// Register then publish yields one published memory and reputation ten.
func TestUpdateActivity_PublishScenario(t *testing.T) {
	r, clock := newTestRegistry(t)
	ctx := context.Background()

	agent, err := r.Register(ctx, botParams())
	require.NoError(t, err)

	clock.Advance(time.Minute)
	require.NoError(t, r.UpdateActivity(ctx, agent.ID, ActionPublish))

	got, err := r.Get(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.MemoriesPublished)
	assert.Equal(t, 0, got.MemoriesConsumed)
	assert.Equal(t, 10, got.ReputationScore)
	assert.Equal(t, clock.Now(), got.LastActive)
	assert.Equal(t, agent.RegisteredAt, got.RegisteredAt)
}

func TestUpdateActivity_Increments(t *testing.T) {
	tests := []struct {
		name          string
		actions       []Action
		wantPublished int
		wantConsumed  int
		wantScore     int
	}{
		{"consume once", []Action{ActionConsume}, 0, 1, 1},
		{"publish twice", []Action{ActionPublish, ActionPublish}, 2, 0, 20},
		{"mixed", []Action{ActionPublish, ActionConsume, ActionConsume}, 1, 2, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRegistry(t)
			ctx := context.Background()
			agent, err := r.Register(ctx, botParams())
			require.NoError(t, err)

			prevScore := 0
			for _, action := range tt.actions {
				require.NoError(t, r.UpdateActivity(ctx, agent.ID, action))
				got, err := r.Get(ctx, agent.ID)
				require.NoError(t, err)
				assert.Greater(t, got.ReputationScore, prevScore)
				prevScore = got.ReputationScore
			}

			got, err := r.Get(ctx, agent.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPublished, got.MemoriesPublished)
			assert.Equal(t, tt.wantConsumed, got.MemoriesConsumed)
			assert.Equal(t, tt.wantScore, got.ReputationScore)
		})
	}
}

func TestUpdateActivity_UnknownAgentIsNoop(t *testing.T) {
	notifier := &recordingNotifier{}
	r, _ := newTestRegistry(t, WithNotifier(notifier))
	ctx := context.Background()

	agent, err := r.Register(ctx, botParams())
	require.NoError(t, err)

	assert.NoError(t, r.UpdateActivity(ctx, "agent-unknown", ActionPublish))

	agents, err := r.List(ctx, ListParams{})
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, agent, agents[0])
	assert.Empty(t, notifier.activity)
}

func TestUpdateActivity_InvalidAction(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	agent, err := r.Register(ctx, botParams())
	require.NoError(t, err)

	err = r.UpdateActivity(ctx, agent.ID, Action("like"))
	assert.ErrorIs(t, err, ErrInvalidAction)

	got, err := r.Get(ctx, agent.ID)
	require.NoError(t, err)
	assert.Zero(t, got.ReputationScore)

	assert.True(t, IsValidAction("publish"))
	assert.False(t, IsValidAction("like"))
}

func TestList(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	register := func(name, model string, caps ...string) *Agent {
		a, err := r.Register(ctx, RegisterParams{Name: name, ModelType: model, Capabilities: caps})
		require.NoError(t, err)
		return a
	}

	register("a", "llama-3-70b", "solidity")
	b := register("b", "gpt-4o", "solidity", "audit")
	c := register("c", "llama-3-70b", "audit")
	register("d", "llama-3-70b", "solidity")

	require.NoError(t, r.UpdateActivity(ctx, c.ID, ActionPublish))
	require.NoError(t, r.UpdateActivity(ctx, b.ID, ActionConsume))

	ids := func(agents []*Agent) []string {
		out := make([]string, 0, len(agents))
		for _, x := range agents {
			out = append(out, x.Name)
		}
		return out
	}

	tests := []struct {
		name   string
		params ListParams
		want   []string
	}{
		{"all by reputation then registration order", ListParams{}, []string{"c", "b", "a", "d"}},
		{"model filter", ListParams{ModelType: "llama-3-70b"}, []string{"c", "a", "d"}},
		{"capability filter", ListParams{Capability: "solidity"}, []string{"b", "a", "d"}},
		{"both filters", ListParams{ModelType: "llama-3-70b", Capability: "solidity"}, []string{"a", "d"}},
		{"limit", ListParams{Limit: 2}, []string{"c", "b"}},
		{"no match", ListParams{ModelType: "gpt-4"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.List(ctx, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
			if tt.params.Limit > 0 {
				assert.LessOrEqual(t, len(got), tt.params.Limit)
			}
		})
	}
}

func TestList_Deterministic(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		_, err := r.Register(ctx, botParams())
		require.NoError(t, err)
	}

	first, err := r.List(ctx, ListParams{})
	require.NoError(t, err)
	second, err := r.List(ctx, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNotifierAndMetrics(t *testing.T) {
	notifier := &recordingNotifier{}
	metrics := &countingMetrics{}
	r, _ := newTestRegistry(t, WithNotifier(notifier), WithMetrics(metrics))
	ctx := context.Background()

	agent, err := r.Register(ctx, botParams())
	require.NoError(t, err)
	require.NoError(t, r.UpdateActivity(ctx, agent.ID, ActionPublish))
	require.NoError(t, r.UpdateActivity(ctx, agent.ID, ActionConsume))

	assert.Equal(t, []string{"agent-001"}, notifier.registered)
	assert.Equal(t, []string{"agent-001:publish", "agent-001:consume"}, notifier.activity)
	assert.Equal(t, 1, metrics.registered)
	assert.Equal(t, map[string]int{"publish": 1, "consume": 1}, metrics.actions)
}

func TestConcurrentActivity(t *testing.T) {
	r := New(memory.NewMemoryStorage())
	ctx := context.Background()

	agent, err := r.Register(ctx, botParams())
	require.NoError(t, err)

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.UpdateActivity(ctx, agent.ID, ActionPublish))
		}()
		go func() {
			defer wg.Done()
			_, err := r.Register(ctx, botParams())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := r.Get(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, got.MemoriesPublished)
	assert.Equal(t, workers*PublishReputation, got.ReputationScore)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, workers+1, n)
}

// slowStore delays every activity write as a networked backend would.
type slowStore struct {
	storage.AgentStore
	delay time.Duration
}

func (s *slowStore) RecordActivity(ctx context.Context, id string, delta storage.ActivityDelta) (*storage.AgentState, error) {
	time.Sleep(s.delay)
	return s.AgentStore.RecordActivity(ctx, id, delta)
}

func TestUpdateActivity_SharedStore(t *testing.T) {
	store := &slowStore{AgentStore: memory.NewMemoryStorage(), delay: 200 * time.Microsecond}
	replicas := []*Registry{New(store), New(store)}
	ctx := context.Background()

	agent, err := replicas[0].Register(ctx, botParams())
	require.NoError(t, err)

	const perReplica = 200
	var wg sync.WaitGroup
	for _, r := range replicas {
		wg.Add(1)
		go func(r *Registry) {
			defer wg.Done()
			for range perReplica {
				assert.NoError(t, r.UpdateActivity(ctx, agent.ID, ActionPublish))
			}
		}(r)
	}
	wg.Wait()

	got, err := replicas[1].Get(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, 2*perReplica, got.MemoriesPublished)
	assert.Equal(t, 2*perReplica*PublishReputation, got.ReputationScore)
}

type failingStore struct {
	storage.AgentStore
}

func (f *failingStore) RecordActivity(ctx context.Context, id string, delta storage.ActivityDelta) (*storage.AgentState, error) {
	return nil, &storage.StorageUnavailableError{Cause: errors.New("down")}
}

func (f *failingStore) GetAgent(ctx context.Context, id string) (*storage.AgentState, error) {
	return nil, &storage.StorageUnavailableError{Cause: errors.New("down")}
}

func (f *failingStore) CountAgents(ctx context.Context) (int, error) {
	return 0, &storage.StorageUnavailableError{Cause: errors.New("down")}
}

func TestStorageFailuresPropagate(t *testing.T) {
	r := New(&failingStore{AgentStore: memory.NewMemoryStorage()})
	ctx := context.Background()

	_, err := r.Get(ctx, "agent-1")
	var unavailable *storage.StorageUnavailableError
	assert.ErrorAs(t, err, &unavailable)
	assert.NotErrorIs(t, err, ErrAgentNotFound)

	err = r.UpdateActivity(ctx, "agent-1", ActionPublish)
	assert.ErrorAs(t, err, &unavailable)

	_, err = r.Count(ctx)
	assert.ErrorAs(t, err, &unavailable)
}
