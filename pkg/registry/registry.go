// Package registry maintains the set of agents participating in the network
// and their reputation bookkeeping.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/awareness-network/semindex/pkg/storage"
	"github.com/awareness-network/semindex/pkg/telemetry/tracing"
)

// Agent is a registered network participant.
type Agent = storage.AgentState

// Action is an activity reported by an agent.
type Action string

const (
	// ActionPublish records a published memory.
	ActionPublish Action = "publish"
	// ActionConsume records a consumed memory.
	ActionConsume Action = "consume"
)

// Reputation awarded per action.
const (
	PublishReputation = 10
	ConsumeReputation = 1
)

var (
	// ErrAgentNotFound is returned by Get for an unknown agent id.
	ErrAgentNotFound = errors.New("agent not found")
	// ErrInvalidAction is returned by UpdateActivity for an action other than publish or consume.
	ErrInvalidAction = errors.New("invalid activity action")
)

// IDPrefix prefixes every generated agent id.
const IDPrefix = "agent-"

// RegisterParams describes a new agent.
type RegisterParams struct {
	Name         string
	Description  string
	ModelType    string
	Capabilities []string
	TBAAddress   string
}

// ListParams filters and limits List. Zero values disable a filter.
type ListParams struct {
	ModelType  string
	Capability string
	Limit      int
}

// Notifier receives registry changes. Implementations must not block.
type Notifier interface {
	AgentRegistered(agent *Agent)
	AgentActivity(agent *Agent, action string)
}

// MetricsRecorder records registry metrics.
type MetricsRecorder interface {
	RecordAgentRegistered()
	RecordAgentActivity(action string)
}

// registryLogger is the minimal logger interface used by Registry.
type registryLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// nopRegistryLogger is a no-op logger.
type nopRegistryLogger struct{}

func (n *nopRegistryLogger) Debug(msg string, args ...any) {}
func (n *nopRegistryLogger) Info(msg string, args ...any)  {}
func (n *nopRegistryLogger) Warn(msg string, args ...any)  {}
func (n *nopRegistryLogger) Error(msg string, args ...any) {}

// Registry owns the agent set. Counter updates are applied atomically by the
// store, so any number of Registry values, in one process or across replicas
// sharing a backend, may update the same agent.
type Registry struct {
	store    storage.AgentStore
	now      func() time.Time
	newID    func() string
	notifier Notifier
	metrics  MetricsRecorder
	logger   registryLogger
}

// New creates a registry backed by store.
func New(store storage.AgentStore, opts ...Option) *Registry {
	r := &Registry{
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return IDPrefix + uuid.NewString() },
		logger: &nopRegistryLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register creates a new agent with zeroed counters. Duplicate names and
// addresses are allowed.
func (r *Registry) Register(ctx context.Context, params RegisterParams) (_ *Agent, err error) {
	ctx, span := tracing.Start(ctx, "registry.Register", attribute.String("agent.model_type", params.ModelType))
	defer func() { tracing.End(span, err) }()

	now := r.now()
	capabilities := make([]string, len(params.Capabilities))
	copy(capabilities, params.Capabilities)

	agent := &Agent{
		ID:           r.newID(),
		Name:         params.Name,
		Description:  params.Description,
		ModelType:    params.ModelType,
		Capabilities: capabilities,
		TBAAddress:   params.TBAAddress,
		RegisteredAt: now,
		LastActive:   now,
	}

	if err := r.store.CreateAgent(ctx, agent); err != nil {
		return nil, fmt.Errorf("register agent: %w", err)
	}
	span.SetAttributes(attribute.String("agent.id", agent.ID))

	r.logger.Info("agent registered", "agent_id", agent.ID, "model_type", agent.ModelType)
	if r.metrics != nil {
		r.metrics.RecordAgentRegistered()
	}
	if r.notifier != nil {
		r.notifier.AgentRegistered(agent.Clone())
	}

	return agent, nil
}

// Get returns the agent with the given id, or ErrAgentNotFound.
func (r *Registry) Get(ctx context.Context, id string) (*Agent, error) {
	agent, err := r.store.GetAgent(ctx, id)
	if err != nil {
		var nf *storage.NotFoundError
		if errors.As(err, &nf) {
			return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, id)
		}
		return nil, fmt.Errorf("get agent: %w", err)
	}
	return agent, nil
}

// List returns agents matching every given filter, ordered by reputation
// descending. Agents with equal reputation keep registration order.
func (r *Registry) List(ctx context.Context, params ListParams) (_ []*Agent, err error) {
	ctx, span := tracing.Start(ctx, "registry.List",
		attribute.String("filter.model_type", params.ModelType),
		attribute.String("filter.capability", params.Capability),
		attribute.Int("limit", params.Limit),
	)
	defer func() { tracing.End(span, err) }()

	all, err := r.store.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}

	agents := make([]*Agent, 0, len(all))
	for _, a := range all {
		if params.ModelType != "" && a.ModelType != params.ModelType {
			continue
		}
		if params.Capability != "" && !a.HasCapability(params.Capability) {
			continue
		}
		agents = append(agents, a)
	}

	sort.SliceStable(agents, func(i, j int) bool {
		return agents[i].ReputationScore > agents[j].ReputationScore
	})
	span.SetAttributes(attribute.Int("agents.matched", len(agents)))

	if params.Limit > 0 && len(agents) > params.Limit {
		agents = agents[:params.Limit]
	}
	return agents, nil
}

// UpdateActivity records an action for an agent and adjusts its reputation.
// Unknown agent ids are ignored.
func (r *Registry) UpdateActivity(ctx context.Context, id string, action Action) (err error) {
	ctx, span := tracing.Start(ctx, "registry.UpdateActivity",
		attribute.String("agent.id", id),
		attribute.String("activity.action", string(action)),
	)
	defer func() { tracing.End(span, err) }()

	if action != ActionPublish && action != ActionConsume {
		return fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	agent, err := r.store.RecordActivity(ctx, id, activityDelta(action, r.now()))
	if err != nil {
		var nf *storage.NotFoundError
		if errors.As(err, &nf) {
			r.logger.Debug("activity for unknown agent ignored", "agent_id", id, "action", action)
			return nil
		}
		return fmt.Errorf("update activity: %w", err)
	}

	r.logger.Debug("agent activity recorded",
		"agent_id", id,
		"action", action,
		"reputation", agent.ReputationScore,
	)
	if r.metrics != nil {
		r.metrics.RecordAgentActivity(string(action))
	}
	if r.notifier != nil {
		r.notifier.AgentActivity(agent.Clone(), string(action))
	}
	return nil
}

func activityDelta(action Action, at time.Time) storage.ActivityDelta {
	if action == ActionPublish {
		return storage.ActivityDelta{Published: 1, Reputation: PublishReputation, At: at}
	}
	return storage.ActivityDelta{Consumed: 1, Reputation: ConsumeReputation, At: at}
}

// Count returns the number of registered agents.
func (r *Registry) Count(ctx context.Context) (int, error) {
	n, err := r.store.CountAgents(ctx)
	if err != nil {
		return 0, fmt.Errorf("count agents: %w", err)
	}
	return n, nil
}

// Ping reports whether the backing store is reachable.
func (r *Registry) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// IsValidAction reports whether s names a known action.
func IsValidAction(s string) bool {
	return Action(s) == ActionPublish || Action(s) == ActionConsume
}
