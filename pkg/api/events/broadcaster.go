// Package events fans registry changes out to in-process subscribers.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/awareness-network/semindex/pkg/registry"
)

const (
	TypeAgentRegistered = "agent.registered"
	TypeAgentActivity   = "agent.activity"
)

const defaultBuffer = 16

// Event is one registry change as it goes out on the feed.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// AgentPayload is the snapshot of an agent carried by agent events.
type AgentPayload struct {
	AgentID           string `json:"agent_id"`
	Name              string `json:"name"`
	ModelType         string `json:"model_type"`
	Action            string `json:"action,omitempty"`
	MemoriesPublished int    `json:"memories_published"`
	MemoriesConsumed  int    `json:"memories_consumed"`
	ReputationScore   int    `json:"reputation_score"`
}

func snapshot(a *registry.Agent, action string) AgentPayload {
	return AgentPayload{
		AgentID:           a.ID,
		Name:              a.Name,
		ModelType:         a.ModelType,
		Action:            action,
		MemoriesPublished: a.MemoriesPublished,
		MemoriesConsumed:  a.MemoriesConsumed,
		ReputationScore:   a.ReputationScore,
	}
}

// Broadcaster is a registry.Notifier that copies every event to each
// subscriber channel. A full channel misses the event; publishers never wait.
type Broadcaster struct {
	mu      sync.RWMutex
	subs    map[chan Event]struct{}
	closed  bool
	dropped atomic.Uint64
}

var _ registry.Notifier = (*Broadcaster)(nil)

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan Event]struct{})}
}

// Subscribe returns a channel of events and the func that ends the
// subscription and closes the channel. Subscribing to a closed broadcaster
// yields a closed channel.
func (b *Broadcaster) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	return ch, func() { b.drop(ch) }
}

func (b *Broadcaster) drop(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// SubscriberCount returns the number of open subscriptions.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped counts deliveries skipped because a subscriber was full.
func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

// Broadcast stamps event if needed and offers it to every subscriber.
func (b *Broadcaster) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	// Channels are only closed under the write lock.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

func (b *Broadcaster) AgentRegistered(agent *registry.Agent) {
	if agent != nil {
		b.Broadcast(Event{Type: TypeAgentRegistered, Timestamp: agent.RegisteredAt, Payload: snapshot(agent, "")})
	}
}

func (b *Broadcaster) AgentActivity(agent *registry.Agent, action string) {
	if agent != nil {
		b.Broadcast(Event{Type: TypeAgentActivity, Timestamp: agent.LastActive, Payload: snapshot(agent, action)})
	}
}

// Close ends every subscription. It is safe to call more than once.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for ch := range b.subs {
		close(ch)
	}
	clear(b.subs)
}
