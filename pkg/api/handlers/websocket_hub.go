package handlers

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/awareness-network/semindex/pkg/api/events"
)

// errHubFull is returned when the subscriber limit is reached.
var errHubFull = errors.New("websocket subscriber limit reached")

// subscriber is one websocket connection. Its outbound queue is never
// closed; done signals the writer instead, so a late publish cannot panic.
type subscriber struct {
	conn *websocket.Conn
	out  chan []byte
	done chan struct{}
	once sync.Once

	mu     sync.RWMutex
	agents map[string]struct{}
}

func newSubscriber(conn *websocket.Conn, queue int) *subscriber {
	return &subscriber{
		conn:   conn,
		out:    make(chan []byte, queue),
		done:   make(chan struct{}),
		agents: make(map[string]struct{}),
	}
}

func (s *subscriber) stop() {
	s.once.Do(func() {
		close(s.done)
		if s.conn != nil {
			_ = s.conn.Close()
		}
	})
}

// offer queues msg without blocking. It reports false only when a live
// subscriber's queue is full.
func (s *subscriber) offer(msg []byte) bool {
	select {
	case <-s.done:
		return true
	default:
	}
	select {
	case s.out <- msg:
		return true
	default:
		return false
	}
}

func (s *subscriber) follow(agentID string) {
	if agentID == "" {
		return
	}
	s.mu.Lock()
	s.agents[agentID] = struct{}{}
	s.mu.Unlock()
}

func (s *subscriber) unfollow(agentID string) {
	s.mu.Lock()
	delete(s.agents, agentID)
	s.mu.Unlock()
}

// wants reports whether an event about agentID is delivered. A subscriber
// that follows no agent receives every event.
func (s *subscriber) wants(agentID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.agents) == 0 {
		return true
	}
	_, ok := s.agents[agentID]
	return ok && agentID != ""
}

func (s *subscriber) filtered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.agents) > 0
}

// hub is the set of live subscribers.
type hub struct {
	mu       sync.RWMutex
	subs     map[*subscriber]struct{}
	limit    int
	onChange func(int)
}

func newHub(limit int, onChange func(int)) *hub {
	return &hub{
		subs:     make(map[*subscriber]struct{}),
		limit:    limit,
		onChange: onChange,
	}
}

func (h *hub) add(s *subscriber) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.subs) >= h.limit {
		return errHubFull
	}
	h.subs[s] = struct{}{}
	h.changed()
	return nil
}

// remove stops s. Removing an unknown subscriber is a no-op.
func (h *hub) remove(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	s.stop()
	h.changed()
}

// changed must be called with mu held.
func (h *hub) changed() {
	if h.onChange != nil {
		h.onChange(len(h.subs))
	}
}

func (h *hub) len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *hub) full() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs) >= h.limit
}

// publish encodes event once and queues it for every interested
// subscriber. Subscribers that cannot keep up are dropped.
func (h *hub) publish(event events.Event) error {
	msg, err := json.Marshal(event)
	if err != nil {
		return err
	}
	agentID := subjectAgent(event.Payload)

	h.mu.RLock()
	var slow []*subscriber
	for s := range h.subs {
		if s.wants(agentID) && !s.offer(msg) {
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		h.remove(s)
	}
	return nil
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.subs) == 0 {
		return
	}
	for s := range h.subs {
		s.stop()
	}
	clear(h.subs)
	h.changed()
}

// subjectAgent extracts the agent an event is about, or "" for events that
// only unfiltered subscribers receive.
func subjectAgent(payload any) string {
	switch p := payload.(type) {
	case events.AgentPayload:
		return p.AgentID
	case *events.AgentPayload:
		if p != nil {
			return p.AgentID
		}
	}
	return ""
}
