package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/awareness-network/semindex/pkg/api/events"
	"github.com/awareness-network/semindex/pkg/logger"
)

const (
	wsDefaultLimit   = 100
	wsPingEvery      = 30 * time.Second
	wsPongWait       = 10 * time.Second
	wsWriteWait      = 10 * time.Second
	wsQueueSize      = 32
	wsMaxFrameLength = 1 << 20
)

// WebSocketConfig configures the registry event feed.
type WebSocketConfig struct {
	AllowedOrigins []string
	MaxConnections int
	PingInterval   time.Duration
	PongTimeout    time.Duration

	// OnConnectionsChanged receives the subscriber count after every
	// connect and disconnect.
	OnConnectionsChanged func(n int)
}

// EventMessage is the frame written to subscribers.
type EventMessage = events.Event

// controlFrame is sent by clients to narrow the feed, e.g.
// {"type":"subscribe","agent_id":"agent-1"}.
type controlFrame struct {
	Type    string         `json:"type"`
	AgentID string         `json:"agent_id,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

func (f controlFrame) agent() string {
	if id := strings.TrimSpace(f.AgentID); id != "" {
		return id
	}
	id, _ := f.Payload["agent_id"].(string)
	return strings.TrimSpace(id)
}

// WebSocketHandler streams registry events over /ws/agents.
type WebSocketHandler struct {
	log      logger.Logger
	hub      *hub
	upgrader websocket.Upgrader
	ping     time.Duration
	pong     time.Duration
}

// NewWebSocketHandler creates the event feed handler. Zero values in cfg
// fall back to defaults.
func NewWebSocketHandler(log logger.Logger, cfg WebSocketConfig) *WebSocketHandler {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = wsDefaultLimit
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = wsPingEvery
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = wsPongWait
	}

	origins := slices.Clone(cfg.AllowedOrigins)
	return &WebSocketHandler{
		log:  log,
		hub:  newHub(cfg.MaxConnections, cfg.OnConnectionsChanged),
		ping: cfg.PingInterval,
		pong: cfg.PongTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return originAllowed(r, origins) },
		},
	}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "websocket upgrade required", http.StatusBadRequest)
		return
	}
	if h.hub.full() {
		http.Error(w, "websocket connection limit reached", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	sub := newSubscriber(conn, wsQueueSize)
	if err := h.hub.add(sub); err != nil {
		// Lost the race for the last slot after the upgrade.
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(wsWriteWait))
		_ = conn.Close()
		return
	}
	h.log.Debug("websocket subscriber connected", "remote", r.RemoteAddr)

	go h.write(sub)
	h.read(sub)
}

// read applies control frames until the connection fails or the pong
// deadline passes.
func (h *WebSocketHandler) read(sub *subscriber) {
	defer h.hub.remove(sub)

	wait := h.ping + h.pong
	sub.conn.SetReadLimit(wsMaxFrameLength)
	_ = sub.conn.SetReadDeadline(time.Now().Add(wait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		_, raw, err := sub.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket read error", "error", err)
			}
			return
		}
		applyControl(sub, raw)
	}
}

func (h *WebSocketHandler) write(sub *subscriber) {
	ticker := time.NewTicker(h.ping)
	defer ticker.Stop()
	defer h.hub.remove(sub)

	for {
		select {
		case <-sub.done:
			_ = sub.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(wsWriteWait))
			return
		case msg := <-sub.out:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := sub.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := sub.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

// applyControl handles subscribe and unsubscribe frames. Anything else is ignored.
func applyControl(sub *subscriber, raw []byte) {
	var frame controlFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return
	}
	switch strings.ToLower(strings.TrimSpace(frame.Type)) {
	case "subscribe":
		sub.follow(frame.agent())
	case "unsubscribe":
		sub.unfollow(frame.agent())
	}
}

// Broadcast sends event to every interested subscriber, stamping it when
// the timestamp is unset.
func (h *WebSocketHandler) Broadcast(event EventMessage) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return h.hub.publish(event)
}

// Forward relays broadcaster events until ctx is done or b is closed.
func (h *WebSocketHandler) Forward(ctx context.Context, b *events.Broadcaster) {
	ch, cancel := b.Subscribe(wsQueueSize * 4)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := h.Broadcast(event); err != nil {
				h.log.Warn("websocket broadcast failed", "type", event.Type, "error", err)
			}
		}
	}
}

// Count returns the number of connected subscribers.
func (h *WebSocketHandler) Count() int {
	return h.hub.len()
}

// Close disconnects every subscriber.
func (h *WebSocketHandler) Close() {
	h.hub.closeAll()
}

// originAllowed accepts requests without an Origin header, listed origins,
// and origins whose host matches the request host.
func originAllowed(r *http.Request, allowed []string) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		a = strings.TrimSpace(a)
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}
