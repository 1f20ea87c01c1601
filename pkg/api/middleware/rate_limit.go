package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/awareness-network/semindex/pkg/api/response"
)

// maxTrackedClients bounds the limiter table. Idle entries are evicted
// first, then the least recently seen.
const maxTrackedClients = 10000

// RateLimiter keeps one token bucket per client address.
type RateLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*clientLimiter
	rate       rate.Limit
	burst      int
	idleTTL    time.Duration
	maxClients int
	now        func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing requestsPerSecond with the given burst per client.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters:   make(map[string]*clientLimiter),
		rate:       rate.Limit(requestsPerSecond),
		burst:      burst,
		idleTTL:    10 * time.Minute,
		maxClients: maxTrackedClients,
		now:        time.Now,
	}
}

// getLimiter gets or creates a limiter for a client
func (rl *RateLimiter) getLimiter(clientID string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if cl, ok := rl.limiters[clientID]; ok {
		cl.lastSeen = now
		return cl.limiter
	}

	if len(rl.limiters) >= rl.maxClients {
		rl.evictIdle(now)
	}
	if len(rl.limiters) >= rl.maxClients {
		rl.evictOldest()
	}

	cl := &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst), lastSeen: now}
	rl.limiters[clientID] = cl
	return cl.limiter
}

func (rl *RateLimiter) evictIdle(now time.Time) {
	for id, cl := range rl.limiters {
		if now.Sub(cl.lastSeen) > rl.idleTTL {
			delete(rl.limiters, id)
		}
	}
}

// evictOldest drops the least recently seen client.
func (rl *RateLimiter) evictOldest() {
	var (
		oldestID string
		oldest   *clientLimiter
	)
	for id, cl := range rl.limiters {
		if oldest == nil || cl.lastSeen.Before(oldest.lastSeen) {
			oldestID, oldest = id, cl
		}
	}
	if oldest != nil {
		delete(rl.limiters, oldestID)
	}
}

// RateLimit rejects requests over the client's budget with 429 and a
// Retry-After header.
func RateLimit(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limiter := rl.getLimiter(clientID(r))

			reservation := limiter.Reserve()
			if !reservation.OK() {
				rejectRateLimited(w, r, time.Second)
				return
			}
			if delay := reservation.Delay(); delay > 0 {
				reservation.Cancel()
				rejectRateLimited(w, r, delay)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rejectRateLimited(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))

	requestID := GetRequestID(r.Context())
	if requestID == "" {
		requestID = "unknown"
	}
	response.Error(w,
		http.StatusTooManyRequests,
		response.ErrCodeRateLimited,
		"Rate limit exceeded",
		requestID,
	)
}

// clientID identifies the caller by remote host.
func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
