// ABOUTME: Per-client request budgets for the API rate tiers
// ABOUTME: Fixed windows keyed by client address, with quota headers on every response

package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/agrisense/leafdoctor/backend/models"
)

// evictEvery is how many new windows are opened between sweeps of closed ones
const evictEvery = 128

// Quota is the outcome of charging one request to a client's budget
type Quota struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Duration // until the client's window closes
}

type window struct {
	used   int
	closes time.Time
}

// RateLimiter gives every key limit requests per fixed window
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	length  time.Duration
	clients map[string]*window
	opened  int
	now     func() time.Time
}

func NewRateLimiter(limit int, length time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		length:  length,
		clients: make(map[string]*window),
		now:     time.Now,
	}
}

// Take charges one request to key. A window closes at exactly its end
// instant, so a denied request always has a positive Reset.
func (rl *RateLimiter) Take(key string) Quota {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.clients[key]
	if !ok || !now.Before(w.closes) {
		w = &window{closes: now.Add(rl.length)}
		rl.clients[key] = w
		rl.opened++
		if rl.opened%evictEvery == 0 {
			rl.evictClosed(now)
		}
	}

	q := Quota{Limit: rl.limit, Reset: w.closes.Sub(now)}
	if w.used >= rl.limit {
		return q
	}
	w.used++
	q.Allowed = true
	q.Remaining = rl.limit - w.used
	return q
}

// evictClosed drops windows that have ended. Caller holds rl.mu.
func (rl *RateLimiter) evictClosed(now time.Time) {
	for k, w := range rl.clients {
		if !now.Before(w.closes) {
			delete(rl.clients, k)
		}
	}
}

// tracked returns how many client windows are held
func (rl *RateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// ClientIP keys a request by the leftmost X-Forwarded-For address, falling
// back to RemoteAddr. The service is expected to sit behind a proxy that
// overwrites X-Forwarded-For.
func ClientIP(r *http.Request) string {
	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
		return "ip:" + ip.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

type rateLimitedResponse struct {
	models.ErrorResponse
	RetryAfter int `json:"retry_after"`
}

// RateLimit charges each request to keyFunc's key. A nil limiter or keyFunc
// disables limiting, and requests with an empty key are not counted.
func RateLimit(limiter *RateLimiter, keyFunc func(*http.Request) string) Middleware {
	if limiter == nil || keyFunc == nil {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next(w, r)
				return
			}

			q := limiter.Take(key)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(q.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(q.Remaining))
			if q.Allowed {
				next(w, r)
				return
			}

			retry := max(int(math.Ceil(q.Reset.Seconds())), 1)
			slog.Warn("Rate limit exceeded",
				"request_id", RequestID(r.Context()),
				"key", key,
				"path", sanitizePath(r.URL.Path),
				"retry_after", retry)

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(rateLimitedResponse{
				ErrorResponse: models.ErrorResponse{
					Error:   "Rate limit exceeded",
					Details: fmt.Sprintf("try again in %d seconds", retry),
					Code:    http.StatusTooManyRequests,
				},
				RetryAfter: retry,
			})
		}
	}
}
