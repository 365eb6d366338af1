package middleware

import (
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
	BurstSize         int
}

// DefaultRateLimitConfig returns default rate limiting configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 60,
		BurstSize:         10,
	}
}

// RateLimit returns a per-client token bucket middleware. Limits are held in process,
// so each instance enforces its own budget.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.RequestsPerMinute <= 0 || cfg.BurstSize <= 0 {
		cfg = DefaultRateLimitConfig()
	}
	limiter := NewRateLimiter(cfg.RequestsPerMinute, cfg.BurstSize)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)

			if !limiter.Allow(clientIP) {
				log.Warn().
					Str("client_ip", clientIP).
					Str("path", r.URL.Path).
					Msg("Rate limit exceeded")

				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "RATE_LIMIT", "Rate limit exceeded. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP keys clients on the connection address. Forwarding headers are only
// honoured when the router rewrites RemoteAddr from a trusted proxy.
func getClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateLimiter is an in-memory token bucket per client key.
type RateLimiter struct {
	mu                sync.Mutex
	requestsPerMinute int
	burstSize         int
	clients           map[string]*clientLimit
	lastCleanup       time.Time
	now               func() time.Time
}

type clientLimit struct {
	tokens     float64
	lastRefill time.Time
}

func NewRateLimiter(requestsPerMinute, burstSize int) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		burstSize:         burstSize,
		clients:           make(map[string]*clientLimit),
		lastCleanup:       time.Now(),
		now:               time.Now,
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.cleanup(now)

	client, exists := rl.clients[key]
	if !exists {
		client = &clientLimit{tokens: float64(rl.burstSize), lastRefill: now}
		rl.clients[key] = client
	}

	elapsed := now.Sub(client.lastRefill)
	client.tokens = math.Min(client.tokens+elapsed.Minutes()*float64(rl.requestsPerMinute), float64(rl.burstSize))
	client.lastRefill = now

	if client.tokens >= 1 {
		client.tokens--
		return true
	}
	return false
}

// cleanup drops clients whose bucket has been full for a while.
func (rl *RateLimiter) cleanup(now time.Time) {
	if now.Sub(rl.lastCleanup) < 5*time.Minute {
		return
	}
	rl.lastCleanup = now
	for key, c := range rl.clients {
		if now.Sub(c.lastRefill) > 10*time.Minute {
			delete(rl.clients, key)
		}
	}
}
