package main

import (
	"crypto/subtle"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// SecurityConfig controls the protections applied to the HTTP MCP endpoint.
type SecurityConfig struct {
	// RateLimit is the number of requests allowed per client IP per minute.
	// Zero disables rate limiting.
	RateLimit int

	// MaxBodySize caps request bodies in bytes. Zero means no cap.
	MaxBodySize int64

	// AuthToken, when set, is required as a bearer token.
	AuthToken string
}

const defaultMaxBodySize = 1 << 20

func securityConfigFromEnv() SecurityConfig {
	config := SecurityConfig{
		RateLimit:   60,
		MaxBodySize: defaultMaxBodySize,
		AuthToken:   os.Getenv("MCP_AUTH_TOKEN"),
	}
	if v, err := strconv.Atoi(os.Getenv("MCP_RATE_LIMIT")); err == nil && v >= 0 {
		config.RateLimit = v
	}
	return config
}

// SecurityMiddleware wraps the MCP handler with auth, body limits and
// per-IP rate limiting.
type SecurityMiddleware struct {
	next    http.Handler
	logger  *slog.Logger
	config  SecurityConfig
	limiter *RateLimiter
}

// NewSecurityMiddleware creates the middleware. A limiter is only started
// when config.RateLimit is positive.
func NewSecurityMiddleware(next http.Handler, logger *slog.Logger, config SecurityConfig) *SecurityMiddleware {
	sm := &SecurityMiddleware{
		next:   next,
		logger: logger,
		config: config,
	}
	if config.RateLimit > 0 {
		sm.limiter = NewRateLimiter(config.RateLimit, time.Minute)
	}
	return sm
}

func (sm *SecurityMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-store")

	if sm.config.AuthToken != "" && !validBearer(r, sm.config.AuthToken) {
		sm.logger.Warn("Rejected unauthenticated request", "remote", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if sm.limiter != nil && !sm.limiter.Allow(clientIP(r)) {
		sm.logger.Warn("Rate limit exceeded", "remote", r.RemoteAddr)
		w.Header().Set("Retry-After", "60")
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	if sm.config.MaxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, sm.config.MaxBodySize)
	}

	sm.next.ServeHTTP(w, r)
}

// Close stops the rate limiter's cleanup goroutine.
func (sm *SecurityMiddleware) Close() {
	if sm.limiter != nil {
		sm.limiter.Close()
	}
}

func validBearer(r *http.Request, token string) bool {
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimiter is a fixed-window limiter keyed by client IP.
type RateLimiter struct {
	rate     int
	interval time.Duration

	mu      sync.Mutex
	windows map[string]*window

	stopCh   chan struct{}
	stopOnce sync.Once
}

type window struct {
	start time.Time
	count int
}

// NewRateLimiter allows rate requests per interval for each key.
func NewRateLimiter(rate int, interval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		rate:     rate,
		interval: interval,
		windows:  make(map[string]*window),
		stopCh:   make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Allow reports whether key may make another request in the current window.
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.interval {
		rl.windows[key] = &window{start: now, count: 1}
		return true
	}
	if w.count >= rl.rate {
		return false
	}
	w.count++
	return true
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for key, w := range rl.windows {
				if now.Sub(w.start) >= rl.interval {
					delete(rl.windows, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}
