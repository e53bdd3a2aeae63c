package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/phrazzld/notes-api/internal/api/shared"
)

// RateLimiter throttles requests per client IP to at most requests per
// fixed window. Each client gets a full token bucket at the start of its
// window and the bucket is replaced, not topped up, when the window ends.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	burst     int
	window    time.Duration
	lastSweep time.Time
	timeFunc  func() time.Time
}

type client struct {
	limiter     *rate.Limiter
	windowStart time.Time
}

// NewRateLimiter allows requests per window for each client.
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return newRateLimiter(requests, window, time.Now)
}

func newRateLimiter(requests int, window time.Duration, now func() time.Time) *RateLimiter {
	if requests <= 0 {
		requests = 1
	}
	return &RateLimiter{
		clients:   make(map[string]*client),
		burst:     requests,
		window:    window,
		lastSweep: now(),
		timeFunc:  now,
	}
}

// Allow reports whether key may make a request now.
func (l *RateLimiter) Allow(key string) bool {
	ok, _ := l.allow(key)
	return ok
}

// allow also returns how long until key's window resets.
func (l *RateLimiter) allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.timeFunc()
	l.sweep(now)

	c, ok := l.clients[key]
	if !ok || now.Sub(c.windowStart) >= l.window {
		// Refill slower than one token per window so the bucket never
		// yields more than burst inside it.
		c = &client{
			limiter:     rate.NewLimiter(rate.Every(l.window), l.burst),
			windowStart: now,
		}
		l.clients[key] = c
	}
	return c.limiter.AllowN(now, 1), c.windowStart.Add(l.window).Sub(now)
}

// sweep forgets clients whose window has ended.
func (l *RateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	for key, c := range l.clients {
		if now.Sub(c.windowStart) >= l.window {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

// Middleware rejects over-limit requests with 429 and a Retry-After of the
// seconds left in the client's window.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, reset := l.allow(clientIP(r))
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(reset)))
			shared.RespondWithError(w, r, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// clientIP is the request's remote address without the port. chi's RealIP
// middleware, when installed, has already replaced it with the forwarded IP.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
