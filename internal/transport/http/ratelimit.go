package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// rateLimiter is a fixed-window counter for one websocket connection.
// It is only touched by that connection's read loop.
type rateLimiter struct {
	limit  int
	window time.Duration
	start  time.Time
	count  int
	now    func() time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{limit: limit, window: time.Minute, now: time.Now}
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	now := r.now()
	if r.start.IsZero() || now.Sub(r.start) >= r.window {
		r.start = now
		r.count = 0
	}
	r.count++
	return r.count <= r.limit
}

// ipLimiter caps discovery API requests per client IP per window.
type ipLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	max     int
	per     time.Duration
	now     func() time.Time
	pruned  time.Time
}

type bucket struct {
	start  time.Time
	tokens int
}

func newIPLimiter(max int, per time.Duration) *ipLimiter {
	return &ipLimiter{
		buckets: make(map[string]*bucket),
		max:     max,
		per:     per,
		now:     time.Now,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b := l.buckets[ip]
	if b == nil || now.Sub(b.start) > l.per {
		b = &bucket{start: now, tokens: l.max}
		l.buckets[ip] = b
		l.pruneLocked(now)
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// pruneLocked drops expired buckets, scanning at most once per window.
func (l *ipLimiter) pruneLocked(now time.Time) {
	if !l.pruned.IsZero() && now.Sub(l.pruned) < l.per {
		return
	}
	l.pruned = now
	for ip, b := range l.buckets {
		if now.Sub(b.start) > l.per {
			delete(l.buckets, ip)
		}
	}
}

// RateLimitMiddleware rejects requests over the per-IP budget with 429.
// A non-positive max disables limiting.
func RateLimitMiddleware(max int, per time.Duration) gin.HandlerFunc {
	if max <= 0 || per <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := newIPLimiter(max, per)
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error:   "Too many requests",
				Message: "rate limit exceeded, try again later",
			})
			return
		}
		c.Next()
	}
}
