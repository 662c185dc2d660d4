package echomw

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// IPRateLimiter keeps one token bucket per client IP. Idle buckets are
// dropped after forgetAfter so the map does not grow without bound.
type IPRateLimiter struct {
	mu          sync.Mutex
	clients     map[string]*rate.Limiter
	limit       rate.Limit
	burst       int
	forgetAfter time.Duration
}

// NewIPRateLimiter allows requestsPerSecond with the given burst per IP.
func NewIPRateLimiter(requestsPerSecond, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		clients:     make(map[string]*rate.Limiter),
		limit:       rate.Limit(requestsPerSecond),
		burst:       burst,
		forgetAfter: time.Minute,
	}
}

// getLimiter returns the rate limiter for the given IP address.
func (l *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.clients[ip]
	if !exists {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.clients[ip] = limiter

		time.AfterFunc(l.forgetAfter, func() {
			l.mu.Lock()
			delete(l.clients, ip)
			l.mu.Unlock()
		})
	}
	return limiter
}

// Middleware rejects requests over the per-IP budget with 429.
func (l *IPRateLimiter) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !l.getLimiter(c.RealIP()).Allow() {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "too many requests",
			})
		}
		return next(c)
	}
}
