package echoapi

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// visitorTTL is how long an idle client keeps its limiter.
const visitorTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipRateLimiter throttles requests per client IP with a token bucket.
type ipRateLimiter struct {
	limit rate.Limit
	burst int

	mu          sync.Mutex
	visitors    map[string]*visitor
	lastCleanup time.Time
}

// newIPRateLimiter allows `rps` requests per second per IP, with bursts of `burst`.
// A non-positive rps disables throttling.
func newIPRateLimiter(rps float64, burst int) *ipRateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &ipRateLimiter{
		limit:       limit,
		burst:       burst,
		visitors:    make(map[string]*visitor),
		lastCleanup: time.Now(),
	}
}

func (l *ipRateLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastCleanup) > visitorTTL {
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(l.visitors, key)
			}
		}
		l.lastCleanup = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *ipRateLimiter) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if !l.allow(ctx.RealIP(), time.Now()) {
			return errTooManyRequests
		}
		return next(ctx)
	}
}
