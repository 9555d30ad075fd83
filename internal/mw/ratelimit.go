package mw

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"labpower-backend/config"
)

// ipLimiters hands out one token bucket per client IP.
type ipLimiters struct {
	mu    sync.Mutex
	seen  map[string]*rate.Limiter
	limit rate.Limit
	burst int
}

func (l *ipLimiters) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.seen[ip]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.seen[ip] = lim
	}
	return lim
}

// RateLimiter throttles requests per client IP with the server's configured
// rate and burst.
func RateLimiter(cfg config.ServerConfig) gin.HandlerFunc {
	limiters := &ipLimiters{
		seen:  make(map[string]*rate.Limiter),
		limit: rate.Limit(cfg.RateLimitPerSec),
		burst: cfg.RateLimitBurst,
	}
	return func(c *gin.Context) {
		if !limiters.get(c.ClientIP()).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
