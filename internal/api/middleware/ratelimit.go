package middleware

import (
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/rsumit123/willow-leather-api/pkg/utils"
)

// RateLimit enforces a per-client token bucket keyed by IP. The limiter map
// grows with distinct clients; acceptable for a single-user game server.
func RateLimit(rps, burst int) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[ip]
		if !ok {
			l = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[ip] = l
		}
		return l
	}

	return func(c *gin.Context) {
		if !limiterFor(c.ClientIP()).Allow() {
			utils.SendError(c, 429, utils.NewAppError(utils.ErrCodeValidation, "Too many requests"))
			c.Abort()
			return
		}
		c.Next()
	}
}
