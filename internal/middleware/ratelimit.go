package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/prushi369-byte/uspstf-screening/internal/domain"
)

// ClientRateLimiter applies a per-client token bucket to incoming requests,
// keyed by client IP. Buckets for idle clients are dropped after an hour.
type ClientRateLimiter struct {
	logger    *logrus.Logger
	perSecond rate.Limit
	burst     int

	mu      sync.Mutex
	clients map[string]*clientBucket
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewClientRateLimiter creates a rate limiter allowing perSecond requests
// with the given burst per client. Zero or negative values fall back to
// 25 req/s with a burst of 50.
func NewClientRateLimiter(logger *logrus.Logger, perSecond float64, burst int) *ClientRateLimiter {
	if perSecond <= 0 {
		perSecond = 25
	}
	if burst <= 0 {
		burst = 50
	}

	rl := &ClientRateLimiter{
		logger:    logger,
		perSecond: rate.Limit(perSecond),
		burst:     burst,
		clients:   make(map[string]*clientBucket),
	}

	go rl.cleanupLoop()

	return rl
}

// Middleware returns the gin handler enforcing the limit. Rejected requests
// receive a 429 with a structured error body.
func (rl *ClientRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		if !rl.allow(clientIP) {
			rl.logger.WithFields(logrus.Fields{
				"client_ip":      clientIP,
				"path":           c.Request.URL.Path,
				"correlation_id": c.GetString("correlation_id"),
			}).Warn("Request rejected by rate limiter")

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":          "Too many requests",
				"code":           domain.ErrCodeRateLimit,
				"correlation_id": c.GetString("correlation_id"),
				"timestamp":      time.Now().UTC().Format(time.RFC3339),
			})
			return
		}

		c.Next()
	}
}

func (rl *ClientRateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, exists := rl.clients[clientIP]
	if !exists {
		bucket = &clientBucket{limiter: rate.NewLimiter(rl.perSecond, rl.burst)}
		rl.clients[clientIP] = bucket
	}
	bucket.lastSeen = time.Now()

	return bucket.limiter.Allow()
}

// Stats returns the current limiter configuration and client count.
func (rl *ClientRateLimiter) Stats() map[string]interface{} {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]interface{}{
		"active_clients":   len(rl.clients),
		"requests_per_sec": float64(rl.perSecond),
		"burst":            rl.burst,
	}
}

func (rl *ClientRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.removeIdleClients(time.Hour)
	}
}

func (rl *ClientRateLimiter) removeIdleClients(idleFor time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-idleFor)
	removed := 0
	for ip, bucket := range rl.clients {
		if bucket.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
			removed++
		}
	}

	if removed > 0 {
		rl.logger.WithField("cleaned_count", removed).Debug("Removed idle rate limiter buckets")
	}
}
