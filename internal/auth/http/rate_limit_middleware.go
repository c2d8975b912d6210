package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterIdleTimeout     = time.Hour
)

// rateLimiterStore holds per-principal rate limiters with automatic cleanup.
type rateLimiterStore struct {
	limiters sync.Map // map[string]*rateLimiterEntry
	rps      float64
	burst    int
}

// rateLimiterEntry holds a rate limiter and last access time for cleanup.
type rateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
	mu         sync.Mutex
}

// PrincipalRateLimitMiddleware limits requests per principal, read from the ":principal"
// route parameter. It bounds online guessing of one-time codes for a single account no
// matter how many API callers share the key.
//
// Limiters idle for an hour are dropped by a goroutine that stops when ctx is done.
//
// Returns:
//   - 429 Too Many Requests: Rate limit exceeded (includes Retry-After header)
//   - Continues: Request allowed within rate limit, or the route has no principal
func PrincipalRateLimitMiddleware(
	ctx context.Context,
	rps float64,
	burst int,
	logger *slog.Logger,
) gin.HandlerFunc {
	store := &rateLimiterStore{
		rps:   rps,
		burst: burst,
	}

	go store.cleanupStale(ctx, limiterCleanupInterval)

	return func(c *gin.Context) {
		principal := c.Param("principal")
		if principal == "" {
			c.Next()
			return
		}

		limiter := store.getLimiter(principal)
		if !limiter.Allow() {
			reservation := limiter.Reserve()
			retryAfter := int(reservation.Delay().Seconds())
			reservation.Cancel()
			if retryAfter < 1 {
				retryAfter = 1
			}

			logger.Debug("rate limit exceeded",
				slog.String("principal", principal),
				slog.Int("retry_after", retryAfter))

			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "Too many attempts for this principal. Please retry after the specified delay.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// getLimiter retrieves or creates the rate limiter of a principal.
func (s *rateLimiterStore) getLimiter(principal string) *rate.Limiter {
	if val, ok := s.limiters.Load(principal); ok {
		entry := val.(*rateLimiterEntry)
		entry.mu.Lock()
		entry.lastAccess = time.Now()
		entry.mu.Unlock()
		return entry.limiter
	}

	entry := &rateLimiterEntry{
		limiter:    rate.NewLimiter(rate.Limit(s.rps), s.burst),
		lastAccess: time.Now(),
	}
	actual, _ := s.limiters.LoadOrStore(principal, entry)
	return actual.(*rateLimiterEntry).limiter
}

// cleanupStale removes limiters that have not been used recently.
func (s *rateLimiterStore) cleanupStale(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.removeIdle(time.Now().Add(-limiterIdleTimeout))
		}
	}
}

func (s *rateLimiterStore) removeIdle(threshold time.Time) {
	s.limiters.Range(func(key, value any) bool {
		entry := value.(*rateLimiterEntry)
		entry.mu.Lock()
		idle := entry.lastAccess.Before(threshold)
		entry.mu.Unlock()

		if idle {
			s.limiters.Delete(key)
		}
		return true
	})
}
