package middleware

import (
	"net/http"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiter throttles requests per user, or per client IP for
// anonymous requests. Each key gets a token bucket refilled at perMinute
// tokens a minute with a burst of the same size.
type RateLimiter struct {
	buckets *xsync.Map[string, *rate.Limiter]
	limit   rate.Limit
	burst   int
}

// NewRateLimiter creates a limiter allowing perMinute requests a minute.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &RateLimiter{
		buckets: xsync.NewMap[string, *rate.Limiter](),
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
	}
}

// Allow takes a token from key's bucket.
func (rl *RateLimiter) Allow(key string) bool {
	bucket, _ := rl.buckets.LoadOrCompute(key, func() (*rate.Limiter, bool) {
		return rate.NewLimiter(rl.limit, rl.burst), false
	})
	return bucket.Allow()
}

// Limit rejects requests over the limit with 429.
func (rl *RateLimiter) Limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := "ip:" + GetClientIP(r)
		if user, ok := CurrentUser(r.Context()); ok {
			key = "user:" + user.UserID
		}

		if !rl.Allow(key) {
			zap.L().Info("rate limited", zap.String("key", key), zap.String("path", r.URL.Path))
			w.Header().Set("Retry-After", "60")
			ErrorResponse(w, http.StatusTooManyRequests, "Too many requests, try again later")
			return
		}
		next(w, r)
	}
}
