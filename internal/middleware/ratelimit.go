package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
	"github.com/AnshRaj112/mindfulkids-backend/internal/logger"
	"github.com/AnshRaj112/mindfulkids-backend/internal/metrics"
)

// RateLimitKeyPrefix is the Redis key prefix for rate limiting
const RateLimitKeyPrefix = "ratelimit:"

// SubmissionLimiter throttles public submissions per client IP with a fixed window kept in
// Redis, so every instance shares the count.
type SubmissionLimiter struct {
	rdb      *redis.Client
	name     string
	limit    int
	window   time.Duration
	clientIP func(*http.Request) string
	log      logger.Logger
}

func NewSubmissionLimiter(rdb *redis.Client, name string, limit int, window time.Duration, clientIP func(*http.Request) string, log logger.Logger) *SubmissionLimiter {
	return &SubmissionLimiter{rdb: rdb, name: name, limit: limit, window: window, clientIP: clientIP, log: log}
}

// Handler rejects requests over the limit with RATE_LIMITED. Redis failures let the request
// through.
func (l *SubmissionLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := l.clientIP(r)
		key := RateLimitKeyPrefix + l.name + ":" + ip

		n, err := l.hit(r.Context(), key)
		if err != nil {
			l.log.WithError(err).Warn("rate limiter unavailable, allowing request", map[string]interface{}{"limiter": l.name})
			next.ServeHTTP(w, r)
			return
		}

		count := int(n)
		remaining := l.limit - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > l.limit {
			ttl, err := l.rdb.TTL(r.Context(), key).Result()
			if err != nil || ttl < 0 {
				ttl = l.window
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			metrics.RateLimited.WithLabelValues(l.name).Inc()
			l.log.Warn("submission rate limit exceeded", map[string]interface{}{"limiter": l.name, "ip": ip})
			writeError(w, apperrors.RateLimited("too many submissions, please try again later"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// hit counts a request in the current window. A key left without an expiry, whether new or
// after a failed EXPIRE, gets the window applied, so a count never outlives its window for good.
func (l *SubmissionLimiter) hit(ctx context.Context, key string) (int64, error) {
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	if _, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	}); err != nil {
		return 0, err
	}
	if ttl.Val() < 0 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return 0, err
		}
	}
	return incr.Val(), nil
}
