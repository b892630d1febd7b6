package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chrisdamba/rentalbooking/internal/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateKeyPrefix = "rentalbooking:ratelimit"

// RateLimiter is a fixed window counter per actor (or client IP before authentication).
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{rdb: rdb, limit: limit, window: window, logger: logger, now: time.Now}
}

func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	if l == nil || l.rdb == nil || l.limit <= 0 || l.window <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := l.now()
		slot := now.UnixNano() / int64(l.window)
		key := fmt.Sprintf("%s:%s:%d", rateKeyPrefix, rateSubject(r), slot)

		var incr *redis.IntCmd
		_, err := l.rdb.TxPipelined(r.Context(), func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(r.Context(), key)
			pipe.Expire(r.Context(), key, l.window)
			return nil
		})
		if err != nil {
			// fail open
			l.logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		count := int(incr.Val())
		remaining := l.limit - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > l.limit {
			windowEnd := time.Unix(0, (slot+1)*int64(l.window))
			retry := int(windowEnd.Sub(now).Round(time.Second) / time.Second)
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			ae := utils.NewTooManyRequests("rate limit exceeded")
			utils.RenderResponse(r, w, ae.StatusCode, ae)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func rateSubject(r *http.Request) string {
	if actor, ok := ActorFromContext(r.Context()); ok {
		return "actor:" + actor.ID
	}
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	ip := r.RemoteAddr
	if i := strings.LastIndex(ip, ":"); i != -1 {
		ip = ip[:i]
	}
	return ip
}
