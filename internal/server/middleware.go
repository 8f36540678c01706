package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	// HeaderUserID carries the caller identity set by the upstream authenticator.
	HeaderUserID = "X-User-ID"

	userIDKey = "user_id"

	limiterCleanupInterval = 5 * time.Minute
	limiterTTL             = 10 * time.Minute
)

// requireUser rejects requests without a user id and stores it on the context.
func requireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := strings.TrimSpace(c.Request().Header.Get(HeaderUserID))
			if userID == "" {
				return newUnauthorizedError(c, fmt.Sprintf("missing %s header", HeaderUserID))
			}
			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

func userID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}

// requestLogger logs one structured line per request.
func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			level := slog.LevelInfo
			if res.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}

			logger.LogAttrs(req.Context(), level, "request",
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", res.Status),
				slog.Duration("latency", time.Since(start)),
				slog.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
				slog.String("user_id", req.Header.Get(HeaderUserID)))

			return nil
		}
	}
}

// RateLimiter manages per-user token buckets.
type RateLimiter struct {
	limiters  map[string]*limiterEntry
	stopCh    chan struct{}
	stopOnce  sync.Once
	rateLimit rate.Limit
	perMinute int
	burstSize int
	mu        sync.Mutex
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing requestsPerMinute with the given burst.
func NewRateLimiter(requestsPerMinute, burstSize int) *RateLimiter {
	rl := &RateLimiter{
		limiters:  make(map[string]*limiterEntry),
		rateLimit: rate.Limit(float64(requestsPerMinute) / 60.0),
		perMinute: requestsPerMinute,
		burstSize: burstSize,
		stopCh:    make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Allow checks if a request from the given user is allowed.
func (r *RateLimiter) Allow(user string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.limiters[user]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(r.rateLimit, r.burstSize)}
		r.limiters[user] = entry
	}
	entry.lastSeen = time.Now()

	return entry.limiter.Allow()
}

// retryAfter estimates when the next token becomes available.
func (r *RateLimiter) retryAfter() time.Duration {
	if r.rateLimit <= 0 {
		return time.Minute
	}
	return time.Duration(float64(time.Second) / float64(r.rateLimit))
}

func (r *RateLimiter) cleanup() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.mu.Lock()
			now := time.Now()
			for user, entry := range r.limiters {
				if now.Sub(entry.lastSeen) > limiterTTL {
					delete(r.limiters, user)
				}
			}
			r.mu.Unlock()
		case <-r.stopCh:
			return
		}
	}
}

// Stop stops the cleanup goroutine.
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// rateLimit applies the per-user limiter. It must run after requireUser.
func rateLimit(rl *RateLimiter, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := userID(c)
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.perMinute))

			if !rl.Allow(user) {
				retry := max(int(rl.retryAfter().Seconds()), 1)
				c.Response().Header().Set("Retry-After", strconv.Itoa(retry))
				logger.Warn("Rate limit exceeded", "user_id", user, "retry_after", retry)
				return problem(c, http.StatusTooManyRequests, ErrorTypeRateLimit, "Rate Limit Exceeded",
					fmt.Sprintf("Too many requests. Please retry after %d seconds.", retry))
			}
			return next(c)
		}
	}
}
