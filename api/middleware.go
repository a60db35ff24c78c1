package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/sermon-api/api/types"
	apperrors "github.com/killallgit/sermon-api/pkg/errors"
	"golang.org/x/time/rate"
)

// DefaultRequestSize caps JSON request bodies
const DefaultRequestSize = 1 << 20

// clientLimiter holds a rate limiter and its last accessed time
type clientLimiter struct {
	limiter *rate.Limiter

	mu       sync.Mutex
	lastSeen time.Time
}

func (cl *clientLimiter) touch(now time.Time) {
	cl.mu.Lock()
	cl.lastSeen = now
	cl.mu.Unlock()
}

func (cl *clientLimiter) idleSince(now time.Time) time.Duration {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return now.Sub(cl.lastSeen)
}

func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, HEAD, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Length, Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestLogger logs one line per request through slog
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			slog.Error("request", attrs...)
		case c.Writer.Status() >= http.StatusBadRequest:
			slog.Warn("request", attrs...)
		default:
			slog.Info("request", attrs...)
		}
	}
}

func RequestSizeLimit() gin.HandlerFunc {
	return RequestSizeLimitWithSize(DefaultRequestSize)
}

// RequestSizeLimitWithSize rejects bodies larger than maxBytes. A declared
// Content-Length over the limit is refused up front; undeclared bodies are cut
// off by http.MaxBytesReader while the handler reads them.
func RequestSizeLimitWithSize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost ||
			c.Request.Method == http.MethodPut ||
			c.Request.Method == http.MethodPatch {
			if c.Request.ContentLength > maxBytes {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, types.ErrorResponse{
					Status:  types.StatusError,
					Message: "Request body too large",
					Error:   string(apperrors.ErrCodeInvalidInput),
					Details: gin.H{"max_bytes": maxBytes},
				})
				return
			}
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

func PerClientRateLimit(rateLimiters *sync.Map, cleanupStop chan struct{}, cleanupInitialized *sync.Once, rps int, burst int) gin.HandlerFunc {
	cleanupInitialized.Do(func() {
		go cleanupOldRateLimiters(rateLimiters, cleanupStop)
	})

	scope := fmt.Sprintf("%d/%d:", rps, burst)

	return func(c *gin.Context) {
		// limiters with different rates share the map, so the rate is part of the key
		key := scope + c.ClientIP()
		now := time.Now()

		limiterInterface, _ := rateLimiters.LoadOrStore(key, &clientLimiter{
			limiter:  rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), burst),
			lastSeen: now,
		})

		cl := limiterInterface.(*clientLimiter)
		cl.touch(now)

		if !cl.limiter.Allow() {
			rejectRateLimited(c, strconv.Itoa(rps)+"/s")
			return
		}
		c.Next()
	}
}

// LimitPerUser admits requests through limiter keyed by the authenticated user,
// falling back to the client IP for anonymous requests.
func LimitPerUser(limiter types.Limiter, limit string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if v, ok := c.Get(types.ContextUserID); ok {
			if id, ok := v.(uint); ok {
				key = "user:" + strconv.FormatUint(uint64(id), 10)
			}
		}

		if !limiter.Allow(c.Request.Context(), key) {
			rejectRateLimited(c, limit)
			return
		}
		c.Next()
	}
}

func rejectRateLimited(c *gin.Context, limit string) {
	types.SendAppError(c, apperrors.RateLimitError(c.FullPath(), limit))
	c.Abort()
}

func cleanupOldRateLimiters(rateLimiters *sync.Map, cleanupStop chan struct{}) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			evictIdleLimiters(rateLimiters, time.Now(), 10*time.Minute)
		case <-cleanupStop:
			return
		}
	}
}

func evictIdleLimiters(rateLimiters *sync.Map, now time.Time, maxIdle time.Duration) int {
	evicted := 0
	rateLimiters.Range(func(key, value interface{}) bool {
		cl, ok := value.(*clientLimiter)
		if !ok || cl.idleSince(now) > maxIdle {
			rateLimiters.Delete(key)
			evicted++
		}
		return true
	})
	return evicted
}

// LocalLimiter is an in-process types.Limiter allowing perMinute requests per
// key. It is used for uploads when no Redis address is configured.
type LocalLimiter struct {
	limiters *sync.Map
	limit    rate.Limit
	burst    int
	stop     chan struct{}
	once     sync.Once
}

// NewLocalLimiter starts a limiter; Close stops its eviction loop
func NewLocalLimiter(perMinute int) *LocalLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	l := &LocalLimiter{
		limiters: &sync.Map{},
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		stop:     make(chan struct{}),
	}
	go cleanupOldRateLimiters(l.limiters, l.stop)
	return l
}

func (l *LocalLimiter) Allow(_ context.Context, key string) bool {
	now := time.Now()
	v, _ := l.limiters.LoadOrStore(key, &clientLimiter{
		limiter:  rate.NewLimiter(l.limit, l.burst),
		lastSeen: now,
	})
	cl := v.(*clientLimiter)
	cl.touch(now)
	return cl.limiter.Allow()
}

func (l *LocalLimiter) Close() error {
	l.once.Do(func() { close(l.stop) })
	return nil
}
