package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/inventory-backend/internal/api/responses"
)

// maxAuthBodyBytes caps the body read to find the email.
const maxAuthBodyBytes = 64 << 10

// RateLimitStore counts hits per key within a window.
type RateLimitStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// AuthRateLimitPolicy defines the throttling parameters for one endpoint.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

// NewAuthRateLimitPolicy builds a policy; a zero limit disables that scope.
func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{
		name:       strings.ToLower(strings.TrimSpace(name)),
		window:     window,
		ipLimit:    ipLimit,
		emailLimit: emailLimit,
	}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

func (p AuthRateLimitPolicy) key(scope, value string) string {
	name := p.name
	if name == "" {
		name = "auth"
	}
	return fmt.Sprintf("rl:%s:%s:%s", scope, name, value)
}

// AuthRateLimit enforces per-IP and per-email counters. Requests over either
// limit get 429. With no store or a disabled policy it is a pass-through.
func AuthRateLimit(policy AuthRateLimitPolicy, store RateLimitStore, logger *zap.Logger) gin.HandlerFunc {
	if !policy.enabled() || store == nil {
		return func(c *gin.Context) { c.Next() }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &rateLimiter{policy: policy, store: store, logger: logger}

	return func(c *gin.Context) {
		if policy.ipLimit > 0 {
			ip := c.ClientIP()
			if !l.allow(c, "ip", ip, policy.ipLimit, zap.String("ip", ip)) {
				return
			}
		}

		if policy.emailLimit > 0 {
			body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxAuthBodyBytes))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					responses.Fail(c, http.StatusRequestEntityTooLarge, "Request body too large")
					return
				}
				responses.Fail(c, http.StatusBadRequest, "Could not read request body")
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(body))

			if email := extractEmail(body); email != "" {
				hash := hashValue(email)
				if !l.allow(c, "email", hash, policy.emailLimit, zap.String("email_hash", hash)) {
					return
				}
			}
		}

		c.Next()
	}
}

type rateLimiter struct {
	policy AuthRateLimitPolicy
	store  RateLimitStore
	logger *zap.Logger
}

// allow counts the hit and reports whether the request may proceed. When it
// returns false the 429 response has been written.
func (l *rateLimiter) allow(c *gin.Context, scope, value string, limit int, subject zap.Field) bool {
	count, err := l.store.IncrWithTTL(c.Request.Context(), l.policy.key(scope, value), l.policy.window)
	if err != nil {
		// Fail open.
		l.logger.Error("Rate limit store unavailable", zap.String("scope", scope), zap.Error(err))
		return true
	}
	if count <= int64(limit) {
		return true
	}

	l.logger.Warn("Auth rate limit exceeded",
		zap.String("scope", scope),
		zap.String("policy", l.policy.name),
		zap.Int64("attempts", count),
		zap.Int("limit", limit),
		zap.Int("window_seconds", int(l.policy.window.Seconds())),
		subject,
	)

	c.Header("Retry-After", strconv.Itoa(int(l.policy.window.Seconds())))
	responses.Fail(c, http.StatusTooManyRequests, "Too many requests, please try again later")
	return false
}

func extractEmail(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(body.Email))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
