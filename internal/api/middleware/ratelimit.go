package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"

	"market-backend/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// maxBufferedBody bounds how much of a request body the limiter may buffer to
// derive email-based keys. Larger bodies are keyed by address only.
const maxBufferedBody = 8 << 10

// RateLimit returns a gin middleware that runs every request through the
// admission limiter with the given configuration. Rejected requests get a 429
// with retry metadata; allowed requests carry X-RateLimit-* headers.
func RateLimit(limiter *ratelimit.AdmissionLimiter, cfg ratelimit.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := &ratelimit.Request{
			Header:     c.Request.Header.Get,
			RemoteAddr: c.Request.RemoteAddr,
			Path:       c.Request.URL.Path,
		}

		// Buffer small JSON bodies so auth endpoints can be keyed by the
		// submitted email. The body is restored for downstream handlers.
		if bodyNeeded(c) {
			body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBufferedBody+1))
			if err == nil && len(body) <= maxBufferedBody {
				req.Body = body
			}
			if err == nil {
				rest, _ := io.ReadAll(c.Request.Body)
				c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), bytes.NewReader(rest)))
			}
		}

		decision := limiter.Check(req, cfg)

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Reset.IsZero() {
			c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.Reset.Unix(), 10))
		}

		if !decision.Allowed {
			retryAfter := int(decision.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			errorText := "Rate limit exceeded"
			if decision.Blocked {
				errorText = "Access temporarily blocked"
			}

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":      errorText,
				"message":    decision.Message,
				"retryAfter": retryAfter,
				"reference":  decision.Reference,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RateLimitPreset is a convenience wrapper that applies a named preset.
func RateLimitPreset(limiter *ratelimit.AdmissionLimiter, preset string) gin.HandlerFunc {
	return RateLimit(limiter, ratelimit.PresetConfig(preset))
}

func bodyNeeded(c *gin.Context) bool {
	if c.Request.Body == nil || c.Request.Method == http.MethodGet {
		return false
	}
	contentType := c.GetHeader("Content-Type")
	return strings.HasPrefix(contentType, "application/json")
}
