package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"market-backend/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(limiter *ratelimit.AdmissionLimiter, cfg ratelimit.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(limiter, cfg))
	router.POST("/login", func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.JSON(http.StatusOK, gin.H{"bodyLen": len(body)})
	})
	router.GET("/items", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "203.0.113.7:51000"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimit_AllowsAndSetsHeaders(t *testing.T) {
	limiter := ratelimit.NewAdmissionLimiter()
	router := setupRouter(limiter, ratelimit.Config{Window: time.Minute, Max: 5})

	w := doRequest(router, http.MethodGet, "/items", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	limiter := ratelimit.NewAdmissionLimiter()
	router := setupRouter(limiter, ratelimit.Config{Window: time.Minute, Max: 2})

	for i := 0; i < 2; i++ {
		w := doRequest(router, http.MethodGet, "/items", "")
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doRequest(router, http.MethodGet, "/items", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var payload struct {
		Error      string `json:"error"`
		Message    string `json:"message"`
		RetryAfter int    `json:"retryAfter"`
		Reference  string `json:"reference"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "Rate limit exceeded", payload.Error)
	assert.NotEmpty(t, payload.Message)
	assert.GreaterOrEqual(t, payload.RetryAfter, 1)
	assert.NotEmpty(t, payload.Reference)
}

func TestRateLimit_BodyRestoredForHandler(t *testing.T) {
	limiter := ratelimit.NewAdmissionLimiter()
	router := setupRouter(limiter, ratelimit.PresetConfig(ratelimit.PresetAuth))

	body := `{"email":"admin@example.com","password":"secret"}`
	w := doRequest(router, http.MethodPost, "/login", body)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		BodyLen int `json:"bodyLen"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, len(body), resp.BodyLen)
}

func TestRateLimit_EmailKeyedSeparatelyFromOtherEmails(t *testing.T) {
	limiter := ratelimit.NewAdmissionLimiter()
	cfg := ratelimit.Config{Window: time.Minute, Max: 1, Prefix: "auth"}
	router := setupRouter(limiter, cfg)

	w := doRequest(router, http.MethodPost, "/login", `{"email":"one@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)

	// Same address, different email: separate window, still admitted.
	w = doRequest(router, http.MethodPost, "/login", `{"email":"two@example.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	// Same email again exceeds its window.
	w = doRequest(router, http.MethodPost, "/login", `{"email":"one@example.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimit_BlockedAddressGetsBlockError(t *testing.T) {
	limiter := ratelimit.NewAdmissionLimiter()
	limiter.Block("203.0.113.7", time.Hour, "manual", "You have been blocked")
	router := setupRouter(limiter, ratelimit.Config{Window: time.Minute, Max: 5})

	w := doRequest(router, http.MethodGet, "/items", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "Access temporarily blocked", payload.Error)
	assert.Equal(t, "You have been blocked", payload.Message)
}

func TestRateLimit_SkipPredicateBypasses(t *testing.T) {
	limiter := ratelimit.NewAdmissionLimiter()
	cfg := ratelimit.Config{
		Window: time.Minute,
		Max:    1,
		Skip: func(r *ratelimit.Request) bool {
			return r.Path == "/items"
		},
	}
	router := setupRouter(limiter, cfg)

	for i := 0; i < 5; i++ {
		w := doRequest(router, http.MethodGet, "/items", "")
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
