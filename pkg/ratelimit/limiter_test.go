package ratelimit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestLimiter(opts ...Option) (*AdmissionLimiter, *fakeClock) {
	clock := newFakeClock()
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewAdmissionLimiter(opts...), clock
}

func testRequest(addr, path string) *Request {
	return &Request{
		Header:     func(string) string { return "" },
		RemoteAddr: addr + ":54321",
		Path:       path,
	}
}

func TestCheck_ExactWindowLimit(t *testing.T) {
	limiter, _ := newTestLimiter()
	cfg := Config{Window: time.Minute, Max: 3, Message: "slow down"}

	req := testRequest("203.0.113.10", "/api/v1/applications")

	// Exactly max requests pass, every one after that is rejected.
	for i := 0; i < 3; i++ {
		d := limiter.Check(req, cfg)
		assert.True(t, d.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 3, d.Limit)
		assert.Equal(t, 2-i, d.Remaining)
	}
	for i := 0; i < 2; i++ {
		d := limiter.Check(req, cfg)
		assert.False(t, d.Allowed, "request %d should be rejected", i+4)
		assert.False(t, d.Blocked)
		assert.Equal(t, "slow down", d.Message)
		assert.NotEmpty(t, d.Reference)
	}
}

func TestCheck_WindowSlides(t *testing.T) {
	limiter, clock := newTestLimiter()
	cfg := Config{Window: time.Minute, Max: 3}

	req := testRequest("203.0.113.11", "/api/v1/orders")

	for i := 0; i < 3; i++ {
		require.True(t, limiter.Check(req, cfg).Allowed)
	}
	require.False(t, limiter.Check(req, cfg).Allowed)

	// After the full window has slid past, the key is admissible again.
	clock.Advance(61 * time.Second)
	assert.True(t, limiter.Check(req, cfg).Allowed)
}

func TestCheck_PartialSlide(t *testing.T) {
	limiter, clock := newTestLimiter()
	cfg := Config{Window: time.Minute, Max: 2}

	req := testRequest("203.0.113.12", "/api/v1/templates")

	require.True(t, limiter.Check(req, cfg).Allowed)
	clock.Advance(10 * time.Second)
	require.True(t, limiter.Check(req, cfg).Allowed)
	clock.Advance(10 * time.Second)

	// Oldest stamp is 20s old; it leaves the window in 40s.
	d := limiter.Check(req, cfg)
	assert.False(t, d.Allowed)
	assert.Equal(t, 40*time.Second, d.RetryAfter)
}

func TestCheck_AllowlistBypassesEverything(t *testing.T) {
	limiter, _ := newTestLimiter()
	cfg := Config{Window: time.Minute, Max: 0}

	limiter.Allowlist("203.0.113.20")
	req := testRequest("203.0.113.20", "/api/v1/applications")

	// Even with max 0 an allowlisted address is always admitted.
	for i := 0; i < 5; i++ {
		assert.True(t, limiter.Check(req, cfg).Allowed)
	}

	// Bypassed requests are never recorded in the window.
	assert.Equal(t, 0, limiter.Snapshot().ActiveKeys)
}

func TestCheck_AllowlistPrecedesBlock(t *testing.T) {
	limiter, _ := newTestLimiter()
	cfg := Config{Window: time.Minute, Max: 1}

	limiter.Block("203.0.113.21", time.Hour, "abuse", "blocked")
	limiter.Allowlist("203.0.113.21")

	req := testRequest("203.0.113.21", "/api/v1/orders")
	d := limiter.Check(req, cfg)
	assert.True(t, d.Allowed)
	assert.False(t, d.Blocked)
}

func TestCheck_EscalatesToBlock(t *testing.T) {
	limiter, _ := newTestLimiter()
	cfg := Config{Window: time.Minute, Max: 0, Message: "too many attempts"}

	req := testRequest("203.0.113.30", "/api/v1/auth/login")

	// Violations 1-5: severity 0, natural retry. 6-10: severity 2. The 11th
	// crosses the severe threshold and creates a 24 hour block.
	for i := 1; i <= 10; i++ {
		d := limiter.Check(req, cfg)
		require.False(t, d.Allowed)
		require.False(t, d.Blocked, "violation %d should not be a block rejection", i)
		if i > 5 {
			assert.Equal(t, 5*time.Minute, d.RetryAfter, "violation %d", i)
		}
	}

	d := limiter.Check(req, cfg)
	require.False(t, d.Allowed)
	assert.False(t, d.Blocked, "the violation that creates the block is still a rate-limit rejection")
	assert.Equal(t, 30*time.Minute, d.RetryAfter)
	assert.Equal(t, 1, limiter.Snapshot().BlockedAddresses)

	// From here on the live block short-circuits the window logic.
	d = limiter.Check(req, cfg)
	assert.True(t, d.Blocked)
	assert.InDelta(t, (24 * time.Hour).Seconds(), d.RetryAfter.Seconds(), 1)
	assert.Equal(t, "too many attempts", d.Message)
}

func TestCheck_BlockExpires(t *testing.T) {
	limiter, clock := newTestLimiter()
	cfg := Config{Window: time.Minute, Max: 5}

	limiter.Block("203.0.113.31", time.Hour, "abuse", "come back later")
	req := testRequest("203.0.113.31", "/api/v1/applications")

	d := limiter.Check(req, cfg)
	require.True(t, d.Blocked)
	assert.Equal(t, "come back later", d.Message)
	assert.Equal(t, time.Hour, d.RetryAfter)

	clock.Advance(2 * time.Hour)
	d = limiter.Check(req, cfg)
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, limiter.Snapshot().BlockedAddresses)
}

func TestCheck_ManualBlockDefaultDuration(t *testing.T) {
	limiter, _ := newTestLimiter()
	cfg := Config{Window: time.Minute, Max: 5}

	limiter.Block("203.0.113.32", 0, "", "suspended pending review")

	d := limiter.Check(testRequest("203.0.113.32", "/api/v1/orders"), cfg)
	require.True(t, d.Blocked)
	assert.Equal(t, 24*time.Hour, d.RetryAfter)
	assert.Equal(t, "suspended pending review", d.Message)
}

func TestCheck_ViolationCounterMonotonic(t *testing.T) {
	limiter, clock := newTestLimiter()
	cfg := Config{Window: time.Minute, Max: 0}

	req := testRequest("203.0.113.33", "/api/v1/orders")

	for i := 0; i < 3; i++ {
		limiter.Check(req, cfg)
	}
	assert.Equal(t, 1, limiter.Snapshot().ViolationRecords)

	// Within the hour the record survives and keeps counting.
	clock.Advance(30 * time.Minute)
	limiter.Check(req, cfg)
	assert.Equal(t, 1, limiter.Snapshot().ViolationRecords)

	// After an idle hour the record expires entirely, not to zero-but-present.
	clock.Advance(61 * time.Minute)
	limiter.Check(testRequest("203.0.113.99", "/api/v1/other"), Config{Window: time.Minute, Max: 5})
	assert.Equal(t, 0, limiter.Snapshot().ViolationRecords)
}

func TestCheck_ViolationRecordExpires(t *testing.T) {
	limiter, clock := newTestLimiter()
	cfg := Config{Window: time.Minute, Max: 0}

	limiter.Check(testRequest("203.0.113.34", "/a"), cfg)
	require.Equal(t, 1, limiter.Snapshot().ViolationRecords)

	clock.Advance(61 * time.Minute)
	// Any check triggers the inline maintenance pass.
	limiter.Check(testRequest("203.0.113.35", "/b"), Config{Window: time.Minute, Max: 5})
	assert.Equal(t, 0, limiter.Snapshot().ViolationRecords)
}

func TestCheck_EndpointSpreadRaisesSeverity(t *testing.T) {
	limiter, _ := newTestLimiter()
	cfg := Config{Window: time.Minute, Max: 0}

	// Six distinct endpoints from one key: the endpoint-spread point alone
	// must not produce the escalated retry delays.
	var d Decision
	for i := 0; i < 6; i++ {
		d = limiter.Check(testRequest("203.0.113.36", fmt.Sprintf("/api/v1/path%d", i)), cfg)
		require.False(t, d.Allowed)
	}
	// count is 6 (>5) so severity is 2 regardless of spread.
	assert.Equal(t, 5*time.Minute, d.RetryAfter)
}

func TestCheck_FailsOpenOnPanickingHeaderAccessor(t *testing.T) {
	limiter, _ := newTestLimiter()
	cfg := Config{Window: time.Minute, Max: 1}

	req := &Request{
		Header:     func(string) string { panic("header store corrupted") },
		RemoteAddr: "203.0.113.40:1234",
		Path:       "/api/v1/applications",
	}

	var d Decision
	assert.NotPanics(t, func() {
		d = limiter.Check(req, cfg)
	})
	assert.True(t, d.Allowed)
}

func TestCheck_FailsOpenOnNilRequest(t *testing.T) {
	limiter, _ := newTestLimiter()

	var d Decision
	assert.NotPanics(t, func() {
		d = limiter.Check(nil, Config{Window: time.Minute, Max: 1})
	})
	assert.True(t, d.Allowed)
}

func TestReset_Idempotent(t *testing.T) {
	limiter, _ := newTestLimiter()
	cfg := Config{Window: time.Minute, Max: 0}

	limiter.Check(testRequest("203.0.113.50", "/a"), cfg)
	limiter.Allowlist("203.0.113.51")
	limiter.Block("203.0.113.52", time.Hour, "abuse", "")
	require.NotEqual(t, Snapshot{}, limiter.Snapshot())

	limiter.Reset()
	first := limiter.Snapshot()
	limiter.Reset()
	assert.Equal(t, first, limiter.Snapshot())
	assert.Equal(t, Snapshot{}, first)
}

func TestCheck_EmailKeyedSeparately(t *testing.T) {
	limiter, _ := newTestLimiter()
	cfg := Config{Window: time.Minute, Max: 1, Prefix: "auth"}

	login := func(email string) Decision {
		req := testRequest("203.0.113.60", "/api/v1/auth/login")
		req.Body = []byte(fmt.Sprintf(`{"email":%q,"password":"secret"}`, email))
		return limiter.Check(req, cfg)
	}

	// Same address, different submitted identities: independent windows.
	assert.True(t, login("alice@example.com").Allowed)
	assert.True(t, login("bob@example.com").Allowed)
	assert.False(t, login("alice@example.com").Allowed)
	assert.False(t, login("bob@example.com").Allowed)
}

func TestCheck_MalformedBodyFallsBackToAddressKey(t *testing.T) {
	limiter, _ := newTestLimiter()
	cfg := Config{Window: time.Minute, Max: 2}

	req := testRequest("203.0.113.61", "/api/v1/auth/login")
	req.Body = []byte(`{"email": not-json`)

	assert.True(t, limiter.Check(req, cfg).Allowed)
	assert.True(t, limiter.Check(req, cfg).Allowed)
	assert.False(t, limiter.Check(req, cfg).Allowed)
}

func TestCheck_KeyGeneratorOverride(t *testing.T) {
	limiter, _ := newTestLimiter()
	cfg := Config{
		Window:       time.Minute,
		Max:          1,
		KeyGenerator: func(r *Request) string { return "tenant:42" },
	}

	// Two different addresses share the generated key.
	require.True(t, limiter.Check(testRequest("203.0.113.70", "/a"), cfg).Allowed)
	assert.False(t, limiter.Check(testRequest("203.0.113.71", "/a"), cfg).Allowed)

	// The block check still operates on the raw address.
	limiter.Block("203.0.113.70", time.Hour, "abuse", "")
	d := limiter.Check(testRequest("203.0.113.70", "/a"), cfg)
	assert.True(t, d.Blocked)
}

func TestCheck_SkipPredicate(t *testing.T) {
	limiter, _ := newTestLimiter()
	cfg := Config{
		Window: time.Minute,
		Max:    0,
		Skip: func(r *Request) bool {
			return r.Path == "/api/v1/health"
		},
	}

	assert.True(t, limiter.Check(testRequest("203.0.113.80", "/api/v1/health"), cfg).Allowed)
	assert.Equal(t, 0, limiter.Snapshot().ActiveKeys)
	assert.False(t, limiter.Check(testRequest("203.0.113.80", "/api/v1/orders"), cfg).Allowed)
}

func TestCheck_WindowCacheCapEvictsOldest(t *testing.T) {
	limiter, _ := newTestLimiter(WithMaxTrackedKeys(2))
	cfg := Config{Window: time.Minute, Max: 1}

	first := testRequest("203.0.113.90", "/a")
	require.True(t, limiter.Check(first, cfg).Allowed)
	require.False(t, limiter.Check(first, cfg).Allowed)

	// Two more keys push the cache past its cap; the oldest entry goes first.
	require.True(t, limiter.Check(testRequest("203.0.113.91", "/a"), cfg).Allowed)
	require.True(t, limiter.Check(testRequest("203.0.113.92", "/a"), cfg).Allowed)

	// The first key was evicted, so its budget is fresh again.
	assert.True(t, limiter.Check(first, cfg).Allowed)
}

func TestSnapshot_Counts(t *testing.T) {
	limiter, _ := newTestLimiter()

	limiter.Check(testRequest("203.0.113.95", "/a"), Config{Window: time.Minute, Max: 5})
	limiter.Check(testRequest("203.0.113.96", "/a"), Config{Window: time.Minute, Max: 0})
	limiter.Allowlist("203.0.113.97")
	limiter.Block("203.0.113.98", time.Hour, "abuse", "")

	snap := limiter.Snapshot()
	assert.Equal(t, 2, snap.ActiveKeys)
	assert.Equal(t, 1, snap.ViolationRecords)
	assert.Equal(t, 1, snap.BlockedAddresses)
	assert.Equal(t, 1, snap.AllowlistSize)
}
