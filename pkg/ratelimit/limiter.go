package ratelimit

import (
	"math"
	"sync"
	"time"

	"market-backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Escalation thresholds. Kept as one struct of named values rather than
// scattered literals; override through options when tuning.
type Thresholds struct {
	// SevereViolations pushes severity to 3 once the violation count exceeds it.
	SevereViolations int
	// ElevatedViolations pushes severity to 2 once the violation count exceeds it.
	ElevatedViolations int
	// EndpointSpread adds one severity point once a key has violated on more
	// than this many distinct paths.
	EndpointSpread int
}

// DefaultThresholds mirrors the production tuning: block after >10 violations,
// escalate after >5, and treat >5 distinct endpoints as scanning behavior.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SevereViolations:   10,
		ElevatedViolations: 5,
		EndpointSpread:     5,
	}
}

// Decision is the outcome of a single admission check.
type Decision struct {
	Allowed    bool
	Blocked    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	Reset      time.Time
	Message    string
	// Reference correlates a rejection with server logs; empty on allow.
	Reference string
}

type windowEntry struct {
	stamps []int64 // unix milliseconds, oldest first
}

type violationRecord struct {
	count     int
	endpoints map[string]struct{}
	lastSeen  time.Time
}

type blockEntry struct {
	until   time.Time
	reason  string
	message string
}

// Snapshot summarizes the limiter's in-memory state for observability.
type Snapshot struct {
	ActiveKeys       int `json:"activeKeys"`
	BlockedAddresses int `json:"blockedAddresses"`
	ViolationRecords int `json:"violationRecords"`
	AllowlistSize    int `json:"allowlistSize"`
}

// AdmissionLimiter decides per request whether to admit, delay, or reject
// based on a sliding window of past requests per client key. It tracks repeat
// offenders and temporarily blocks addresses whose violation behavior crosses
// the severity thresholds. All state lives in process memory; cleanup runs
// inline at the start of every check, so the limiter works without any
// background scheduler.
type AdmissionLimiter struct {
	mu        sync.Mutex
	now       func() time.Time
	windows   map[string]*windowEntry
	order     []string // window keys in insertion order, for cap eviction
	violation map[string]*violationRecord
	blocks    map[string]*blockEntry
	allowlist map[string]struct{}

	thresholds     Thresholds
	maxTrackedKeys int
	violationTTL   time.Duration
	blockDuration  time.Duration
	severeRetry    time.Duration
	elevatedRetry  time.Duration
}

type Option func(*AdmissionLimiter)

// WithClock overrides the time source. Tests use this to slide the window
// without sleeping.
func WithClock(now func() time.Time) Option {
	return func(l *AdmissionLimiter) {
		l.now = now
	}
}

// WithMaxTrackedKeys caps the number of window entries held in memory.
// Oldest-inserted entries are evicted first once the cap is exceeded.
func WithMaxTrackedKeys(n int) Option {
	return func(l *AdmissionLimiter) {
		l.maxTrackedKeys = n
	}
}

// WithThresholds overrides the escalation thresholds.
func WithThresholds(t Thresholds) Option {
	return func(l *AdmissionLimiter) {
		l.thresholds = t
	}
}

// NewAdmissionLimiter creates a limiter with empty state.
func NewAdmissionLimiter(opts ...Option) *AdmissionLimiter {
	l := &AdmissionLimiter{
		now:            time.Now,
		windows:        make(map[string]*windowEntry),
		violation:      make(map[string]*violationRecord),
		blocks:         make(map[string]*blockEntry),
		allowlist:      make(map[string]struct{}),
		thresholds:     DefaultThresholds(),
		maxTrackedKeys: 10000,
		violationTTL:   time.Hour,
		blockDuration:  24 * time.Hour,
		severeRetry:    30 * time.Minute,
		elevatedRetry:  5 * time.Minute,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Check runs the admission decision for one request. It never panics past its
// own boundary: any internal fault is logged and converted into an Allow, so
// the limiter can degrade but never take legitimate traffic down with it.
func (l *AdmissionLimiter) Check(req *Request, cfg Config) (decision Decision) {
	defer func() {
		if r := recover(); r != nil {
			logger.Logger().Error("admission check failed, failing open",
				zap.Any("fault", r))
			decision = Decision{Allowed: true, Limit: cfg.Max, Remaining: cfg.Max}
		}
	}()

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.maintain(now)

	addr := ClientAddr(req)

	// Allowlist precedes everything, including a live block.
	if _, ok := l.allowlist[addr]; ok {
		return Decision{Allowed: true, Limit: cfg.Max, Remaining: cfg.Max}
	}

	if b, ok := l.blocks[addr]; ok && b.until.After(now) {
		retry := ceilSeconds(b.until.Sub(now))
		logger.Logger().Debug("blocked address rejected",
			zap.String("addr", AnonymizeAddr(addr)),
			zap.String("path", req.Path),
			zap.Duration("retryAfter", retry))
		msg := b.message
		if msg == "" {
			msg = cfg.message()
		}
		return Decision{
			Blocked:    true,
			Limit:      cfg.Max,
			RetryAfter: retry,
			Reset:      b.until,
			Message:    msg,
			Reference:  uuid.NewString(),
		}
	}

	if cfg.Skip != nil && cfg.Skip(req) {
		return Decision{Allowed: true, Limit: cfg.Max, Remaining: cfg.Max}
	}

	key := limitKey(cfg, addr, req)

	w, ok := l.windows[key]
	if !ok {
		w = &windowEntry{}
		l.windows[key] = w
		l.order = append(l.order, key)
	}

	// Lazy prune: drop stamps at or beyond the trailing window edge.
	cutoff := now.Add(-cfg.Window).UnixMilli()
	kept := w.stamps[:0]
	for _, ts := range w.stamps {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}
	w.stamps = kept

	if len(w.stamps) >= cfg.Max {
		return l.recordViolation(now, addr, key, w, req, cfg)
	}

	w.stamps = append(w.stamps, now.UnixMilli())
	logger.Logger().Debug("request admitted",
		zap.String("path", req.Path),
		zap.Int("count", len(w.stamps)),
		zap.Int("limit", cfg.Max))
	return Decision{
		Allowed:   true,
		Limit:     cfg.Max,
		Remaining: cfg.Max - len(w.stamps),
		Reset:     now.Add(cfg.Window),
	}
}

// recordViolation updates the offender record for the key, escalates to a
// block when severity crosses the threshold, and computes the retry delay.
// Caller holds the mutex.
func (l *AdmissionLimiter) recordViolation(now time.Time, addr, key string, w *windowEntry, req *Request, cfg Config) Decision {
	v, ok := l.violation[key]
	if !ok {
		v = &violationRecord{endpoints: make(map[string]struct{})}
		l.violation[key] = v
	}
	v.count++
	if req.Path != "" {
		v.endpoints[req.Path] = struct{}{}
	}
	v.lastSeen = now

	severity := 0
	if len(v.endpoints) > l.thresholds.EndpointSpread {
		severity++
	}
	switch {
	case v.count > l.thresholds.SevereViolations:
		severity = 3
	case v.count > l.thresholds.ElevatedViolations:
		severity = 2
	}

	if severity >= 3 {
		l.blocks[addr] = &blockEntry{
			until:   now.Add(l.blockDuration),
			reason:  "repeated rate limit violations",
			message: cfg.message(),
		}
		logger.Logger().Warn("address blocked",
			zap.String("addr", AnonymizeAddr(addr)),
			zap.Int("violations", v.count),
			zap.Time("until", now.Add(l.blockDuration)))
	}

	var retry time.Duration
	switch {
	case severity >= 3:
		retry = l.severeRetry
	case severity >= 2:
		retry = l.elevatedRetry
	default:
		// Wait until the oldest in-window request slides out naturally.
		if len(w.stamps) > 0 {
			retry = time.UnixMilli(w.stamps[0]).Add(cfg.Window).Sub(now)
		} else {
			retry = cfg.Window
		}
		if retry < time.Second {
			retry = time.Second
		}
	}

	logger.Logger().Warn("rate limit violation",
		zap.String("addr", AnonymizeAddr(addr)),
		zap.String("path", req.Path),
		zap.Int("violations", v.count),
		zap.Int("endpoints", len(v.endpoints)),
		zap.Int("severity", severity))

	return Decision{
		Limit:      cfg.Max,
		RetryAfter: retry,
		Reset:      now.Add(retry),
		Message:    cfg.message(),
		Reference:  uuid.NewString(),
	}
}

// maintain removes expired blocks, idle violation records, and trims the
// window cache to the configured cap. Runs inline on every check so the
// limiter never depends on a long-lived background process. Caller holds the
// mutex.
func (l *AdmissionLimiter) maintain(now time.Time) {
	for addr, b := range l.blocks {
		if !b.until.After(now) {
			delete(l.blocks, addr)
		}
	}
	for key, v := range l.violation {
		if now.Sub(v.lastSeen) > l.violationTTL {
			delete(l.violation, key)
		}
	}
	for len(l.windows) > l.maxTrackedKeys && len(l.order) > 0 {
		key := l.order[0]
		l.order = l.order[1:]
		delete(l.windows, key)
	}
}

// Allowlist exempts an address from all limiting until removed.
func (l *AdmissionLimiter) Allowlist(addr string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.allowlist[addr] = struct{}{}
}

// Unallowlist removes an address from the allowlist.
func (l *AdmissionLimiter) Unallowlist(addr string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.allowlist, addr)
}

// Block denies all requests from the address for the given duration.
// A non-positive duration applies the default 24 hours.
func (l *AdmissionLimiter) Block(addr string, d time.Duration, reason, message string) {
	if d <= 0 {
		d = l.blockDuration
	}
	if reason == "" {
		reason = "manual block"
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.blocks[addr] = &blockEntry{
		until:   l.now().Add(d),
		reason:  reason,
		message: message,
	}
	logger.Logger().Warn("address blocked by operator",
		zap.String("addr", AnonymizeAddr(addr)),
		zap.String("reason", reason),
		zap.Duration("duration", d))
}

// Unblock lifts a block before its expiry.
func (l *AdmissionLimiter) Unblock(addr string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.blocks, addr)
}

// Reset clears all in-memory state. Calling it repeatedly is harmless; used
// by tests and operational resets.
func (l *AdmissionLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.windows = make(map[string]*windowEntry)
	l.order = nil
	l.violation = make(map[string]*violationRecord)
	l.blocks = make(map[string]*blockEntry)
	l.allowlist = make(map[string]struct{})
}

// Snapshot returns current state counts for the admin observability endpoint.
func (l *AdmissionLimiter) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot{
		ActiveKeys:       len(l.windows),
		BlockedAddresses: len(l.blocks),
		ViolationRecords: len(l.violation),
		AllowlistSize:    len(l.allowlist),
	}
}

func ceilSeconds(d time.Duration) time.Duration {
	return time.Duration(math.Ceil(d.Seconds())) * time.Second
}
