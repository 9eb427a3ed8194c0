package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"strings"
)

// Request is the limiter's view of an incoming HTTP request. Wrapping the
// header accessor in a func keeps the package decoupled from the HTTP
// framework and lets tests exercise the fail-open path with a throwing
// accessor.
type Request struct {
	Header     func(name string) string
	RemoteAddr string
	Path       string
	// Body holds the buffered request body, if the caller chose to provide
	// it. Used only to derive email-based keys for authentication endpoints.
	Body []byte
}

func (r *Request) header(name string) string {
	if r == nil || r.Header == nil {
		return ""
	}
	return r.Header(name)
}

// ClientAddr resolves the real client address from trusted proxy headers in
// fixed precedence order: CF-Connecting-IP, then the first X-Forwarded-For
// entry, then X-Real-IP, then the raw socket address. IPv6-mapped IPv4
// prefixes are stripped so the same client never shows up under two keys.
func ClientAddr(r *Request) string {
	if addr := strings.TrimSpace(r.header("CF-Connecting-IP")); addr != "" {
		return stripMapped(addr)
	}
	if forwarded := r.header("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return stripMapped(first)
		}
	}
	if addr := strings.TrimSpace(r.header("X-Real-IP")); addr != "" {
		return stripMapped(addr)
	}
	if r == nil || r.RemoteAddr == "" {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return stripMapped(r.RemoteAddr)
	}
	return stripMapped(host)
}

func stripMapped(addr string) string {
	return strings.TrimPrefix(addr, "::ffff:")
}

// limitKey builds the composite window key. Requests carrying a parseable
// JSON body with an email field are additionally keyed by a truncated hash of
// that email, so authentication endpoints limit per submitted identity and
// not only per address.
func limitKey(cfg Config, addr string, r *Request) string {
	if cfg.KeyGenerator != nil {
		return cfg.KeyGenerator(r)
	}
	var b strings.Builder
	if cfg.Prefix != "" {
		b.WriteString(cfg.Prefix)
		b.WriteString(":")
	}
	if email := bodyEmail(r); email != "" {
		fmt.Fprintf(&b, "email:%s:", hashEmail(email))
	}
	b.WriteString("ip:")
	b.WriteString(addr)
	return b.String()
}

func bodyEmail(r *Request) string {
	if r == nil || len(r.Body) == 0 {
		return ""
	}
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(r.Body, &payload); err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(payload.Email))
}

func hashEmail(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])[:8]
}

// AnonymizeAddr masks an address for log output: the last IPv4 octet is
// replaced, IPv6 addresses are truncated to their first four groups. Keys and
// block entries always use the full address; this is purely for logs.
func AnonymizeAddr(addr string) string {
	if addr == "" {
		return "unknown"
	}
	if strings.Contains(addr, ":") {
		groups := strings.Split(addr, ":")
		if len(groups) > 4 {
			groups = groups[:4]
		}
		return strings.Join(groups, ":") + "::"
	}
	if octets := strings.Split(addr, "."); len(octets) == 4 {
		octets[3] = "x"
		return strings.Join(octets, ".")
	}
	return addr
}
