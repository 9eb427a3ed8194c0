package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func headerRequest(headers map[string]string, remoteAddr string) *Request {
	return &Request{
		Header: func(name string) string {
			return headers[name]
		},
		RemoteAddr: remoteAddr,
	}
}

func TestClientAddr_Precedence(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{
			name: "cf connecting ip wins",
			headers: map[string]string{
				"CF-Connecting-IP": "198.51.100.1",
				"X-Forwarded-For":  "203.0.113.1, 10.0.0.1",
				"X-Real-IP":        "192.0.2.1",
			},
			remoteAddr: "10.0.0.2:443",
			want:       "198.51.100.1",
		},
		{
			name: "first forwarded-for entry",
			headers: map[string]string{
				"X-Forwarded-For": " 203.0.113.1 , 10.0.0.1",
				"X-Real-IP":       "192.0.2.1",
			},
			remoteAddr: "10.0.0.2:443",
			want:       "203.0.113.1",
		},
		{
			name:       "real ip before socket address",
			headers:    map[string]string{"X-Real-IP": "192.0.2.1"},
			remoteAddr: "10.0.0.2:443",
			want:       "192.0.2.1",
		},
		{
			name:       "socket address fallback",
			headers:    map[string]string{},
			remoteAddr: "10.0.0.2:443",
			want:       "10.0.0.2",
		},
		{
			name:       "ipv6 mapped ipv4 stripped",
			headers:    map[string]string{"X-Real-IP": "::ffff:203.0.113.9"},
			remoteAddr: "10.0.0.2:443",
			want:       "203.0.113.9",
		},
		{
			name:       "remote addr without port",
			headers:    map[string]string{},
			remoteAddr: "203.0.113.5",
			want:       "203.0.113.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClientAddr(headerRequest(tt.headers, tt.remoteAddr)))
		})
	}
}

func TestClientAddr_EmptyRequest(t *testing.T) {
	assert.Equal(t, "unknown", ClientAddr(&Request{}))
}

func TestLimitKey_Shapes(t *testing.T) {
	cfg := Config{Window: time.Minute, Max: 5, Prefix: "auth"}

	plain := &Request{Path: "/api/v1/auth/login"}
	assert.Equal(t, "auth:ip:203.0.113.1", limitKey(cfg, "203.0.113.1", plain))

	withEmail := &Request{
		Path: "/api/v1/auth/login",
		Body: []byte(`{"email":"Alice@Example.com"}`),
	}
	key := limitKey(cfg, "203.0.113.1", withEmail)
	assert.Regexp(t, `^auth:email:[0-9a-f]{8}:ip:203\.0\.113\.1$`, key)

	// Email matching is case and whitespace insensitive.
	withEmailLower := &Request{
		Path: "/api/v1/auth/login",
		Body: []byte(`{"email":" alice@example.com "}`),
	}
	assert.Equal(t, key, limitKey(cfg, "203.0.113.1", withEmailLower))

	noPrefix := Config{Window: time.Minute, Max: 5}
	assert.Equal(t, "ip:203.0.113.1", limitKey(noPrefix, "203.0.113.1", plain))
}

func TestAnonymizeAddr(t *testing.T) {
	assert.Equal(t, "203.0.113.x", AnonymizeAddr("203.0.113.57"))
	assert.Equal(t, "2001:db8:85a3:8d3::", AnonymizeAddr("2001:db8:85a3:8d3:1319:8a2e:370:7348"))
	assert.Equal(t, "unknown", AnonymizeAddr(""))
	assert.Equal(t, "not-an-ip", AnonymizeAddr("not-an-ip"))
}
