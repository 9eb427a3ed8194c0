package ratelimit

import (
	"time"
)

// Preset names understood by PresetConfig. Route groups pick one by name and
// may override individual fields on the returned Config.
const (
	PresetPublic        = "public"
	PresetAuthenticated = "authenticated"
	PresetAuth          = "auth"
	PresetUpload        = "upload"
	PresetMutation      = "mutation"
)

// DefaultMessage is used when a Config carries no rejection message.
const DefaultMessage = "Too many requests. Please try again later."

// Config describes the admission policy for a single route group. A Config is
// resolved once (preset plus overrides) and then passed unchanged to Check.
type Config struct {
	// Window is the trailing time span requests are counted over.
	Window time.Duration
	// Max is the number of requests admitted per key per window.
	Max int
	// Message is returned to the client on rejection.
	Message string
	// Prefix namespaces the limit keys so different route groups never share
	// a window even for the same client.
	Prefix string
	// KeyGenerator, when set, fully replaces the built-in key derivation.
	// Allowlist and block checks still operate on the raw client address.
	KeyGenerator func(r *Request) string
	// Skip, when set and returning true, bypasses limiting for the request.
	// Bypassed requests are not recorded in the window.
	Skip func(r *Request) bool
}

// PresetConfig returns the named preset. Unknown names fall back to the
// public preset so a typo in route wiring degrades to the most permissive
// policy instead of panicking.
func PresetConfig(name string) Config {
	switch name {
	case PresetAuthenticated:
		return Config{
			Window:  time.Minute,
			Max:     120,
			Prefix:  "api",
			Message: "Too many requests. Please slow down and try again shortly.",
		}
	case PresetAuth:
		return Config{
			Window:  15 * time.Minute,
			Max:     5,
			Prefix:  "auth",
			Message: "Too many authentication attempts. Please try again later.",
		}
	case PresetUpload:
		return Config{
			Window:  time.Hour,
			Max:     20,
			Prefix:  "upload",
			Message: "Upload limit reached. Please try again later.",
		}
	case PresetMutation:
		return Config{
			Window:  time.Minute,
			Max:     30,
			Prefix:  "mutate",
			Message: "Too many changes in a short time. Please slow down.",
		}
	default:
		return Config{
			Window:  time.Minute,
			Max:     60,
			Prefix:  "public",
			Message: "Too many requests. Please slow down and try again shortly.",
		}
	}
}

func (c Config) message() string {
	if c.Message == "" {
		return DefaultMessage
	}
	return c.Message
}
