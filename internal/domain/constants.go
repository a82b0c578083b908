package domain

import "time"

// ==== WebSocket Constants ====

// MaxMessageSize is the maximum allowed WebSocket message size in bytes.
// Offers carrying a full SDP plus caller metadata routinely exceed 4 KiB.
const MaxMessageSize = 64 * 1024

// SendBufferSize is the number of outbound frames queued per connection
const SendBufferSize = 256

// ==== Identity Constants ====

const (
	// MaxIdentityLen bounds routing fields (identities and connection IDs)
	MaxIdentityLen = 128

	// MaxDisplayNameLen bounds the display name shown in the online list
	MaxDisplayNameLen = 64
)

// ==== Rate Limit Constants ====

const (
	// DefaultRateLimitAPI is the default rate limit for API endpoints (requests/sec)
	DefaultRateLimitAPI = 10

	// DefaultRateLimitWS is the default rate limit for WebSocket upgrades (req/sec)
	DefaultRateLimitWS = 5

	// DefaultEventRate is the sustained inbound event rate per connection (events/sec).
	// Media sync traffic (video-sync every second plus ICE bursts) stays well below it.
	DefaultEventRate = 50

	// DefaultEventBurst is the inbound event burst per connection
	DefaultEventBurst = 100
)

// ==== Timing Constants ====

const (
	// DirectoryTimeout bounds a profile lookup during join
	DirectoryTimeout = 3 * time.Second

	// ShutdownTimeout is how long in-flight HTTP requests get on shutdown
	ShutdownTimeout = 30 * time.Second
)
