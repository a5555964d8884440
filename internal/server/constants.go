// Package server provides the HTTP and WebSocket surface
package server

import "time"

const (
	// DefaultLevelRateHz caps level messages per WebSocket connection.
	// Buffers arrive near 90/s; the meter UI needs far fewer.
	DefaultLevelRateHz = 25

	// Sliding-window rate limit for inbound WebSocket commands.
	RateLimitMessages = 30
	RateLimitWindow   = time.Second

	// WriteTimeout bounds a single WebSocket write.
	WriteTimeout = 5 * time.Second

	// SubscriberBuffer is the per-connection stream buffer. One slot is
	// enough: the broadcasters evict stale values in favor of the latest.
	SubscriberBuffer = 1
)
