package device

import "time"

// Registry constants
const (
	// DefaultPollInterval is how often the watcher re-enumerates to detect
	// hot-plug and default-input changes. portaudio has no change
	// notifications, so polling is the notification adapter here.
	DefaultPollInterval = 2 * time.Second

	// EventBufferSize bounds the watcher's event channel. The coordinator
	// is the single consumer; if it stalls, old change events are dropped
	// in favor of newer ones.
	EventBufferSize = 16
)
