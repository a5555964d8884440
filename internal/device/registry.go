package device

import (
	"context"
	"log/slog"
	"sort"
	"time"
)

// EventType discriminates watcher notifications.
type EventType int

const (
	ListChanged EventType = iota
	DefaultChanged
)

func (t EventType) String() string {
	if t == DefaultChanged {
		return "defaultChanged"
	}
	return "listChanged"
}

// Event is one hardware-change notification. Events are posted onto a
// single channel and consumed in arrival order by the coordinator's control
// loop, so no re-entrancy guards are needed downstream.
type Event struct {
	Type    EventType
	Devices []Device // snapshot at detection time, already filtered+sorted
	Default Device   // current default (NoDevice if absent)
}

// Registry enumerates capture devices and watches for changes. It owns no
// engine state.
type Registry struct {
	backend  Backend
	interval time.Duration
	excluded []string
	events   chan Event

	// onHALError is the advisory backoff signal for enumeration failures.
	onHALError func(error)
}

// Option configures a Registry.
type Option func(*Registry)

// WithPollInterval overrides the watcher cadence.
func WithPollInterval(d time.Duration) Option {
	return func(r *Registry) { r.interval = d }
}

// WithExcluded hides devices whose names match any fragment.
func WithExcluded(fragments []string) Option {
	return func(r *Registry) { r.excluded = fragments }
}

// WithHALErrorHook installs the advisory callback for driver error codes.
func WithHALErrorHook(fn func(error)) Option {
	return func(r *Registry) { r.onHALError = fn }
}

// NewRegistry creates a registry over a backend.
func NewRegistry(backend Backend, opts ...Option) *Registry {
	r := &Registry{
		backend:  backend,
		interval: DefaultPollInterval,
		events:   make(chan Event, EventBufferSize),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Events returns the notification channel.
func (r *Registry) Events() <-chan Event { return r.events }

// Enumerate returns the filtered, sorted capture device list. Driver errors
// are never fatal: the result is an empty list, the advisory hook fires,
// and the error is returned for logging.
func (r *Registry) Enumerate() ([]Device, error) {
	devices, err := r.backend.Enumerate()
	if err != nil {
		if r.onHALError != nil {
			r.onHALError(err)
		}
		return nil, err
	}

	filtered := devices[:0]
	for _, d := range devices {
		if d.ChannelCount < 1 || r.isExcluded(d.Name) {
			continue
		}
		filtered = append(filtered, d)
	}

	// Deterministic order: default first, then by name.
	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].IsDefault != filtered[j].IsDefault {
			return filtered[i].IsDefault
		}
		return filtered[i].Name < filtered[j].Name
	})
	return filtered, nil
}

// Default returns the OS default input device, if any.
func (r *Registry) Default() (Device, bool) {
	d, err := r.backend.Default()
	if err != nil {
		return NoDevice, false
	}
	if r.isExcluded(d.Name) {
		return NoDevice, false
	}
	return d, true
}

func (r *Registry) isExcluded(name string) bool {
	return nameHasAny(name, r.excluded)
}

// Watch polls for device-list and default-input changes until ctx is done.
// Run it on its own goroutine; notifications are delivered through Events.
func (r *Registry) Watch(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	lastList, _ := r.Enumerate()
	lastDefault, _ := r.Default()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		current, err := r.Enumerate()
		if err != nil {
			slog.Warn("device enumeration failed", "error", err)
			continue
		}
		currentDefault, _ := r.Default()

		if !sameDeviceSet(lastList, current) {
			lastList = current
			r.post(Event{Type: ListChanged, Devices: current, Default: currentDefault})
		}
		if !lastDefault.Same(currentDefault) {
			lastDefault = currentDefault
			r.post(Event{Type: DefaultChanged, Devices: current, Default: currentDefault})
		}
	}
}

func (r *Registry) post(evt Event) {
	select {
	case r.events <- evt:
	default:
		// Coordinator is behind; drop the oldest event for the newest.
		select {
		case <-r.events:
		default:
		}
		select {
		case r.events <- evt:
		default:
		}
	}
	slog.Debug("device event", "type", evt.Type, "devices", len(evt.Devices), "default", evt.Default.Name)
}

func sameDeviceSet(a, b []Device) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Same(b[i]) || a[i].ChannelCount != b[i].ChannelCount {
			return false
		}
	}
	return true
}
