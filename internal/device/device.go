// Package device enumerates capture hardware and watches for hot-plug and
// default-input changes
package device

import (
	"fmt"
	"strings"

	"github.com/patgov/audiomon/internal/classify"
)

// Device identifies one capture-capable input. Devices are immutable value
// objects recreated on every enumeration; identity equality is by UID.
type Device struct {
	ID           int    // backend index at enumeration time
	UID          string // stable across re-enumeration
	Name         string
	ChannelCount int
	SampleRate   float64
	IsDefault    bool
	Family       classify.Family
}

// NoDevice is the sentinel for "nothing selected".
var NoDevice = Device{ID: -1, UID: "", Name: "No Device"}

// IsNone reports whether d is the no-selection sentinel.
func (d Device) IsNone() bool { return d.UID == "" }

// IsValid reports whether the device currently exposes capture channels.
func (d Device) IsValid() bool { return !d.IsNone() && d.ChannelCount > 0 }

// Same reports identity equality.
func (d Device) Same(other Device) bool { return d.UID == other.UID }

func (d Device) String() string {
	if d.IsNone() {
		return "none"
	}
	return fmt.Sprintf("%s (uid=%s ch=%d)", d.Name, d.UID, d.ChannelCount)
}

// Overlapping trait lists, matched case-insensitively against the display
// name. Unlike the classifier's primary family these may all be true at
// once: AirPods are Bluetooth-like for watchdog grace even though the
// classifier trusts their levels.
var (
	loopbackKeywords   = []string{"blackhole", "soundflower", "loopback", "vb-cable", "monitor of", "virtual"}
	bluetoothKeywords  = []string{"airpods", "beats", "bluetooth", "hands-free", "headset", "buds"}
	displayKeywords    = []string{"display", "ultrafine", "thunderbolt"}
	continuityKeywords = []string{"iphone", "ipad", "continuity"}
	fragileKeywords    = []string{"iphone", "ipad", "continuity", "airpods"}
)

func nameHasAny(name string, keywords []string) bool {
	n := strings.ToLower(name)
	for _, kw := range keywords {
		if strings.Contains(n, kw) {
			return true
		}
	}
	return false
}

// IsVirtualLoopback reports software loopback/capture-routing devices.
func (d Device) IsVirtualLoopback() bool { return nameHasAny(d.Name, loopbackKeywords) }

// IsBluetoothLike reports wireless devices whose audio path comes up
// asynchronously after stream start.
func (d Device) IsBluetoothLike() bool { return nameHasAny(d.Name, bluetoothKeywords) }

// IsDisplayEmbeddedLike reports mics embedded in display panels.
func (d Device) IsDisplayEmbeddedLike() bool { return nameHasAny(d.Name, displayKeywords) }

// IsContinuityLike reports phone/tablet devices acting as host microphones.
func (d Device) IsContinuityLike() bool { return nameHasAny(d.Name, continuityKeywords) }

// IsFragile reports devices that tend to appear first as a placeholder
// stream and need a delayed follow-up restart after selection.
func (d Device) IsFragile() bool { return nameHasAny(d.Name, fragileKeywords) }

// MakeUID derives a stable identifier from the display name. Backend
// indices shift on hot-plug, so identity keys on the normalized name.
func MakeUID(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, n)
	for strings.Contains(n, "--") {
		n = strings.ReplaceAll(n, "--", "-")
	}
	return strings.Trim(n, "-")
}
