// Package classify turns raw per-buffer levels into UI-ready levels using
// per-device-family heuristics
package classify

import "strings"

// Family is the primary heuristic category for an input device, computed
// once at selection time from the device's display name. Consumer hardware
// lies about its levels in family-specific ways, so the classifier gates
// which corrections apply by family rather than re-matching name substrings
// at every branch.
type Family int

const (
	FamilyGeneric Family = iota
	FamilyTrusted
	FamilyDisplayEmbedded
	FamilyBluetoothHeadset
	FamilyContinuityPhone
	FamilyCameraLike
)

func (f Family) String() string {
	switch f {
	case FamilyTrusted:
		return "trusted"
	case FamilyDisplayEmbedded:
		return "display"
	case FamilyBluetoothHeadset:
		return "bluetooth"
	case FamilyContinuityPhone:
		return "continuity"
	case FamilyCameraLike:
		return "camera"
	default:
		return "generic"
	}
}

// Name fragments per family, matched case-insensitively. Ordering in
// DetectFamily resolves overlaps: a "Studio Display Camera" is a display
// mic, an AirPods headset is trusted despite also being Bluetooth.
var (
	continuityKeywords = []string{"iphone", "ipad", "continuity"}
	displayKeywords    = []string{"display", "ultrafine", "thunderbolt"}
	cameraKeywords     = []string{"camera", "webcam", "facecam", "capture card"}
	bluetoothKeywords  = []string{"bluetooth", "hands-free", "headset", "buds", "earbuds"}
	trustedKeywords    = []string{"usb", "interface", "scarlett", "focusrite", "audient", "built-in", "macbook", "airpods", "beats"}
)

// DetectFamily maps a device display name to its primary family.
func DetectFamily(name string) Family {
	n := strings.ToLower(name)

	match := func(keywords []string) bool {
		for _, kw := range keywords {
			if strings.Contains(n, kw) {
				return true
			}
		}
		return false
	}

	switch {
	case match(continuityKeywords):
		return FamilyContinuityPhone
	case match(displayKeywords):
		return FamilyDisplayEmbedded
	case match(cameraKeywords):
		return FamilyCameraLike
	case match(trustedKeywords):
		return FamilyTrusted
	case match(bluetoothKeywords):
		return FamilyBluetoothHeadset
	default:
		return FamilyGeneric
	}
}
