package player

import "math"

// MaxVolume is the highest volume level a backend accepts.
const MaxVolume = 100

// ClampVolume limits level to 0..MaxVolume.
func ClampVolume(level int) int {
	return min(max(level, 0), MaxVolume)
}

// levelToVolume converts a 0-100 level to beep's Volume value.
// beep uses a logarithmic scale where Volume is in "decibels" with base 2.
// Volume = 0 means no change, -1 = half volume, -2 = quarter, etc.
// We map: 100 -> 0, 50 -> -1, 25 -> -2, 0 -> -10 (essentially silent)
func levelToVolume(level int) float64 {
	if level <= 0 {
		return -10
	}
	if level >= MaxVolume {
		return 0
	}
	return math.Log2(float64(level) / MaxVolume)
}
