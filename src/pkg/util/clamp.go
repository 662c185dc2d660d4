package util

import (
	"cmp"
	"math"
)

// Clamp limits v to [lo, hi].
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// ClampIndex limits a coordinate to [0, n-1]; out of range reads repeat the edge.
func ClampIndex(i, n int) int {
	return Clamp(i, 0, n-1)
}

// SaturateUint8 rounds v half away from zero and saturates it into 0..255.
func SaturateUint8(v float64) uint8 {
	return uint8(Clamp(math.Round(v), 0, 255))
}
