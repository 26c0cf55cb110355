// Package scoring turns scraped fragments into synthetic SEO metrics.
// Every metric is derived from a string hash or from on-page signals, so
// the same input always yields the same output.
package scoring

import "math"

// Hash folds s into a 32-bit value with h = h*31 + rune, wrapping on overflow
func Hash(s string) int32 {
	var h int32
	for _, r := range s {
		h = (h << 5) - h + int32(r)
	}
	return h
}

// absHash is |Hash(s)| computed in 64 bits so MinInt32 stays positive
func absHash(s string) int64 {
	h := int64(Hash(s))
	if h < 0 {
		return -h
	}
	return h
}

// Clamp bounds v to [lo, hi]
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// Band maps s into [0, n) by its hash
func Band(s string, n int) int {
	if n <= 0 {
		return 0
	}
	return int(absHash(s) % int64(n))
}
