// Package util holds small helpers shared across packages. It lives in
// internal to avoid committing to public API stability prematurely.
package util

import (
	"math"
	"os"
)

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}

// Getenv returns the value of the environment variable key, or fallback
// when the variable is unset or empty.
func Getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// FirstNonEmpty returns the first non-empty string from values, or "".
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
