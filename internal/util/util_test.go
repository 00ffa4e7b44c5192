package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	assert.Equal(t, 0.001234, Round(0.0012336, 6))
	assert.Equal(t, 1.5, Round(1.4999999, 6))
	assert.Equal(t, 0.0, Round(0, 6))
	assert.Equal(t, 3.14, Round(3.14159, 2))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", FirstNonEmpty("", "b", "c"))
	assert.Equal(t, "", FirstNonEmpty("", ""))
}

func TestGetenv(t *testing.T) {
	t.Setenv("UTIL_TEST_KEY", "set")
	assert.Equal(t, "set", Getenv("UTIL_TEST_KEY", "fb"))
	assert.Equal(t, "fb", Getenv("UTIL_TEST_KEY_MISSING", "fb"))
}
