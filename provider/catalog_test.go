package provider

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalogFetchesOnce(t *testing.T) {
	c := NewCatalog()
	calls := 0
	fetch := func() (map[string]string, error) {
		calls++
		return map[string]string{"m1": "first model"}, nil
	}

	got := c.Load(fetch, nil)
	assert.Equal(t, map[string]string{"m1": "first model"}, got)

	got = c.Load(fetch, nil)
	assert.Equal(t, map[string]string{"m1": "first model"}, got)
	assert.Equal(t, 1, calls)
}

func TestCatalogFallsBackAndRetries(t *testing.T) {
	c := NewCatalog()
	fallback := map[string]string{"static": "static model"}
	calls := 0
	fetch := func() (map[string]string, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("unreachable")
		}
		return map[string]string{"live": "live model"}, nil
	}

	got := c.Load(fetch, fallback)
	assert.Equal(t, fallback, got)
	_, fetched := c.Cached()
	assert.False(t, fetched)

	// Failed fetch is not cached, so the next Load retries.
	got = c.Load(fetch, fallback)
	assert.Equal(t, map[string]string{"live": "live model"}, got)
	assert.Equal(t, 2, calls)
}

func TestCatalogCopiesResults(t *testing.T) {
	c := NewCatalog()
	got := c.Load(func() (map[string]string, error) {
		return map[string]string{"m": "desc"}, nil
	}, nil)

	got["m"] = "mutated"

	again, fetched := c.Cached()
	assert.True(t, fetched)
	assert.Equal(t, "desc", again["m"])
}
