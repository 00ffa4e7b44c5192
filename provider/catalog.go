package provider

import "sync"

// Catalog is a concurrency-safe cache of model id -> description, shared by
// every instance of a backend family so the remote model list is fetched at
// most once per process. A failed fetch is not cached, letting a later call
// retry.
type Catalog struct {
	mu      sync.Mutex
	models  map[string]string
	fetched bool
}

// NewCatalog constructs an empty, unfetched catalog.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Load returns the cached model set, fetching it via fetch on first use.
// When fetch fails or yields an empty set, Load returns fallback and leaves
// the catalog unfetched.
func (c *Catalog) Load(fetch func() (map[string]string, error), fallback map[string]string) map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetched {
		return copyModels(c.models)
	}
	models, err := fetch()
	if err != nil || len(models) == 0 {
		return copyModels(fallback)
	}
	c.models = models
	c.fetched = true
	return copyModels(models)
}

// Cached reports the current cache contents without triggering a fetch.
func (c *Catalog) Cached() (map[string]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyModels(c.models), c.fetched
}

func copyModels(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
