package service

import "sync"

// MediaCache remembers the transport-side media reference (for
// example a messenger file id) for a product code, so the presenter
// can resend a photo instantly instead of re-downloading it.
type MediaCache struct {
	mu   sync.RWMutex
	refs map[string]string
}

// NewMediaCache creates an empty media reference cache
func NewMediaCache() *MediaCache {
	return &MediaCache{refs: make(map[string]string)}
}

// Put stores the media reference for a code, replacing any prior one
func (c *MediaCache) Put(code, ref string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refs[code] = ref
}

// Get returns the cached reference for a code, if any
func (c *MediaCache) Get(code string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ref, ok := c.refs[code]
	return ref, ok
}

// Drop removes a reference that the transport rejected as stale
func (c *MediaCache) Drop(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.refs, code)
}
