package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMediaCache(t *testing.T) {
	c := NewMediaCache()

	_, ok := c.Get("A-1")
	assert.False(t, ok)

	c.Put("A-1", "file-123")
	ref, ok := c.Get("A-1")
	assert.True(t, ok)
	assert.Equal(t, "file-123", ref)

	// Replaced when the transport hands back a new reference
	c.Put("A-1", "file-456")
	ref, _ = c.Get("A-1")
	assert.Equal(t, "file-456", ref)

	c.Drop("A-1")
	_, ok = c.Get("A-1")
	assert.False(t, ok)

	// Dropping an unknown code is a no-op
	c.Drop("B-2")
}
