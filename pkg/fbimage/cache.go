package fbimage

import (
	lru "github.com/hashicorp/golang-lru"
)

// DefaultCacheSize is the number of decoded framebuffers kept by default.
const DefaultCacheSize = 16

// Cache keeps recently decoded framebuffers keyed by call index. Decoding a
// full-screen capture costs tens of milliseconds; scrubbing back and forth
// over a frame revisits the same few images.
type Cache struct {
	images *lru.Cache
}

// NewCache creates a cache holding up to size images.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	images, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{images: images}, nil
}

// Get returns the cached image for a call.
func (c *Cache) Get(callIndex int) (*Image, bool) {
	v, ok := c.images.Get(callIndex)
	if !ok {
		return nil, false
	}
	return v.(*Image), true
}

// Add stores img for a call.
func (c *Cache) Add(callIndex int, img *Image) {
	c.images.Add(callIndex, img)
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	return c.images.Len()
}

// Purge drops every cached image.
func (c *Cache) Purge() {
	c.images.Purge()
}
