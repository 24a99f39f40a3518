package frame

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

var (
	ErrMissingAsset = errors.New("reference to undefined asset")
	ErrAssetRead    = errors.New("asset could not be read")
)

// AssetStore resolves a slug to the raw bytes of an overlay asset.
type AssetStore interface {
	Load(slug string) ([]byte, error)
}

// FileStore maps slugs to files on disk.
type FileStore map[string]string

func (s FileStore) Load(slug string) ([]byte, error) {
	path, ok := s[slug]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingAsset, slug)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrAssetRead, slug, err)
	}
	return data, nil
}

// AssetCache holds loaded asset bytes. Inserts happen on the sequential
// stage, reads on the composition workers.
type AssetCache struct {
	mu     sync.RWMutex
	assets map[string][]byte
}

func NewAssetCache() *AssetCache {
	return &AssetCache{assets: make(map[string][]byte)}
}

func (c *AssetCache) Get(slug string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.assets[slug]
	return data, ok
}

func (c *AssetCache) Has(slug string) bool {
	_, ok := c.Get(slug)
	return ok
}

// Put stores data for slug unless an entry already exists. It reports
// whether data was stored.
func (c *AssetCache) Put(slug string, data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.assets[slug]; ok {
		return false
	}
	c.assets[slug] = data
	return true
}

func (c *AssetCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.assets)
}
