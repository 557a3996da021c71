package catalog

import (
	"sync"

	"github.com/motoshop/catalog/pkg/facet"
)

// IndexCache memoizes the attribute index of every category page for one version
// of the product collection. Stateless requests share it.
type IndexCache struct {
	mu         sync.Mutex
	source     ProductProvider
	defaultMax float64
	version    uint64
	indexes    map[string]*facet.AttributeIndex
}

func NewIndexCache(source ProductProvider, defaultMax float64) *IndexCache {
	return &IndexCache{
		source:     source,
		defaultMax: defaultMax,
		indexes:    map[string]*facet.AttributeIndex{},
	}
}

// Get returns the index of the page, building it when the collection version
// moved since it was cached.
func (c *IndexCache) Get(cfg CategoryConfig) *facet.AttributeIndex {
	products, version := c.source.Products()
	c.mu.Lock()
	defer c.mu.Unlock()
	if version != c.version {
		c.indexes = map[string]*facet.AttributeIndex{}
		c.version = version
	}
	if idx, ok := c.indexes[cfg.Key]; ok {
		return idx
	}
	idx := cfg.BuildIndex(products, c.defaultMax)
	c.indexes[cfg.Key] = idx
	return idx
}

// Reset drops every cached index.
func (c *IndexCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.indexes = map[string]*facet.AttributeIndex{}
}

func (c *IndexCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.indexes)
}
