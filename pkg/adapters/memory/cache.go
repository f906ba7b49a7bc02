package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/visaguide/pkg/domain"
)

// Cache implements ports.KnowledgeCache in memory.
// Entries live for the lifetime of the process. Safe for concurrent use.
type Cache struct {
	data map[string]*domain.KnowledgeBase
	mu   sync.RWMutex
}

// NewCache creates a new in-memory cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]*domain.KnowledgeBase),
	}
}

// Put stores a deep copy so later mutation by the caller does not leak in.
func (c *Cache) Put(ctx context.Context, visaType string, kb *domain.KnowledgeBase) error {
	copied := kb.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[visaType] = copied
	return nil
}

// Get returns a copy of the cached knowledge base.
func (c *Cache) Get(ctx context.Context, visaType string) (*domain.KnowledgeBase, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	kb, ok := c.data[visaType]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return kb.Clone(), nil
}

// Delete evicts a visa type.
func (c *Cache) Delete(ctx context.Context, visaType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, visaType)
	return nil
}

// List returns the cached visa types in sorted order.
func (c *Cache) List(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	types := make([]string, 0, len(c.data))
	for t := range c.data {
		types = append(types, t)
	}
	sort.Strings(types)
	return types, nil
}
