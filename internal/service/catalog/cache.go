package catalog

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// DefaultCategoryTTL — сколько живёт закешированный список активных категорий.
const DefaultCategoryTTL = 60 * time.Second

// categoryCache хранит публичный список категорий до истечения ttl
// или до первой записи в категории.
type categoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	items   []domain.Category
	expires time.Time
}

func (c *categoryCache) get(now time.Time) ([]domain.Category, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil || !now.Before(c.expires) {
		return nil, false
	}
	return append([]domain.Category(nil), c.items...), true
}

func (c *categoryCache) set(items []domain.Category, now time.Time) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(make([]domain.Category, 0, len(items)), items...)
	c.expires = now.Add(c.ttl)
}

func (c *categoryCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}
