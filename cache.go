package marketseed

import (
	"fmt"
	"sync"
	"time"

	"github.com/permadex/marketseed/cache"
	"github.com/permadex/marketseed/schema"
)

// Cache holds the hot read paths: the market info snapshot served on
// every page load, and a bigcache of rendered item payloads. Both are
// refreshed on commit, so stale entries can only be as old as the last
// settlement.
type Cache struct {
	info   schema.MarketInfo
	itemDb *cache.BigCache
	lock   sync.RWMutex
}

func NewCache() *Cache {
	itemDb, err := cache.NewBigCache(10 * time.Minute)
	if err != nil {
		panic(err)
	}
	return &Cache{itemDb: itemDb}
}

func (c *Cache) GetInfo() schema.MarketInfo {
	c.lock.RLock()
	defer c.lock.RUnlock()
	info := c.info
	return info
}

func (c *Cache) UpdateInfo(info schema.MarketInfo) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.info = info
}

func itemCacheKey(itemId uint64) string {
	return fmt.Sprintf("item-%d", itemId)
}

func (c *Cache) GetItem(itemId uint64) ([]byte, bool) {
	data, err := c.itemDb.Get(itemCacheKey(itemId))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *Cache) SetItem(itemId uint64, payload []byte) {
	if err := c.itemDb.Set(itemCacheKey(itemId), payload); err != nil {
		log.Warn("cache item failed", "err", err, "itemId", itemId)
	}
}

// InvalidateItems drops the touched entries after a commit; readers fall
// back to the relational mirror until the cache warms again.
func (c *Cache) InvalidateItems(itemIds ...uint64) {
	for _, id := range itemIds {
		_ = c.itemDb.Delete(itemCacheKey(id))
	}
}
