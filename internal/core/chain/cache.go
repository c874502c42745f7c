package chain

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// blockCache provides fast access to recently read blocks so receipt and
// transaction lookups do not decode the same record repeatedly.
type blockCache struct {
	mu sync.Mutex

	recent *lru.Cache[uint64, *blockRecord]

	hits   uint64
	misses uint64
}

func newBlockCache(size int) (*blockCache, error) {
	if size <= 0 {
		size = 256
	}
	recent, err := lru.New[uint64, *blockRecord](size)
	if err != nil {
		return nil, err
	}
	return &blockCache{recent: recent}, nil
}

func (c *blockCache) get(number uint64) (*blockRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, found := c.recent.Get(number)
	if found {
		c.hits++
		return rec, true
	}
	c.misses++
	return nil, false
}

func (c *blockCache) add(rec *blockRecord) {
	c.recent.Add(rec.Block.Number, rec)
}

// removeFrom evicts every cached block numbered at or above number.
func (c *blockCache) removeFrom(number uint64) {
	for _, n := range c.recent.Keys() {
		if n >= number {
			c.recent.Remove(n)
		}
	}
}

// CacheStats reports block cache effectiveness.
type CacheStats struct {
	Size   int
	Hits   uint64
	Misses uint64
}

func (c *blockCache) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Size: c.recent.Len(), Hits: c.hits, Misses: c.misses}
}
