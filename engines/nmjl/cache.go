package nmjl

import (
	"container/list"
	"sync"
	"time"
)

const (
	defaultCacheTTL        = 5 * time.Minute
	defaultCacheMaxEntries = 50
)

type cacheEntry struct {
	key      string
	analysis *HandAnalysis
	storedAt time.Time
}

// resultCache 编排器的分析结果缓存
// TTL 过期 + 条目上限，超限时按最旧先逐出；读写都并发安全
type resultCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    map[string]*list.Element
	order      *list.List // 队首最旧
}

func newResultCache(ttl time.Duration, maxEntries int) *resultCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = defaultCacheMaxEntries
	}
	return &resultCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]*list.Element, maxEntries),
		order:      list.New(),
	}
}

// get 命中返回缓存的分析结果，过期条目顺手删除
func (c *resultCache) get(key string) (*HandAnalysis, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if time.Since(entry.storedAt) > c.ttl {
		c.order.Remove(elem)
		delete(c.entries, key)
		return nil, false
	}
	return entry.analysis, true
}

// store 写入条目，重复写视为最新插入
func (c *resultCache) store(key string, analysis *HandAnalysis) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.analysis = analysis
		entry.storedAt = time.Now()
		c.order.MoveToBack(elem)
		return
	}

	for c.order.Len() >= c.maxEntries {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}

	c.entries[key] = c.order.PushBack(&cacheEntry{
		key:      key,
		analysis: analysis,
		storedAt: time.Now(),
	})
}

func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *resultCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element, c.maxEntries)
	c.order.Init()
}
