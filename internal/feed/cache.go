package feed

import (
	"container/list"
	"sync"
	"time"
	"unreadwatch/internal/domain"
)

const sampleCacheMaxEntries = 64

type sampleCache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List
	ttl        time.Duration
	maxEntries int
}

type sampleCacheEntry struct {
	feedURL   string
	sample    domain.UnreadSample
	expiresAt time.Time
}

func newSampleCache(ttl time.Duration, maxEntries int) *sampleCache {
	if ttl <= 0 || maxEntries <= 0 {
		return nil
	}

	return &sampleCache{
		entries:    make(map[string]*list.Element, maxEntries),
		order:      list.New(),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

func (c *sampleCache) get(feedURL string, now time.Time) (domain.UnreadSample, bool) {
	if c == nil || feedURL == "" {
		return domain.UnreadSample{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[feedURL]
	if !ok {
		return domain.UnreadSample{}, false
	}

	entry, ok := elem.Value.(*sampleCacheEntry)
	if !ok {
		return domain.UnreadSample{}, false
	}

	if !now.Before(entry.expiresAt) {
		c.removeElement(elem)

		return domain.UnreadSample{}, false
	}

	c.order.MoveToFront(elem)

	return entry.sample, true
}

func (c *sampleCache) set(feedURL string, sample domain.UnreadSample, now time.Time) {
	if c == nil || feedURL == "" {
		return
	}

	expiresAt := now.Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[feedURL]; ok {
		entry, castOk := elem.Value.(*sampleCacheEntry)
		if !castOk {
			return
		}

		entry.sample = sample
		entry.expiresAt = expiresAt
		c.order.MoveToFront(elem)

		return
	}

	elem := c.order.PushFront(&sampleCacheEntry{
		feedURL:   feedURL,
		sample:    sample,
		expiresAt: expiresAt,
	})
	c.entries[feedURL] = elem

	c.evictExpiredLocked(now)
	c.enforceSizeLimitLocked()
}

func (c *sampleCache) clear() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element, c.maxEntries)
	c.order.Init()
}

func (c *sampleCache) evictExpiredLocked(now time.Time) {
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()

		entry, ok := elem.Value.(*sampleCacheEntry)
		if ok && !now.Before(entry.expiresAt) {
			c.removeElement(elem)
		}

		elem = prev
	}
}

func (c *sampleCache) enforceSizeLimitLocked() {
	for len(c.entries) > c.maxEntries {
		elem := c.order.Back()
		if elem == nil {
			return
		}
		c.removeElement(elem)
	}
}

func (c *sampleCache) removeElement(elem *list.Element) {
	entry, ok := elem.Value.(*sampleCacheEntry)
	if !ok {
		return
	}

	delete(c.entries, entry.feedURL)
	c.order.Remove(elem)
}
