package feed

import (
	"testing"
	"time"
	"unreadwatch/internal/domain"
)

func TestSampleCacheGetSet(t *testing.T) {
	cache := newSampleCache(30*time.Second, 2)
	if cache == nil {
		t.Fatalf("expected cache instance")
	}

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	cache.set("u0", domain.UnreadSample{AccountKey: "a@example.com", Count: 3}, now)

	sample, ok := cache.get("u0", now.Add(29*time.Second))
	if !ok {
		t.Fatalf("expected cached sample to be present")
	}

	if sample.Count != 3 || sample.AccountKey != "a@example.com" {
		t.Fatalf("unexpected sample: %+v", sample)
	}
}

func TestSampleCacheExpiresAtTTL(t *testing.T) {
	cache := newSampleCache(30*time.Second, 2)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	cache.set("u0", domain.UnreadSample{Count: 1}, now)

	if _, ok := cache.get("u0", now.Add(30*time.Second)); ok {
		t.Fatalf("expected cache entry to expire")
	}

	if len(cache.entries) != 0 {
		t.Fatalf("expected expired cache entry to be removed")
	}
}

func TestSampleCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache := newSampleCache(time.Minute, 2)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	cache.set("a", domain.UnreadSample{Count: 1}, now)
	cache.set("b", domain.UnreadSample{Count: 2}, now)

	if _, ok := cache.get("a", now); !ok {
		t.Fatalf("expected entry a to exist before eviction check")
	}

	cache.set("c", domain.UnreadSample{Count: 3}, now)

	if _, ok := cache.get("a", now); !ok {
		t.Fatalf("expected entry a to remain after evicting least recently used")
	}

	if _, ok := cache.get("b", now); ok {
		t.Fatalf("expected entry b to be evicted")
	}
}

func TestSampleCacheDisabledIsNil(t *testing.T) {
	cache := newSampleCache(0, 2)
	if cache != nil {
		t.Fatalf("expected nil cache for zero TTL")
	}

	cache.set("a", domain.UnreadSample{Count: 1}, time.Now())

	if _, ok := cache.get("a", time.Now()); ok {
		t.Fatalf("expected nil cache to miss")
	}
}
