package cache_test

import (
	"testing"
	"time"

	"github.com/venueops/venue-insights/internal/domain"
	"github.com/venueops/venue-insights/internal/infra/cache"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[*domain.InsightsReport](5 * time.Minute)

	report := &domain.InsightsReport{ReportID: "r-1"}
	c.Set("report:2025-02-15", report)

	got, ok := c.Get("report:2025-02-15")
	if !ok {
		t.Fatal("expected cached report")
	}
	if got.ReportID != "r-1" {
		t.Errorf("expected report r-1, got %q", got.ReportID)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[*domain.InsightsReport](5 * time.Minute)

	if _, ok := c.Get("report:2025-01-01"); ok {
		t.Fatal("expected miss for key never set")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)

	c.Set("k", "v")
	time.Sleep(100 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected entry to expire after TTL")
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("k", "v")
	c.Delete("k")

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected entry to be gone after delete")
	}
}

func TestCache_OverwriteAndLen(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("k", "first")
	c.Set("k", "second")
	c.Set("other", "x")

	if got, _ := c.Get("k"); got != "second" {
		t.Errorf("expected latest value, got %q", got)
	}
	if c.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", c.Len())
	}
}
