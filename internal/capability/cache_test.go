package capability

import (
	"path/filepath"
	"testing"
	"time"
)

func TestCache_GetEmptyBeforeRefresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capabilities.db")
	c, err := OpenCache(path, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("OpenCache failed: %v", err)
	}
	defer c.Close()

	if _, ok := c.Get(); ok {
		t.Error("expected no capabilities before first Refresh")
	}
}

func TestCache_RefreshPopulatesHandle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capabilities.db")
	c, err := OpenCache(path, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("OpenCache failed: %v", err)
	}
	defer c.Close()

	if _, err := c.Refresh(time.Now()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	caps, ok := c.Get()
	if !ok {
		t.Fatal("expected capabilities after Refresh")
	}
	if caps.Platform == "" {
		t.Error("expected a populated platform after Refresh")
	}
}

func TestCache_SurvivesReopenWithinTTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capabilities.db")
	now := time.Now()

	c1, err := OpenCache(path, time.Hour, now)
	if err != nil {
		t.Fatalf("OpenCache failed: %v", err)
	}
	if _, err := c1.Refresh(now); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if err := c1.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	c2, err := OpenCache(path, time.Hour, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("reopening OpenCache failed: %v", err)
	}
	defer c2.Close()
	if _, ok := c2.Get(); !ok {
		t.Error("expected cached capabilities to survive reopen within TTL")
	}
}

func TestCache_ExpiredEntryNotLoaded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capabilities.db")
	now := time.Now()

	c1, err := OpenCache(path, time.Minute, now)
	if err != nil {
		t.Fatalf("OpenCache failed: %v", err)
	}
	if _, err := c1.Refresh(now); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if err := c1.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	c2, err := OpenCache(path, time.Minute, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("reopening OpenCache failed: %v", err)
	}
	defer c2.Close()
	if _, ok := c2.Get(); ok {
		t.Error("expected expired cache entry to not be loaded")
	}
}
