package store

import (
	"context"
	"testing"
)

func openTestCache(t *testing.T) *PublishedCache {
	t.Helper()
	db := openTestDB(t)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE last_published_cache (
			host       TEXT NOT NULL,
			attribute  TEXT NOT NULL,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (host, attribute)
		)`); err != nil {
		t.Fatalf("creating last_published_cache table: %v", err)
	}

	return NewPublishedCache(db)
}

func TestPublishedCacheGetMiss(t *testing.T) {
	c := openTestCache(t)
	_, ok, err := c.Get(context.Background(), "192.168.1.42", "mode")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true for an unset attribute, want false")
	}
}

func TestPublishedCacheSetThenGet(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "192.168.1.42", "mode", "Sleep"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := c.Get(ctx, "192.168.1.42", "mode")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false after Set()")
	}
	if got != "Sleep" {
		t.Errorf("Get() = %v, want Sleep", got)
	}
}

func TestPublishedCacheSetOverwrites(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "192.168.1.42", "humidity", 40.0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Set(ctx, "192.168.1.42", "humidity", 55.0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := c.Get(ctx, "192.168.1.42", "humidity")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false after overwrite")
	}
	if got != 55.0 {
		t.Errorf("Get() = %v, want 55", got)
	}
}

func TestPublishedCacheGetAll(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "192.168.1.42", "mode", "Auto"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Set(ctx, "192.168.1.42", "power_status", "ON"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Set(ctx, "192.168.1.99", "mode", "Sleep"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	all, err := c.GetAll(ctx, "192.168.1.42")
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("GetAll() returned %d entries, want 2: %v", len(all), all)
	}
	if all["mode"] != "Auto" || all["power_status"] != "ON" {
		t.Errorf("GetAll() = %v, want mode=Auto power_status=ON", all)
	}
}

func TestPublishedCachePrune(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "192.168.1.42", "mode", "Auto"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Prune(ctx, "192.168.1.42"); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}

	_, ok, err := c.Get(ctx, "192.168.1.42", "mode")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true after Prune(), want false")
	}
}

func TestPublishedCacheRoundTripsNil(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "192.168.1.42", "error", nil); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := c.Get(ctx, "192.168.1.42", "error")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false after Set(nil)")
	}
	if got != nil {
		t.Errorf("Get() = %v, want nil", got)
	}
}
