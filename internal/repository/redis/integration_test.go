//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/Mark-Phillipson/Risk/internal/model"
	"github.com/Mark-Phillipson/Risk/internal/testutil"
)

func setup(t *testing.T) *Client {
	t.Helper()
	rdb := testutil.SetupRedis(t)
	testutil.CleanupRedis(t, rdb)
	return &Client{rdb: rdb}
}

func TestRegionsRoundTrip(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	key := model.ModeCountries.StorageKey()

	records := []model.RegionRecord{
		{Code: "FRA", IsConquered: true, Owner: "Alice", Color: "#ff0000", Capital: "Paris"},
		{Code: "DEU", IsConquered: false},
	}
	if err := c.SaveRegions(ctx, key, records); err != nil {
		t.Fatalf("save regions: %v", err)
	}

	got, err := c.LoadRegions(ctx, key)
	if err != nil {
		t.Fatalf("load regions: %v", err)
	}
	if len(got) != 2 || got[0] != records[0] || got[1] != records[1] {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestRegionsNotFound(t *testing.T) {
	c := setup(t)
	got, err := c.LoadRegions(context.Background(), "missing")
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestClearRegions(t *testing.T) {
	c := setup(t)
	ctx := context.Background()
	key := model.ModeKentTowns.StorageKey()

	if err := c.SaveRegions(ctx, key, []model.RegionRecord{{Code: "E1", IsConquered: true}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := c.ClearRegions(ctx, key); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, _ := c.LoadRegions(ctx, key)
	if len(got) != 0 {
		t.Errorf("expected no records after clear, got %d", len(got))
	}
}

func TestSessionKeepAliveExpires(t *testing.T) {
	c := setup(t)
	ctx := context.Background()

	if err := c.TouchSession(ctx, "s1", time.Second); err != nil {
		t.Fatalf("touch: %v", err)
	}
	ttl, err := c.rdb.TTL(ctx, sessionKey("s1")).Result()
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl <= 0 || ttl > time.Second {
		t.Errorf("expected ttl within 1s, got %v", ttl)
	}
	if err := c.DropSession(ctx, "s1"); err != nil {
		t.Fatalf("drop: %v", err)
	}
	n, _ := c.rdb.Exists(ctx, sessionKey("s1")).Result()
	if n != 0 {
		t.Error("expected keep-alive key removed")
	}
}
