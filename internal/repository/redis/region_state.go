package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Mark-Phillipson/Risk/internal/model"
)

// Key patterns for Redis map state.
func regionsKey(storageKey string) string { return "regions:" + storageKey }
func sessionKey(sessionID string) string  { return "session:" + sessionID + ":alive" }

// SessionIDFromKey extracts the session ID from an expired keep-alive key.
func SessionIDFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, "session:") || !strings.HasSuffix(key, ":alive") {
		return "", false
	}
	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// SaveRegions stores the conquest records for a storage key.
func (c *Client) SaveRegions(ctx context.Context, key string, records []model.RegionRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal regions: %w", err)
	}
	return c.rdb.Set(ctx, regionsKey(key), data, 0).Err()
}

// LoadRegions retrieves the conquest records. A missing key yields nil.
func (c *Client) LoadRegions(ctx context.Context, key string) ([]model.RegionRecord, error) {
	data, err := c.rdb.Get(ctx, regionsKey(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get regions: %w", err)
	}
	var records []model.RegionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshal regions: %w", err)
	}
	return records, nil
}

// ClearRegions deletes the conquest records.
func (c *Client) ClearRegions(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, regionsKey(key)).Err()
}

// TouchSession sets or extends a session's keep-alive key.
func (c *Client) TouchSession(ctx context.Context, sessionID string, ttl time.Duration) error {
	return c.rdb.Set(ctx, sessionKey(sessionID), time.Now().Unix(), ttl).Err()
}

// DropSession removes a session's keep-alive key.
func (c *Client) DropSession(ctx context.Context, sessionID string) error {
	return c.rdb.Del(ctx, sessionKey(sessionID)).Err()
}
