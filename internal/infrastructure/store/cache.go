package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PublishedCache persists the last value published to MQTT for each
// (host, attribute) pair, so a bridge restart doesn't mistake "I don't
// remember publishing this" for "this changed" and flood the broker with
// redundant retained-topic writes. The diff is made against this table
// directly; there is no separate in-memory copy.
type PublishedCache struct {
	db *DB
}

// NewPublishedCache wraps an open DB as a last-published-value cache.
func NewPublishedCache(db *DB) *PublishedCache {
	return &PublishedCache{db: db}
}

// cachedValue is the JSON envelope stored in the value column, so the
// cache round-trips any JSON-serializable attribute value (string, number,
// bool, or nil) without a schema per attribute type.
type cachedValue struct {
	Value any `json:"value"`
}

// Get returns the last published value for one attribute of one device, and
// whether a cached value exists at all.
func (c *PublishedCache) Get(ctx context.Context, host, attribute string) (any, bool, error) {
	var raw string
	err := c.db.QueryRowContext(ctx,
		`SELECT value FROM last_published_cache WHERE host = ? AND attribute = ?`,
		host, attribute,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying last published value: %w", err)
	}

	var cv cachedValue
	if err := json.Unmarshal([]byte(raw), &cv); err != nil {
		return nil, false, fmt.Errorf("decoding cached value for %s/%s: %w", host, attribute, err)
	}
	return cv.Value, true, nil
}

// GetAll returns every cached attribute value for one device host, keyed by
// attribute name.
func (c *PublishedCache) GetAll(ctx context.Context, host string) (map[string]any, error) {
	rows, err := c.db.DB.QueryContext(ctx,
		`SELECT attribute, value FROM last_published_cache WHERE host = ?`,
		host,
	)
	if err != nil {
		return nil, fmt.Errorf("querying last published values: %w", err)
	}
	defer rows.Close()

	out := make(map[string]any)
	for rows.Next() {
		var attribute, raw string
		if err := rows.Scan(&attribute, &raw); err != nil {
			return nil, fmt.Errorf("scanning cached value row: %w", err)
		}
		var cv cachedValue
		if err := json.Unmarshal([]byte(raw), &cv); err != nil {
			return nil, fmt.Errorf("decoding cached value for %s/%s: %w", host, attribute, err)
		}
		out[attribute] = cv.Value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cached values: %w", err)
	}
	return out, nil
}

// Set records the value just published to MQTT for one attribute of one
// device, overwriting any prior cached value.
func (c *PublishedCache) Set(ctx context.Context, host, attribute string, value any) error {
	raw, err := json.Marshal(cachedValue{Value: value})
	if err != nil {
		return fmt.Errorf("encoding value for %s/%s: %w", host, attribute, err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO last_published_cache (host, attribute, value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (host, attribute) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		host, attribute, string(raw), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("storing last published value: %w", err)
	}
	return nil
}

// Prune removes every cached entry for a device host, e.g. when a device is
// removed from the managed fleet.
func (c *PublishedCache) Prune(ctx context.Context, host string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM last_published_cache WHERE host = ?`, host)
	if err != nil {
		return fmt.Errorf("pruning cached values for %s: %w", host, err)
	}
	return nil
}
