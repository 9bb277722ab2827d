package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "availability:record:"

// Entry is what the service needs to build an engine without touching Postgres.
type Entry struct {
	SupplierID string          `json:"supplier_id"`
	OwnerID    string          `json:"owner_id"`
	Category   string          `json:"category"`
	Record     json.RawMessage `json:"record,omitempty"`
}

// RecordCache is a read-through cache of supplier availability records. A nil cache is
// valid and behaves as permanently empty. Redis errors are logged and treated as misses.
type RecordCache struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func New(rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger) *RecordCache {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RecordCache{rdb: rdb, ttl: ttl, logger: logger}
}

func Key(supplierID string) string {
	return keyPrefix + supplierID
}

func (c *RecordCache) Get(ctx context.Context, supplierID string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	raw, err := c.rdb.Get(ctx, Key(supplierID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("record cache get failed", "err", err, "supplier_id", supplierID)
		}
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.logger.Warn("record cache entry unreadable", "err", err, "supplier_id", supplierID)
		return Entry{}, false
	}
	return e, true
}

func (c *RecordCache) Set(ctx context.Context, e Entry) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(e)
	if err != nil {
		c.logger.Warn("record cache encode failed", "err", err, "supplier_id", e.SupplierID)
		return
	}
	if err := c.rdb.Set(ctx, Key(e.SupplierID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("record cache set failed", "err", err, "supplier_id", e.SupplierID)
	}
}

func (c *RecordCache) Invalidate(ctx context.Context, supplierIDs ...string) {
	if c == nil || len(supplierIDs) == 0 {
		return
	}
	keys := make([]string, len(supplierIDs))
	for i, id := range supplierIDs {
		keys[i] = Key(id)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("record cache invalidate failed", "err", err, "keys", len(keys))
	}
}

// ReadyCheck pings Redis; it is nil when the cache is disabled.
func (c *RecordCache) ReadyCheck() func(context.Context) error {
	if c == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return c.rdb.Ping(ctx).Err()
	}
}
