// Package cache is the best-effort Redis balance read cache. Every failure
// degrades to a miss or a no-op with a log line; the cache sits outside the
// atomic unit and is invalidated by post-commit hooks.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"famledger/internal/model"
)

type BalanceCache struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewBalanceCache(rdb *redis.Client, log *slog.Logger) *BalanceCache {
	if log == nil {
		log = slog.Default()
	}
	return &BalanceCache{rdb: rdb, log: log}
}

func key(memberID string, resource model.ResourceType) string {
	return fmt.Sprintf("balance:%s:%s", memberID, resource)
}

func (c *BalanceCache) Get(ctx context.Context, memberID string, resource model.ResourceType) (*model.Balance, bool) {
	data, err := c.rdb.Get(ctx, key(memberID, resource)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("balance cache read failed", "member_id", memberID, "error", err)
		}
		return nil, false
	}

	var b model.Balance
	if err := json.Unmarshal(data, &b); err != nil {
		c.log.Warn("balance cache entry corrupt", "member_id", memberID, "error", err)
		return nil, false
	}
	return &b, true
}

func (c *BalanceCache) Put(ctx context.Context, b *model.Balance) {
	data, err := json.Marshal(b)
	if err != nil {
		return
	}
	// No TTL: entries live until the next write invalidates them.
	if err := c.rdb.Set(ctx, key(b.MemberID, b.ResourceType), data, 0).Err(); err != nil {
		c.log.Warn("balance cache write failed", "member_id", b.MemberID, "error", err)
	}
}

func (c *BalanceCache) Invalidate(ctx context.Context, memberID string, resource model.ResourceType) {
	if err := c.rdb.Del(ctx, key(memberID, resource)).Err(); err != nil {
		c.log.Warn("balance cache invalidate failed", "member_id", memberID, "error", err)
	}
}
