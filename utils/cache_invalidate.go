package utils

import (
	"context"

	"github.com/redis/go-redis/v9"
)

type CacheInvalidator struct{ rdb *redis.Client }

func NewCacheInvalidator(rdb *redis.Client) *CacheInvalidator { return &CacheInvalidator{rdb} }

// PurgeEvents drops every cached event response: lists, items, the monthly
// directory views. Registrations change roster counts, so any event mutation
// invalidates the whole namespace.
func (ci *CacheInvalidator) PurgeEvents(ctx context.Context) {
	iter := ci.rdb.Scan(ctx, 0, "cache:events:*", 0).Iterator()
	for iter.Next(ctx) {
		_ = ci.rdb.Del(ctx, iter.Val()).Err()
	}
}
