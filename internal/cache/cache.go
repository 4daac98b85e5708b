package cache

import (
	"context"
	"time"
)

// Cache — кэш ответов справочных запросов к API (профили игроков, состав
// клана). API жестко лимитирован по частоте, поэтому повторные запросы из
// меню бота ходят в кэш, а не в сеть.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// NoopCache — заглушка, когда Redis не настроен
type NoopCache struct{}

func NewNoopCache() *NoopCache { return &NoopCache{} }

func (c *NoopCache) Get(ctx context.Context, key string) (string, bool) { return "", false }

func (c *NoopCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return nil
}
