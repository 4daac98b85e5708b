package coc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/KinkLid/cocBot-sub000/internal/cache"
)

// CachedClient прозрачно кэширует справочные запросы (профиль игрока,
// состав клана). Запросы о ходе войны/рейдов не кэшируются — трекерам
// нужно свежее состояние.
type CachedClient struct {
	*Client
	cache cache.Cache
	ttl   time.Duration
}

func NewCachedClient(client *Client, c cache.Cache, ttl time.Duration) *CachedClient {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedClient{Client: client, cache: c, ttl: ttl}
}

func (c *CachedClient) Player(ctx context.Context, playerTag string) (*Player, error) {
	key := "coc:player:" + playerTag
	if raw, ok := c.cache.Get(ctx, key); ok {
		var player Player
		if err := json.Unmarshal([]byte(raw), &player); err == nil {
			return &player, nil
		}
	}

	player, err := c.Client.Player(ctx, playerTag)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(player); err == nil {
		_ = c.cache.Set(ctx, key, string(raw), c.ttl)
	}
	return player, nil
}

func (c *CachedClient) ClanMembers(ctx context.Context, clanTag string) ([]ClanMember, error) {
	key := "coc:members:" + clanTag
	if raw, ok := c.cache.Get(ctx, key); ok {
		var members []ClanMember
		if err := json.Unmarshal([]byte(raw), &members); err == nil {
			return members, nil
		}
	}

	members, err := c.Client.ClanMembers(ctx, clanTag)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(members); err == nil {
		_ = c.cache.Set(ctx, key, string(raw), c.ttl)
	}
	return members, nil
}
