package coc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/KinkLid/cocBot-sub000/internal/cache"
)

func TestCachedClient_PlayerServedFromCache(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"tag": "#P1", "name": "Вася", "townHallLevel": 14})
	}))
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	redisCache, err := cache.NewRedisCache(mr.Addr(), "")
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	t.Cleanup(func() { _ = redisCache.Close() })

	c := NewCachedClient(NewClient(srv.URL, "test-token", 5*time.Second), redisCache, time.Minute)

	for i := 0; i < 3; i++ {
		player, err := c.Player(context.Background(), "#P1")
		if err != nil {
			t.Fatalf("Player: %v", err)
		}
		if player.Name != "Вася" || player.TownHallLvl != 14 {
			t.Fatalf("игрок: %+v", player)
		}
	}
	// Первый запрос в API, остальные — из кэша
	if got := hits.Load(); got != 1 {
		t.Fatalf("запросов к API %d, ожидали 1", got)
	}

	// Истекший TTL — снова поход в API
	mr.FastForward(2 * time.Minute)
	if _, err := c.Player(context.Background(), "#P1"); err != nil {
		t.Fatalf("Player: %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("запросов к API после TTL %d, ожидали 2", got)
	}
}

func TestCachedClient_NoopCacheAlwaysFetches(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []map[string]any{{"tag": "#P1", "name": "Вася"}}})
	}))
	t.Cleanup(srv.Close)

	c := NewCachedClient(NewClient(srv.URL, "test-token", 5*time.Second), cache.NewNoopCache(), time.Minute)

	for i := 0; i < 2; i++ {
		members, err := c.ClanMembers(context.Background(), "#CLAN")
		if err != nil {
			t.Fatalf("ClanMembers: %v", err)
		}
		if len(members) != 1 || members[0].Name != "Вася" {
			t.Fatalf("состав: %+v", members)
		}
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("запросов к API %d, ожидали 2", got)
	}
}
