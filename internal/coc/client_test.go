package coc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestClient_CurrentWar(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.EscapedPath() != "/clans/%23CLAN/currentwar" {
			t.Errorf("путь = %q", r.URL.EscapedPath())
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"state":                "inWar",
			"preparationStartTime": "20260815T070000.000Z",
			"endTime":              "20260817T070000.000Z",
			"clan":                 map[string]any{"tag": "#CLAN", "name": "Наш клан", "stars": 12},
			"opponent":             map[string]any{"tag": "#ENEMY", "name": "Противник", "stars": 9},
		})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "test-token", 5*time.Second)
	war, err := c.CurrentWar(context.Background(), "#CLAN")
	if err != nil {
		t.Fatalf("CurrentWar: %v", err)
	}
	if war.State != WarStateInWar || war.Opponent.Name != "Противник" {
		t.Fatalf("война: %+v", war)
	}
}

func TestClient_NotFoundIsNotRetried(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "test-token", 5*time.Second)
	_, err := c.LeagueGroup(context.Background(), "#CLAN")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("ошибка = %v, ожидали ErrNotFound", err)
	}
	// Вне сезона ЛВК группа всегда 404 — повторы бессмысленны
	if got := attempts.Load(); got != 1 {
		t.Fatalf("попыток %d, ожидали 1", got)
	}
}

func TestClient_ForbiddenIsNotRetried(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "bad-token", 5*time.Second)
	_, err := c.Player(context.Background(), "#P1")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("ошибка = %v, ожидали ErrForbidden", err)
	}
	if got := attempts.Load(); got != 1 {
		t.Fatalf("попыток %d, ожидали 1", got)
	}
}

func TestClient_RateLimitIsRetried(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"tag": "#P1", "name": "Вася"})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "test-token", 5*time.Second)
	player, err := c.Player(context.Background(), "#P1")
	if err != nil {
		t.Fatalf("Player: %v", err)
	}
	if player.Name != "Вася" {
		t.Fatalf("игрок: %+v", player)
	}
	if got := attempts.Load(); got != 2 {
		t.Fatalf("попыток %d, ожидали 2", got)
	}
}

func TestClient_VerifyToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("метод = %q", r.Method)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		status := "invalid"
		if body["token"] == "tok123" {
			status = "ok"
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"tag": "#P1", "token": body["token"], "status": status})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "test-token", 5*time.Second)

	ok, err := c.VerifyToken(context.Background(), "#P1", "tok123")
	if err != nil || !ok {
		t.Fatalf("VerifyToken(правильный) = (%v, %v)", ok, err)
	}
	ok, err = c.VerifyToken(context.Background(), "#P1", "wrong")
	if err != nil || ok {
		t.Fatalf("VerifyToken(неправильный) = (%v, %v)", ok, err)
	}
}
