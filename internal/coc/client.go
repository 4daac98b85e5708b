package coc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/sirupsen/logrus"
)

// Ошибки API, которые важно различать в логах. Для трекеров обе — временные:
// состояние в БД не трогаем, пробуем на следующем тике.
var (
	ErrForbidden   = errors.New("coc: доступ запрещен (403)")
	ErrRateLimited = errors.New("coc: превышен лимит запросов (429)")
	ErrNotFound    = errors.New("coc: не найдено (404)")
)

// Client — клиент read-only API Clash of Clans
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// CurrentWar возвращает текущую войну клана
func (c *Client) CurrentWar(ctx context.Context, clanTag string) (*CurrentWar, error) {
	var war CurrentWar
	path := fmt.Sprintf("/clans/%s/currentwar", url.PathEscape(clanTag))
	if err := c.getJSON(ctx, path, &war); err != nil {
		return nil, err
	}
	return &war, nil
}

// LeagueGroup возвращает группу ЛВК текущего сезона
func (c *Client) LeagueGroup(ctx context.Context, clanTag string) (*LeagueGroup, error) {
	var group LeagueGroup
	path := fmt.Sprintf("/clans/%s/currentwar/leaguegroup", url.PathEscape(clanTag))
	if err := c.getJSON(ctx, path, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// LeagueWar возвращает одну войну ЛВК по ее тегу
func (c *Client) LeagueWar(ctx context.Context, warTag string) (*CurrentWar, error) {
	var war CurrentWar
	path := fmt.Sprintf("/clanwarleagues/wars/%s", url.PathEscape(warTag))
	if err := c.getJSON(ctx, path, &war); err != nil {
		return nil, err
	}
	if war.WarTag == "" {
		war.WarTag = warTag
	}
	return &war, nil
}

// CapitalRaidSeasons возвращает последние рейдовые уикенды (первый — самый свежий)
func (c *Client) CapitalRaidSeasons(ctx context.Context, clanTag string, limit int) ([]RaidSeason, error) {
	var resp raidSeasonsResponse
	path := fmt.Sprintf("/clans/%s/capitalraidseasons?limit=%d", url.PathEscape(clanTag), limit)
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// ClanMembers возвращает текущий состав клана
func (c *Client) ClanMembers(ctx context.Context, clanTag string) ([]ClanMember, error) {
	var resp clanMembersResponse
	path := fmt.Sprintf("/clans/%s/members", url.PathEscape(clanTag))
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Player возвращает профиль игрока по тегу
func (c *Client) Player(ctx context.Context, playerTag string) (*Player, error) {
	var player Player
	path := fmt.Sprintf("/players/%s", url.PathEscape(playerTag))
	if err := c.getJSON(ctx, path, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

// VerifyToken проверяет API-токен игрока (подтверждение владения аккаунтом)
func (c *Client) VerifyToken(ctx context.Context, playerTag, token string) (bool, error) {
	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return false, err
	}
	var result VerifyTokenResult
	path := fmt.Sprintf("/players/%s/verifytoken", url.PathEscape(playerTag))
	if err := c.doJSON(ctx, http.MethodPost, path, strings.NewReader(string(body)), &result); err != nil {
		return false, err
	}
	return result.Status == "ok", nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

// doJSON выполняет запрос с повторами. 403 не повторяем (неверный токен или
// закрытый журнал войн), 429 и 5xx — повторяем с экспоненциальной паузой.
func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, out any) error {
	var payload []byte
	if body != nil {
		b, err := io.ReadAll(body)
		if err != nil {
			return err
		}
		payload = b
	}

	return retry.Do(
		func() error {
			var rd io.Reader
			if payload != nil {
				rd = strings.NewReader(string(payload))
			}
			req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Authorization", "Bearer "+c.token)
			req.Header.Set("Accept", "application/json")
			if payload != nil {
				req.Header.Set("Content-Type", "application/json")
			}

			resp, err := c.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusOK:
			case http.StatusForbidden:
				logrus.Printf("CoC API: 403 на %s", path)
				return retry.Unrecoverable(ErrForbidden)
			case http.StatusTooManyRequests:
				logrus.Printf("CoC API: 429 на %s, ждем", path)
				return ErrRateLimited
			case http.StatusNotFound:
				return retry.Unrecoverable(ErrNotFound)
			default:
				return fmt.Errorf("coc: HTTP %d на %s", resp.StatusCode, path)
			}

			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("coc: разбор ответа %s: %w", path, err))
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(15*time.Second),
		retry.MaxJitter(2*time.Second),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
}
