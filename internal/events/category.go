package events

import (
	"context"
	"errors"
	"time"

	"github.com/KinkLid/cocBot-sub000/internal/coc"
	"github.com/KinkLid/cocBot-sub000/internal/models"
)

// API — часть клиента Clash of Clans, нужная трекерам
type API interface {
	CurrentWar(ctx context.Context, clanTag string) (*coc.CurrentWar, error)
	LeagueGroup(ctx context.Context, clanTag string) (*coc.LeagueGroup, error)
	LeagueWar(ctx context.Context, warTag string) (*coc.CurrentWar, error)
	CapitalRaidSeasons(ctx context.Context, clanTag string, limit int) ([]coc.RaidSeason, error)
}

// Observation — одно наблюдение: ключ события и его текущее состояние.
// War заполнен для войн и раундов ЛВК, Raid — для рейдов столицы.
type Observation struct {
	Key       string
	State     string
	StartTime *time.Time
	EndTime   *time.Time
	War       *coc.CurrentWar
	Raid      *coc.RaidSeason
}

// Category — одна категория событий. Трекер один на все категории,
// различия собраны здесь: как опрашивать API, какой ключ, какие
// состояния достойны рассылки.
type Category interface {
	Type() string
	Observe(ctx context.Context) ([]Observation, error)
	Notifiable(state string) bool
}

// NormalizeWarState переводит состояние войны из API во внутреннее
func NormalizeWarState(apiState string) string {
	switch apiState {
	case coc.WarStatePreparation:
		return models.StatePreparation
	case coc.WarStateInWar:
		return models.StateInWar
	case coc.WarStateEnded:
		return models.StateWarEnded
	}
	return models.StateUnknown
}

// --- Обычные войны ---

type warCategory struct {
	api     API
	clanTag string
}

func NewWarCategory(api API, clanTag string) Category {
	return &warCategory{api: api, clanTag: clanTag}
}

func (c *warCategory) Type() string { return models.EventWar }

func (c *warCategory) Notifiable(state string) bool {
	switch state {
	case models.StatePreparation, models.StateInWar, models.StateWarEnded:
		return true
	}
	return false
}

func (c *warCategory) Observe(ctx context.Context) ([]Observation, error) {
	war, err := c.api.CurrentWar(ctx, c.clanTag)
	if err != nil {
		return nil, err
	}
	obs, ok := warObservation(war, WarKey(war, c.clanTag))
	if !ok {
		return nil, nil
	}
	return []Observation{obs}, nil
}

// --- Лига клановых войн ---

type cwlCategory struct {
	api     API
	clanTag string
}

func NewCwlCategory(api API, clanTag string) Category {
	return &cwlCategory{api: api, clanTag: clanTag}
}

func (c *cwlCategory) Type() string { return models.EventCwl }

func (c *cwlCategory) Notifiable(state string) bool {
	switch state {
	case models.StatePreparation, models.StateInWar, models.StateWarEnded:
		return true
	}
	return false
}

// Observe обходит раунды группы и собирает войны нашего клана.
// Теги "#0" — жеребьевка раунда еще не прошла, пропускаем.
func (c *cwlCategory) Observe(ctx context.Context) ([]Observation, error) {
	group, err := c.api.LeagueGroup(ctx, c.clanTag)
	if err != nil {
		if errors.Is(err, coc.ErrNotFound) {
			// Вне сезона ЛВК группа отдает 404 — это не ошибка
			return nil, nil
		}
		return nil, err
	}
	if group.State == coc.GroupStateEnded {
		return nil, nil
	}

	var result []Observation
	for _, round := range group.Rounds {
		for _, warTag := range round.WarTags {
			key := CwlWarKey(warTag)
			if key == "" {
				continue
			}
			war, err := c.api.LeagueWar(ctx, warTag)
			if err != nil {
				// Одна недоступная война не должна ронять весь тик
				continue
			}
			if war.Clan.Tag != c.clanTag && war.Opponent.Tag != c.clanTag {
				continue
			}
			if obs, ok := warObservation(war, key); ok {
				result = append(result, obs)
			}
		}
	}
	return result, nil
}

// --- Рейды столицы ---

type capitalCategory struct {
	api     API
	clanTag string
}

func NewCapitalCategory(api API, clanTag string) Category {
	return &capitalCategory{api: api, clanTag: clanTag}
}

func (c *capitalCategory) Type() string { return models.EventCapital }

func (c *capitalCategory) Notifiable(state string) bool {
	return state == models.StateRaidStart || state == models.StateRaidEnded
}

func (c *capitalCategory) Observe(ctx context.Context) ([]Observation, error) {
	seasons, err := c.api.CapitalRaidSeasons(ctx, c.clanTag, 1)
	if err != nil {
		return nil, err
	}
	if len(seasons) == 0 {
		return nil, nil
	}
	season := seasons[0]
	key := RaidKey(&season)
	if key == "" {
		return nil, nil
	}

	state := models.StateRaidStart
	if season.State == coc.RaidStateEnded {
		state = models.StateRaidEnded
	}

	obs := Observation{Key: key, State: state, Raid: &season}
	if t, ok := coc.ParseTime(season.StartTime); ok {
		obs.StartTime = &t
	}
	if t, ok := coc.ParseTime(season.EndTime); ok {
		obs.EndTime = &t
	}
	return []Observation{obs}, nil
}

func warObservation(war *coc.CurrentWar, key string) (Observation, bool) {
	if key == "" {
		return Observation{}, false
	}
	state := NormalizeWarState(war.State)
	if state == models.StateUnknown {
		return Observation{}, false
	}
	obs := Observation{Key: key, State: state, War: war}
	if t, ok := coc.ParseTime(war.StartTime); ok {
		obs.StartTime = &t
	}
	if t, ok := coc.ParseTime(war.EndTime); ok {
		obs.EndTime = &t
	}
	return obs, true
}
