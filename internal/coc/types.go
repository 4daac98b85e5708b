package coc

// Состояния, которые отдает API Clash of Clans
const (
	WarStateNotInWar    = "notInWar"
	WarStatePreparation = "preparation"
	WarStateInWar       = "inWar"
	WarStateEnded       = "warEnded"

	GroupStatePreparation = "preparation"
	GroupStateInWar       = "inWar"
	GroupStateEnded       = "ended"

	RaidStateOngoing = "ongoing"
	RaidStateEnded   = "ended"
)

// WarMember — участник войны на одной из сторон
type WarMember struct {
	Tag         string `json:"tag"`
	Name        string `json:"name"`
	MapPosition int    `json:"mapPosition"`
	TownhallLvl int    `json:"townhallLevel"`
}

// WarClan — сторона войны
type WarClan struct {
	Tag     string      `json:"tag"`
	Name    string      `json:"name"`
	Stars   int         `json:"stars"`
	Attacks int         `json:"attacks"`
	Members []WarMember `json:"members"`
}

// CurrentWar — текущая война клана (или раунд ЛВК по тегу войны)
type CurrentWar struct {
	State                string  `json:"state"`
	WarTag               string  `json:"warTag,omitempty"`
	TeamSize             int     `json:"teamSize"`
	PreparationStartTime string  `json:"preparationStartTime"`
	StartTime            string  `json:"startTime"`
	EndTime              string  `json:"endTime"`
	Clan                 WarClan `json:"clan"`
	Opponent             WarClan `json:"opponent"`
}

// LeagueRound — один раунд ЛВК, теги войн заполняются по мере жеребьевки ("#0" — еще нет)
type LeagueRound struct {
	WarTags []string `json:"warTags"`
}

// LeagueGroup — группа лиги клановых войн
type LeagueGroup struct {
	State  string        `json:"state"`
	Season string        `json:"season"`
	Rounds []LeagueRound `json:"rounds"`
}

// RaidSeason — один рейдовый уикенд столицы
type RaidSeason struct {
	State     string `json:"state"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type raidSeasonsResponse struct {
	Items []RaidSeason `json:"items"`
}

// ClanMember — участник клана из списка /members
type ClanMember struct {
	Tag      string `json:"tag"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Trophies int    `json:"trophies"`
}

type clanMembersResponse struct {
	Items []ClanMember `json:"items"`
}

// Player — профиль игрока
type Player struct {
	Tag          string `json:"tag"`
	Name         string `json:"name"`
	TownHallLvl  int    `json:"townHallLevel"`
	ExpLevel     int    `json:"expLevel"`
	Trophies     int    `json:"trophies"`
	BestTrophies int    `json:"bestTrophies"`
	WarStars     int    `json:"warStars"`
	Donations    int    `json:"donations"`
	Received     int    `json:"donationsReceived"`
	Clan         struct {
		Tag  string `json:"tag"`
		Name string `json:"name"`
	} `json:"clan"`
}

// VerifyTokenResult — результат проверки API-токена игрока
type VerifyTokenResult struct {
	Tag    string `json:"tag"`
	Token  string `json:"token"`
	Status string `json:"status"` // "ok" или "invalid"
}
