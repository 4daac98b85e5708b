package events

import (
	"fmt"

	"github.com/KinkLid/cocBot-sub000/internal/coc"
)

// Ключ события — стабильный идентификатор одного конкретного события
// (одной войны, одного раунда ЛВК, одного рейдового уикенда). Вся защита
// от повторных уведомлений строится на нем: ключ не меняется, пока событие
// живо, и не переиспользуется между событиями.

// WarKey строит ключ обычной войны. У войн вне лиги тега нет, поэтому
// комбинируем тег своего клана и сырое время начала подготовки.
// Пустая строка — событие еще не определилось, тик надо пропустить.
func WarKey(war *coc.CurrentWar, clanTag string) string {
	if war == nil || war.State == coc.WarStateNotInWar {
		return ""
	}
	if war.WarTag != "" && war.WarTag != "#0" {
		return war.WarTag
	}
	if war.PreparationStartTime == "" {
		return ""
	}
	return fmt.Sprintf("%s@%s", clanTag, war.PreparationStartTime)
}

// CwlWarKey строит ключ раунда ЛВК — это тег самой войны лиги
func CwlWarKey(warTag string) string {
	if warTag == "" || warTag == "#0" {
		return ""
	}
	return warTag
}

// RaidKey строит ключ рейдового уикенда. У рейдов нет тега, сезон
// идентифицируем сырой меткой времени конца уикенда.
func RaidKey(season *coc.RaidSeason) string {
	if season == nil || season.EndTime == "" {
		return ""
	}
	return season.EndTime
}
