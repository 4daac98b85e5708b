package service

import (
	"fmt"
	"time"

	"github.com/KinkLid/cocBot-sub000/internal/events"
	"github.com/KinkLid/cocBot-sub000/internal/models"
)

// Тексты рассылок. Время храним в UTC, в текст подставляем уже в часовом
// поясе клана.

func renderTransition(obs events.Observation, eventType string, loc *time.Location) string {
	switch eventType {
	case models.EventWar, models.EventCwl:
		return renderWarTransition(obs, eventType, loc)
	case models.EventCapital:
		return renderCapitalTransition(obs, loc)
	}
	return ""
}

func renderWarTransition(obs events.Observation, eventType string, loc *time.Location) string {
	prefix := "⚔️ Клановая война"
	if eventType == models.EventCwl {
		prefix = "🏆 Война лиги (ЛВК)"
	}

	opponent := ""
	if obs.War != nil {
		opponent = obs.War.Opponent.Name
	}

	switch obs.State {
	case models.StatePreparation:
		text := fmt.Sprintf("%s: день подготовки!", prefix)
		if opponent != "" {
			text += fmt.Sprintf("\nПротивник: %s", opponent)
		}
		if obs.StartTime != nil {
			text += fmt.Sprintf("\nБой начнется: %s", obs.StartTime.In(loc).Format("02.01 15:04"))
		}
		return text
	case models.StateInWar:
		text := fmt.Sprintf("%s: бой начался!", prefix)
		if opponent != "" {
			text += fmt.Sprintf("\nПротивник: %s", opponent)
		}
		if obs.EndTime != nil {
			text += fmt.Sprintf("\nКонец боя: %s", obs.EndTime.In(loc).Format("02.01 15:04"))
		}
		return text
	case models.StateWarEnded:
		text := fmt.Sprintf("%s: бой завершен.", prefix)
		if obs.War != nil {
			text += fmt.Sprintf("\nСчет: %s %d⭐ — %d⭐ %s",
				obs.War.Clan.Name, obs.War.Clan.Stars,
				obs.War.Opponent.Stars, obs.War.Opponent.Name)
		}
		return text
	}
	return ""
}

func renderCapitalTransition(obs events.Observation, loc *time.Location) string {
	switch obs.State {
	case models.StateRaidStart:
		text := "🏰 Рейдовый уикенд начался!"
		if obs.EndTime != nil {
			text += fmt.Sprintf("\nЗакончится: %s", obs.EndTime.In(loc).Format("02.01 15:04"))
		}
		return text
	case models.StateRaidEnded:
		return "🏰 Рейдовый уикенд завершен. Не забудьте потратить медали!"
	}
	return ""
}

// renderRulePayload — текст отложенного уведомления по правилу.
// Свободный текст правила имеет приоритет над шаблоном.
func renderRulePayload(rule *models.NotificationRule, obs events.Observation, loc *time.Location) string {
	if rule.MessageText != "" {
		return rule.MessageText
	}

	switch rule.TemplateKey {
	case "attack_reminder":
		return "⏰ Напоминание: не забудьте атаковать в войне!"
	case "war_start":
		// Без наблюдения (правило материализовано задним числом)
		// шаблону нечего подставить — падаем на текст по умолчанию
		if text := renderTransition(obs, rule.EventType, loc); text != "" {
			return text
		}
	}

	// Шаблон по умолчанию
	switch rule.EventType {
	case models.EventWar:
		return "⚔️ Напоминание о клановой войне"
	case models.EventCwl:
		return "🏆 Напоминание о войне лиги"
	case models.EventCapital:
		return "🏰 Напоминание о рейдах столицы"
	}
	return "🔔 Напоминание"
}
