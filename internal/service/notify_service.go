package service

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KinkLid/cocBot-sub000/internal/events"
	"github.com/KinkLid/cocBot-sub000/internal/models"
	"github.com/KinkLid/cocBot-sub000/internal/repo"
	"github.com/KinkLid/cocBot-sub000/internal/telegram"
)

// Дневное окно доставки персональных уведомлений (по часовому поясу клана)
const (
	dayWindowFrom = 8
	dayWindowTo   = 22
)

type NotifyService interface {
	NotifyTransition(eventType string, obs events.Observation)
}

type notifyService struct {
	settingsRepo repo.SettingsRepository
	memberRepo   repo.MemberRepository
	sender       telegram.Sender
	now          func() time.Time
}

func NewNotifyService(
	settingsRepo repo.SettingsRepository,
	memberRepo repo.MemberRepository,
	sender telegram.Sender,
) NotifyService {
	return &notifyService{
		settingsRepo: settingsRepo,
		memberRepo:   memberRepo,
		sender:       sender,
		now:          time.Now,
	}
}

// NotifyTransition рассылает уведомление о смене состояния события:
// одно сообщение в чат клана и по одному каждому подписчику. Сбои
// доставки здесь best-effort: получатели друг от друга изолированы,
// ошибка одного не срывает рассылку остальным.
func (s *notifyService) NotifyTransition(eventType string, obs events.Observation) {
	settings, err := s.settingsRepo.Get()
	if err != nil {
		logrus.Printf("Рассылка: не удалось получить настройки клана: %v", err)
		return
	}

	loc := time.UTC
	if settings != nil {
		if l, err := time.LoadLocation(settings.Timezone); err == nil {
			loc = l
		}
	}

	text := renderTransition(obs, eventType, loc)
	if text == "" {
		return
	}

	// Рассылка в чат клана с учетом переключателя категории
	if settings != nil && settings.ChatID != 0 && broadcastEnabled(settings, eventType) {
		if err := s.sender.Send(settings.ChatID, text); err != nil {
			logrus.Printf("Рассылка: ошибка отправки в чат клана: %v", err)
		}
	}

	// Личные уведомления подписчикам
	subscribers, err := s.memberRepo.ListSubscribers(eventType)
	if err != nil {
		logrus.Printf("Рассылка: не удалось получить подписчиков: %v", err)
		return
	}

	now := s.now().In(loc)
	for _, member := range subscribers {
		if !inWindow(member.NotifyWindow, now) {
			continue
		}
		if err := s.sender.Send(member.TelegramID, text); err != nil {
			if telegram.IsPermanentError(err) {
				// Получатель недоступен навсегда — выключаем доставку
				logrus.Printf("Рассылка: %s недоступен, отключаем уведомления", member.Name)
				if err := s.memberRepo.DisableNotifications(member.ID); err != nil {
					logrus.Printf("Рассылка: не удалось отключить уведомления %s: %v", member.Name, err)
				}
			} else {
				logrus.Printf("Рассылка: ошибка отправки %s: %v", member.Name, err)
			}
		}
	}
}

func broadcastEnabled(settings *models.ClanSettings, eventType string) bool {
	switch eventType {
	case models.EventWar:
		return settings.NotifyWar
	case models.EventCwl:
		return settings.NotifyCwl
	case models.EventCapital:
		return settings.NotifyCapital
	}
	return false
}

func inWindow(window string, now time.Time) bool {
	if window != models.WindowDay {
		return true
	}
	hour := now.Hour()
	return hour >= dayWindowFrom && hour < dayWindowTo
}
