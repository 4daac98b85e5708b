package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/KinkLid/cocBot-sub000/internal/events"
	"github.com/KinkLid/cocBot-sub000/internal/models"
	"github.com/KinkLid/cocBot-sub000/internal/repo"
)

// TrackerService следит за одной категорией событий: на каждом тике
// сравнивает наблюдаемое состояние с сохраненным и рассылает уведомления
// ровно по одному разу на переход.
type TrackerService interface {
	Tick(ctx context.Context) error
}

type trackerService struct {
	category     events.Category
	stateRepo    repo.StateRepository
	reminderRepo repo.ReminderRepository
	notifySvc    NotifyService
	ruleSvc      RuleService
}

func NewTrackerService(
	category events.Category,
	stateRepo repo.StateRepository,
	reminderRepo repo.ReminderRepository,
	notifySvc NotifyService,
	ruleSvc RuleService,
) TrackerService {
	return &trackerService{
		category:     category,
		stateRepo:    stateRepo,
		reminderRepo: reminderRepo,
		notifySvc:    notifySvc,
		ruleSvc:      ruleSvc,
	}
}

// Tick — один опрос API. Ошибка сети или API состояние в БД не трогает:
// просто попробуем на следующем тике.
func (s *trackerService) Tick(ctx context.Context) error {
	observations, err := s.category.Observe(ctx)
	if err != nil {
		logrus.Printf("Трекер %s: API недоступен: %v", s.category.Type(), err)
		return nil
	}

	for _, obs := range observations {
		if obs.Key == "" {
			continue
		}
		if err := s.processObservation(obs); err != nil {
			logrus.Printf("Трекер %s: событие %s: %v", s.category.Type(), obs.Key, err)
		}
	}
	return nil
}

func (s *trackerService) processObservation(obs events.Observation) error {
	eventType := s.category.Type()

	record, err := s.stateRepo.GetByKey(eventType, obs.Key)
	if err != nil {
		return err
	}

	// Первое наблюдение события. Состояние было истинным еще до того, как
	// бот его увидел — рассылать о нем нечестно, просто запоминаем.
	if record == nil {
		record = &models.EventState{
			EventType:         eventType,
			EventKey:          obs.Key,
			CurrentState:      obs.State,
			LastNotifiedState: obs.State,
			StartTime:         obs.StartTime,
			EndTime:           obs.EndTime,
		}
		if err := s.stateRepo.Create(record); err != nil {
			return err
		}
		s.materializeIfActive(obs)
		return nil
	}

	if obs.State == record.CurrentState {
		// Перехода нет, но событие может быть активно — правила,
		// добавленные между тиками, материализуем и здесь
		s.materializeIfActive(obs)
		return nil
	}

	if err := s.stateRepo.UpdateCurrentState(record.ID, obs.State, obs.EndTime); err != nil {
		return err
	}

	// Рассылаем только о состоянии строго старше уже объявленного.
	// Дребезг API (откат при неизменном ключе) сюда не проходит: откат
	// не двигает last_notified_state, и возврат к уже объявленному
	// состоянию не дает второй рассылки.
	forward := models.StateRank(obs.State) > models.StateRank(record.LastNotifiedState)
	if forward && s.category.Notifiable(obs.State) {
		s.notifySvc.NotifyTransition(eventType, obs)
		// last_notified_state двигаем только после попытки рассылки
		if err := s.stateRepo.MarkNotified(record.ID, obs.State); err != nil {
			return err
		}
	}

	s.materializeIfActive(obs)

	// Конец войны: висящие напоминания события больше не актуальны
	if obs.State == models.StateWarEnded || obs.State == models.StateRaidEnded {
		canceled, err := s.reminderRepo.CancelByEvent(eventType, obs.Key)
		if err != nil {
			return err
		}
		if canceled > 0 {
			logrus.Printf("Трекер %s: отменено напоминаний: %d", eventType, canceled)
		}
	}
	return nil
}

func (s *trackerService) materializeIfActive(obs events.Observation) {
	switch obs.State {
	case models.StatePreparation, models.StateInWar, models.StateRaidStart:
		s.ruleSvc.MaterializeForObservation(s.category.Type(), obs)
	}
}
