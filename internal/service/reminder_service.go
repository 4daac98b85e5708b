package service

import (
	"errors"
	"time"

	"github.com/KinkLid/cocBot-sub000/internal/models"
	"github.com/KinkLid/cocBot-sub000/internal/repo"
)

var ErrNoEndTime = errors.New("время конца события еще не известно")

// ReminderService — разовые напоминания в чат клана, привязанные к
// текущему событию. Если событие закончится раньше, трекер их отменит.
type ReminderService interface {
	ScheduleBeforeEnd(eventType string, before time.Duration, text string, chatID int64) (*models.ReminderMessage, error)
	ListPendingForActive(eventType string) ([]models.ReminderMessage, error)
}

type reminderService struct {
	reminderRepo repo.ReminderRepository
	stateRepo    repo.StateRepository
	now          func() time.Time
}

func NewReminderService(reminderRepo repo.ReminderRepository, stateRepo repo.StateRepository) ReminderService {
	return &reminderService{
		reminderRepo: reminderRepo,
		stateRepo:    stateRepo,
		now:          time.Now,
	}
}

// ScheduleBeforeEnd ставит напоминание за before до конца активного
// события. Если расчетное время уже прошло, напоминание выстрелит на
// ближайшем тике диспетчера.
func (s *reminderService) ScheduleBeforeEnd(eventType string, before time.Duration, text string, chatID int64) (*models.ReminderMessage, error) {
	state, err := s.stateRepo.GetActive(eventType)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrNoActiveEvent
	}
	if state.EndTime == nil {
		return nil, ErrNoEndTime
	}

	reminder := &models.ReminderMessage{
		EventType:   eventType,
		EventKey:    state.EventKey,
		ChatID:      chatID,
		FireAt:      state.EndTime.Add(-before).UTC(),
		MessageText: text,
		Status:      models.StatusPending,
	}
	if err := s.reminderRepo.Create(reminder); err != nil {
		return nil, err
	}
	return reminder, nil
}

func (s *reminderService) ListPendingForActive(eventType string) ([]models.ReminderMessage, error) {
	state, err := s.stateRepo.GetActive(eventType)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, nil
	}
	return s.reminderRepo.ListPendingByEvent(eventType, state.EventKey)
}
