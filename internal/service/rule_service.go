package service

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KinkLid/cocBot-sub000/internal/events"
	"github.com/KinkLid/cocBot-sub000/internal/models"
	"github.com/KinkLid/cocBot-sub000/internal/repo"
)

// Ошибки конфигурации правил — отбрасываются при создании,
// до диспетчера такое правило не доходит.
var (
	ErrUnknownEventType = errors.New("неизвестная категория события")
	ErrNegativeDelay    = errors.New("задержка не может быть отрицательной")
	ErrNotRuleOwner     = errors.New("правило принадлежит другому владельцу")
	ErrRuleNotFound     = errors.New("правило не найдено")
)

type RuleService interface {
	Create(chatID int64, personal bool, eventType string, delaySeconds int, templateKey, messageText string) (*models.NotificationRule, error)
	GetByID(id uint) (*models.NotificationRule, error)
	ListByChat(chatID int64) ([]models.NotificationRule, error)
	SetEnabled(id uint, requesterChatID int64, isAdmin bool, enabled bool) error
	UpdateDelay(id uint, requesterChatID int64, isAdmin bool, delaySeconds int) error
	UpdateText(id uint, requesterChatID int64, isAdmin bool, messageText string) error
	Delete(id uint, requesterChatID int64, isAdmin bool) error
	Materialize(rule *models.NotificationRule) error
	MaterializeForObservation(eventType string, obs events.Observation)
}

type ruleService struct {
	ruleRepo     repo.RuleRepository
	instanceRepo repo.InstanceRepository
	stateRepo    repo.StateRepository
	settingsRepo repo.SettingsRepository
	now          func() time.Time
}

func NewRuleService(
	ruleRepo repo.RuleRepository,
	instanceRepo repo.InstanceRepository,
	stateRepo repo.StateRepository,
	settingsRepo repo.SettingsRepository,
) RuleService {
	return &ruleService{
		ruleRepo:     ruleRepo,
		instanceRepo: instanceRepo,
		stateRepo:    stateRepo,
		settingsRepo: settingsRepo,
		now:          time.Now,
	}
}

func (s *ruleService) Create(chatID int64, personal bool, eventType string, delaySeconds int, templateKey, messageText string) (*models.NotificationRule, error) {
	if !validEventType(eventType) {
		return nil, ErrUnknownEventType
	}
	if delaySeconds < 0 {
		return nil, ErrNegativeDelay
	}

	rule := &models.NotificationRule{
		ChatID:       chatID,
		Personal:     personal,
		EventType:    eventType,
		DelaySeconds: delaySeconds,
		TemplateKey:  templateKey,
		MessageText:  messageText,
		Enabled:      true,
	}
	if err := s.ruleRepo.Create(rule); err != nil {
		return nil, err
	}

	// Правило сразу применяется к уже идущему событию, если оно есть
	if err := s.Materialize(rule); err != nil {
		logrus.Printf("Материализация правила %d: %v", rule.ID, err)
	}
	return rule, nil
}

func (s *ruleService) GetByID(id uint) (*models.NotificationRule, error) {
	return s.ruleRepo.GetByID(id)
}

func (s *ruleService) ListByChat(chatID int64) ([]models.NotificationRule, error) {
	return s.ruleRepo.ListByChat(chatID)
}

func (s *ruleService) SetEnabled(id uint, requesterChatID int64, isAdmin bool, enabled bool) error {
	rule, err := s.authorize(id, requesterChatID, isAdmin)
	if err != nil {
		return err
	}
	if err := s.ruleRepo.SetEnabled(id, enabled); err != nil {
		return err
	}
	// Повторное включение не создаст дубль: пара (rule_id, event_key)
	// уникальна, уже существующая материализация останется единственной
	if enabled {
		rule.Enabled = true
		if err := s.Materialize(rule); err != nil {
			logrus.Printf("Материализация правила %d: %v", rule.ID, err)
		}
	}
	return nil
}

func (s *ruleService) UpdateDelay(id uint, requesterChatID int64, isAdmin bool, delaySeconds int) error {
	if delaySeconds < 0 {
		return ErrNegativeDelay
	}
	rule, err := s.authorize(id, requesterChatID, isAdmin)
	if err != nil {
		return err
	}
	rule.DelaySeconds = delaySeconds
	return s.ruleRepo.Update(rule)
}

func (s *ruleService) UpdateText(id uint, requesterChatID int64, isAdmin bool, messageText string) error {
	rule, err := s.authorize(id, requesterChatID, isAdmin)
	if err != nil {
		return err
	}
	rule.MessageText = messageText
	return s.ruleRepo.Update(rule)
}

func (s *ruleService) Delete(id uint, requesterChatID int64, isAdmin bool) error {
	if _, err := s.authorize(id, requesterChatID, isAdmin); err != nil {
		return err
	}
	return s.ruleRepo.Delete(id)
}

// Materialize создает отложенное уведомление правила под активное событие
// его категории. Идемпотентна: повторный вызов для той же пары
// (правило, событие) ничего не делает. Время срабатывания считается от
// записанного начала события, не от "сейчас" — правило, добавленное
// посреди войны, выстрелит по расписанию войны (или сразу, если время
// уже прошло).
func (s *ruleService) Materialize(rule *models.NotificationRule) error {
	if rule == nil || !rule.Enabled {
		return nil
	}

	state, err := s.stateRepo.GetActive(rule.EventType)
	if err != nil {
		return err
	}
	if state == nil || state.StartTime == nil {
		// Событие не идет или его начало еще не известно
		return nil
	}

	return s.materialize(rule, state.EventKey, *state.StartTime, events.Observation{})
}

// MaterializeForObservation вызывается трекером на каждом тике с активным
// событием: правила, созданные между тиками, получают свои материализации.
func (s *ruleService) MaterializeForObservation(eventType string, obs events.Observation) {
	if obs.StartTime == nil {
		return
	}

	rules, err := s.ruleRepo.ListEnabledByType(eventType)
	if err != nil {
		logrus.Printf("Материализация: не удалось получить правила %s: %v", eventType, err)
		return
	}
	for i := range rules {
		if err := s.materialize(&rules[i], obs.Key, *obs.StartTime, obs); err != nil {
			logrus.Printf("Материализация правила %d: %v", rules[i].ID, err)
		}
	}
}

func (s *ruleService) materialize(rule *models.NotificationRule, eventKey string, start time.Time, obs events.Observation) error {
	// Быстрая проверка — только чтобы не собирать текст зря.
	// Настоящая гарантия — уникальный индекс при вставке.
	if exists, err := s.instanceRepo.Exists(rule.ID, eventKey); err != nil {
		return err
	} else if exists {
		return nil
	}

	loc := time.UTC
	if settings, err := s.settingsRepo.Get(); err == nil && settings != nil {
		if l, err := time.LoadLocation(settings.Timezone); err == nil {
			loc = l
		}
	}

	instance := &models.NotificationInstance{
		RuleID:    rule.ID,
		EventKey:  eventKey,
		EventType: rule.EventType,
		ChatID:    rule.ChatID,
		FireAt:    start.Add(time.Duration(rule.DelaySeconds) * time.Second).UTC(),
		Status:    models.StatusPending,
		Payload:   renderRulePayload(rule, obs, loc),
	}

	created, err := s.instanceRepo.CreateUnique(instance)
	if err != nil {
		return err
	}
	if created {
		logrus.Printf("Правило %d материализовано под событие %s", rule.ID, eventKey)
	}
	return nil
}

func (s *ruleService) authorize(id uint, requesterChatID int64, isAdmin bool) (*models.NotificationRule, error) {
	rule, err := s.ruleRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, ErrRuleNotFound
	}
	if !isAdmin && rule.ChatID != requesterChatID {
		return nil, ErrNotRuleOwner
	}
	return rule, nil
}

func validEventType(eventType string) bool {
	switch eventType {
	case models.EventWar, models.EventCwl, models.EventCapital:
		return true
	}
	return false
}
