package repo

import (
	"time"

	"gorm.io/gorm"

	"github.com/KinkLid/cocBot-sub000/internal/models"
)

type StateRepository interface {
	GetByKey(eventType, eventKey string) (*models.EventState, error)
	Create(state *models.EventState) error
	UpdateCurrentState(id uint, state string, endTime *time.Time) error
	MarkNotified(id uint, state string) error
	GetActive(eventType string) (*models.EventState, error)
}

type stateRepository struct {
	db *gorm.DB
}

func NewStateRepository(db *gorm.DB) StateRepository {
	return &stateRepository{db: db}
}

func (r *stateRepository) GetByKey(eventType, eventKey string) (*models.EventState, error) {
	var state models.EventState
	err := r.db.Where("event_type = ? AND event_key = ?", eventType, eventKey).First(&state).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

func (r *stateRepository) Create(state *models.EventState) error {
	return r.db.Create(state).Error
}

func (r *stateRepository) UpdateCurrentState(id uint, state string, endTime *time.Time) error {
	updates := map[string]interface{}{
		"current_state": state,
		"updated_at":    time.Now().UTC(),
	}
	if endTime != nil {
		updates["end_time"] = endTime.UTC()
	}
	return r.db.Model(&models.EventState{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// MarkNotified двигает last_notified_state. Вызывается строго после того,
// как попытка рассылки для этого состояния завершилась.
func (r *stateRepository) MarkNotified(id uint, state string) error {
	return r.db.Model(&models.EventState{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_notified_state": state,
			"updated_at":          time.Now().UTC(),
		}).Error
}

// GetActive возвращает последнее незавершенное событие категории —
// по нему материализуются правила, добавленные посреди войны.
func (r *stateRepository) GetActive(eventType string) (*models.EventState, error) {
	var state models.EventState
	err := r.db.Where("event_type = ? AND current_state NOT IN ?",
		eventType, []string{models.StateWarEnded, models.StateRaidEnded}).
		Order("updated_at DESC").
		First(&state).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}
