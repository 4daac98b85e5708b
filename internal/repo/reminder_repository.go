package repo

import (
	"time"

	"gorm.io/gorm"

	"github.com/KinkLid/cocBot-sub000/internal/models"
)

type ReminderRepository interface {
	Create(reminder *models.ReminderMessage) error
	ListDue(now time.Time, limit int) ([]models.ReminderMessage, error)
	ListPendingByEvent(eventType, eventKey string) ([]models.ReminderMessage, error)
	MarkSent(id uint, sentAt time.Time) error
	MarkFailed(id uint, lastError string) error
	CancelByEvent(eventType, eventKey string) (int64, error)
}

type reminderRepository struct {
	db *gorm.DB
}

func NewReminderRepository(db *gorm.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

func (r *reminderRepository) Create(reminder *models.ReminderMessage) error {
	return r.db.Create(reminder).Error
}

func (r *reminderRepository) ListDue(now time.Time, limit int) ([]models.ReminderMessage, error) {
	var reminders []models.ReminderMessage
	err := r.db.Where("status = ? AND fire_at <= ?", models.StatusPending, now).
		Order("fire_at").
		Limit(limit).
		Find(&reminders).Error
	return reminders, err
}

func (r *reminderRepository) ListPendingByEvent(eventType, eventKey string) ([]models.ReminderMessage, error) {
	var reminders []models.ReminderMessage
	err := r.db.Where("event_type = ? AND event_key = ? AND status = ?",
		eventType, eventKey, models.StatusPending).
		Find(&reminders).Error
	return reminders, err
}

func (r *reminderRepository) MarkSent(id uint, sentAt time.Time) error {
	return r.db.Model(&models.ReminderMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  models.StatusSent,
			"sent_at": sentAt,
		}).Error
}

func (r *reminderRepository) MarkFailed(id uint, lastError string) error {
	return r.db.Model(&models.ReminderMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.StatusFailed,
			"last_error": lastError,
		}).Error
}

// CancelByEvent массово отменяет невыстрелившие напоминания события —
// война закончилась раньше, чем они стали бы актуальны.
func (r *reminderRepository) CancelByEvent(eventType, eventKey string) (int64, error) {
	res := r.db.Model(&models.ReminderMessage{}).
		Where("event_type = ? AND event_key = ? AND status = ?",
			eventType, eventKey, models.StatusPending).
		Update("status", models.StatusCanceled)
	return res.RowsAffected, res.Error
}
