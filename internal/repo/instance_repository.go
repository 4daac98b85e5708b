package repo

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/KinkLid/cocBot-sub000/internal/models"
)

type InstanceRepository interface {
	CreateUnique(instance *models.NotificationInstance) (bool, error)
	Exists(ruleID uint, eventKey string) (bool, error)
	ListDue(now time.Time, limit int) ([]models.NotificationInstance, error)
	MarkSent(id uint, sentAt time.Time) error
	MarkFailed(id uint, lastError string) error
	DeleteFinishedBefore(before time.Time) (int64, error)
}

type instanceRepository struct {
	db *gorm.DB
}

func NewInstanceRepository(db *gorm.DB) InstanceRepository {
	return &instanceRepository{db: db}
}

// CreateUnique вставляет материализацию правила под событие. Гарантия
// единственности — уникальный индекс (rule_id, event_key): при конфликте
// вставка молча не происходит, возвращаем false. Предварительный Exists —
// только оптимизация, на него полагаться нельзя.
func (r *instanceRepository) CreateUnique(instance *models.NotificationInstance) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(instance)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *instanceRepository) Exists(ruleID uint, eventKey string) (bool, error) {
	var count int64
	err := r.db.Model(&models.NotificationInstance{}).
		Where("rule_id = ? AND event_key = ?", ruleID, eventKey).
		Count(&count).Error
	return count > 0, err
}

func (r *instanceRepository) ListDue(now time.Time, limit int) ([]models.NotificationInstance, error) {
	var instances []models.NotificationInstance
	err := r.db.Where("status = ? AND fire_at <= ?", models.StatusPending, now).
		Order("fire_at").
		Limit(limit).
		Find(&instances).Error
	return instances, err
}

func (r *instanceRepository) MarkSent(id uint, sentAt time.Time) error {
	return r.db.Model(&models.NotificationInstance{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  models.StatusSent,
			"sent_at": sentAt,
		}).Error
}

func (r *instanceRepository) MarkFailed(id uint, lastError string) error {
	return r.db.Model(&models.NotificationInstance{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.StatusFailed,
			"last_error": lastError,
		}).Error
}

// DeleteFinishedBefore убирает отработанные экземпляры, чей срок
// срабатывания остался в прошлом. Ориентируемся на fire_at: таймеры
// сервиса живут на подменяемых часах, created_at штампует сама БД.
func (r *instanceRepository) DeleteFinishedBefore(before time.Time) (int64, error) {
	res := r.db.Where("status IN ? AND fire_at < ?",
		[]string{models.StatusSent, models.StatusFailed}, before).
		Delete(&models.NotificationInstance{})
	return res.RowsAffected, res.Error
}
