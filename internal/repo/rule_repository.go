package repo

import (
	"gorm.io/gorm"

	"github.com/KinkLid/cocBot-sub000/internal/models"
)

type RuleRepository interface {
	Create(rule *models.NotificationRule) error
	GetByID(id uint) (*models.NotificationRule, error)
	ListByChat(chatID int64) ([]models.NotificationRule, error)
	ListEnabledByType(eventType string) ([]models.NotificationRule, error)
	Update(rule *models.NotificationRule) error
	SetEnabled(id uint, enabled bool) error
	Delete(id uint) error
}

type ruleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) RuleRepository {
	return &ruleRepository{db: db}
}

func (r *ruleRepository) Create(rule *models.NotificationRule) error {
	return r.db.Create(rule).Error
}

func (r *ruleRepository) GetByID(id uint) (*models.NotificationRule, error) {
	var rule models.NotificationRule
	err := r.db.Where("id = ?", id).First(&rule).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

func (r *ruleRepository) ListByChat(chatID int64) ([]models.NotificationRule, error) {
	var rules []models.NotificationRule
	err := r.db.Where("chat_id = ?", chatID).Order("id").Find(&rules).Error
	return rules, err
}

func (r *ruleRepository) ListEnabledByType(eventType string) ([]models.NotificationRule, error) {
	var rules []models.NotificationRule
	err := r.db.Where("event_type = ? AND enabled = ?", eventType, true).Find(&rules).Error
	return rules, err
}

func (r *ruleRepository) Update(rule *models.NotificationRule) error {
	return r.db.Save(rule).Error
}

func (r *ruleRepository) SetEnabled(id uint, enabled bool) error {
	return r.db.Model(&models.NotificationRule{}).
		Where("id = ?", id).
		Update("enabled", enabled).Error
}

func (r *ruleRepository) Delete(id uint) error {
	return r.db.Where("id = ?", id).Delete(&models.NotificationRule{}).Error
}
