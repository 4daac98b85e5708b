package repo

import (
	"gorm.io/gorm"

	"github.com/KinkLid/cocBot-sub000/internal/models"
)

type MemberRepository interface {
	Create(member *models.Member) error
	GetByTelegramID(telegramID int64) (*models.Member, error)
	GetByTag(playerTag string) (*models.Member, error)
	ListAll() ([]models.Member, error)
	ListSubscribers(eventType string) ([]models.Member, error)
	Update(member *models.Member) error
	DisableNotifications(id uint) error
	Delete(id uint) error
}

type memberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Create(member *models.Member) error {
	return r.db.Create(member).Error
}

func (r *memberRepository) GetByTelegramID(telegramID int64) (*models.Member, error) {
	var member models.Member
	err := r.db.Where("telegram_id = ?", telegramID).First(&member).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) GetByTag(playerTag string) (*models.Member, error) {
	var member models.Member
	err := r.db.Where("player_tag = ?", playerTag).First(&member).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) ListAll() ([]models.Member, error) {
	var members []models.Member
	err := r.db.Order("name").Find(&members).Error
	return members, err
}

// ListSubscribers возвращает участников с включенной личной доставкой
// для категории. Фильтр по окну доставки — забота сервиса рассылки.
func (r *memberRepository) ListSubscribers(eventType string) ([]models.Member, error) {
	column := map[string]string{
		models.EventWar:     "notify_war",
		models.EventCwl:     "notify_cwl",
		models.EventCapital: "notify_capital",
	}[eventType]
	if column == "" {
		return nil, nil
	}

	var members []models.Member
	err := r.db.Where("notify_enabled = ? AND "+column+" = ?", true, true).
		Find(&members).Error
	return members, err
}

func (r *memberRepository) Update(member *models.Member) error {
	return r.db.Save(member).Error
}

// DisableNotifications выключает личную доставку участнику, который
// заблокировал бота — больше не пытаемся.
func (r *memberRepository) DisableNotifications(id uint) error {
	return r.db.Model(&models.Member{}).
		Where("id = ?", id).
		Update("notify_enabled", false).Error
}

func (r *memberRepository) Delete(id uint) error {
	return r.db.Where("id = ?", id).Delete(&models.Member{}).Error
}
