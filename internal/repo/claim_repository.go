package repo

import (
	"time"

	"gorm.io/gorm"

	"github.com/KinkLid/cocBot-sub000/internal/models"
)

type ClaimRepository interface {
	Create(claim *models.TargetClaim) error
	GetByID(id uint) (*models.TargetClaim, error)
	GetByPosition(eventType, eventKey string, position int) (*models.TargetClaim, error)
	ListByEvent(eventType, eventKey string) ([]models.TargetClaim, error)
	ListByMember(memberID uint) ([]models.TargetClaim, error)
	Delete(id uint) (bool, error)
	DeleteClaimedBefore(before time.Time) (int64, error)
}

type claimRepository struct {
	db *gorm.DB
}

func NewClaimRepository(db *gorm.DB) ClaimRepository {
	return &claimRepository{db: db}
}

// Create — одна атомарная вставка под уникальным индексом
// (event_type, event_key, position). При гонке выигрывает ровно одна
// вставка, остальные получают ErrAlreadyClaimed. Никаких select-ов до
// вставки: судья — только констрейнт.
func (r *claimRepository) Create(claim *models.TargetClaim) error {
	if err := r.db.Create(claim).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyClaimed
		}
		return err
	}
	return nil
}

func (r *claimRepository) GetByID(id uint) (*models.TargetClaim, error) {
	var claim models.TargetClaim
	err := r.db.Where("id = ?", id).First(&claim).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &claim, nil
}

func (r *claimRepository) GetByPosition(eventType, eventKey string, position int) (*models.TargetClaim, error) {
	var claim models.TargetClaim
	err := r.db.Where("event_type = ? AND event_key = ? AND position = ?",
		eventType, eventKey, position).First(&claim).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &claim, nil
}

func (r *claimRepository) ListByEvent(eventType, eventKey string) ([]models.TargetClaim, error) {
	var claims []models.TargetClaim
	err := r.db.Where("event_type = ? AND event_key = ?", eventType, eventKey).
		Order("position").
		Find(&claims).Error
	return claims, err
}

func (r *claimRepository) ListByMember(memberID uint) ([]models.TargetClaim, error) {
	var claims []models.TargetClaim
	err := r.db.Where("member_id = ?", memberID).Find(&claims).Error
	return claims, err
}

// Delete снимает бронь. Повторное снятие — не ошибка: вернется false.
func (r *claimRepository) Delete(id uint) (bool, error) {
	res := r.db.Where("id = ?", id).Delete(&models.TargetClaim{})
	return res.RowsAffected > 0, res.Error
}

func (r *claimRepository) DeleteClaimedBefore(before time.Time) (int64, error) {
	res := r.db.Where("claimed_at < ?", before).Delete(&models.TargetClaim{})
	return res.RowsAffected, res.Error
}
