package service

import (
	"errors"
	"time"

	"github.com/KinkLid/cocBot-sub000/internal/models"
	"github.com/KinkLid/cocBot-sub000/internal/repo"
)

var (
	ErrNoActiveEvent = errors.New("сейчас нет активного события")
	ErrBadPosition   = errors.New("некорректная позиция")
)

// ClaimService — брони позиций противника. Ровно одна бронь на позицию
// в пределах одной войны; гонки разруливает уникальный индекс в БД.
type ClaimService interface {
	Claim(eventType string, position int, member *models.Member, externalName string) (*models.TargetClaim, error)
	Release(claimID uint, requester *models.Member) error
	ListForActive(eventType string) ([]models.TargetClaim, string, error)
	PurgeOlderThan(maxAge time.Duration) (int64, error)
}

type claimService struct {
	claimRepo repo.ClaimRepository
	stateRepo repo.StateRepository
	now       func() time.Time
}

func NewClaimService(claimRepo repo.ClaimRepository, stateRepo repo.StateRepository) ClaimService {
	return &claimService{
		claimRepo: claimRepo,
		stateRepo: stateRepo,
		now:       time.Now,
	}
}

// Claim бронирует позицию за участником (или за внешним именем, если
// бронь ставит админ за не зарегистрированного в боте игрока).
// Конфликт — ожидаемый исход, не системная ошибка: вернется
// repo.ErrAlreadyClaimed, и вызывающий покажет "занято".
func (s *claimService) Claim(eventType string, position int, member *models.Member, externalName string) (*models.TargetClaim, error) {
	if position <= 0 {
		return nil, ErrBadPosition
	}

	state, err := s.stateRepo.GetActive(eventType)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrNoActiveEvent
	}

	claim := &models.TargetClaim{
		EventType:    eventType,
		EventKey:     state.EventKey,
		Position:     position,
		ClaimantName: externalName,
		ClaimedAt:    s.now().UTC(),
	}
	if member != nil {
		claim.MemberID = &member.ID
		claim.ClaimantName = member.Name
	}

	if err := s.claimRepo.Create(claim); err != nil {
		return nil, err
	}
	return claim, nil
}

// Release снимает бронь. Снять может сам владелец или админ. Снятие уже
// снятой (или несуществующей) брони — не ошибка.
func (s *claimService) Release(claimID uint, requester *models.Member) error {
	claim, err := s.claimRepo.GetByID(claimID)
	if err != nil {
		return err
	}
	if claim == nil {
		return nil
	}

	allowed := requester != nil && requester.IsAdmin
	if !allowed && requester != nil && claim.MemberID != nil && *claim.MemberID == requester.ID {
		allowed = true
	}
	if !allowed {
		return repo.ErrNotClaimant
	}

	_, err = s.claimRepo.Delete(claimID)
	return err
}

// ListForActive возвращает брони текущего события категории и его ключ
func (s *claimService) ListForActive(eventType string) ([]models.TargetClaim, string, error) {
	state, err := s.stateRepo.GetActive(eventType)
	if err != nil {
		return nil, "", err
	}
	if state == nil {
		return nil, "", ErrNoActiveEvent
	}

	claims, err := s.claimRepo.ListByEvent(eventType, state.EventKey)
	return claims, state.EventKey, err
}

// PurgeOlderThan удаляет брони давно прошедших событий. Чистка — вопрос
// гигиены, не корректности: дубль все равно невозможен из-за смены ключа.
func (s *claimService) PurgeOlderThan(maxAge time.Duration) (int64, error) {
	return s.claimRepo.DeleteClaimedBefore(s.now().UTC().Add(-maxAge))
}
