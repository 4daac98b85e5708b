package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KinkLid/cocBot-sub000/internal/repo"
)

// CleanupService подчищает данные давно прошедших событий: старые брони
// и отработавшие уведомления. Ограниченное хранение, не корректность —
// дубли исключены уникальными индексами и без чистки.
type CleanupService interface {
	Tick(ctx context.Context) error
}

type cleanupService struct {
	claimSvc     ClaimService
	instanceRepo repo.InstanceRepository
	maxAge       time.Duration
	now          func() time.Time
}

func NewCleanupService(claimSvc ClaimService, instanceRepo repo.InstanceRepository, maxAge time.Duration) CleanupService {
	if maxAge <= 0 {
		maxAge = 14 * 24 * time.Hour
	}
	return &cleanupService{
		claimSvc:     claimSvc,
		instanceRepo: instanceRepo,
		maxAge:       maxAge,
		now:          time.Now,
	}
}

func (s *cleanupService) Tick(ctx context.Context) error {
	claims, err := s.claimSvc.PurgeOlderThan(s.maxAge)
	if err != nil {
		return err
	}

	instances, err := s.instanceRepo.DeleteFinishedBefore(s.now().UTC().Add(-s.maxAge))
	if err != nil {
		return err
	}

	if claims > 0 || instances > 0 {
		logrus.Printf("Чистка: удалено броней %d, уведомлений %d", claims, instances)
	}
	return nil
}
