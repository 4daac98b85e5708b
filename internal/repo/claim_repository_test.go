package repo_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/KinkLid/cocBot-sub000/internal/models"
	"github.com/KinkLid/cocBot-sub000/internal/repo"
	"github.com/KinkLid/cocBot-sub000/internal/testkit"
)

func TestClaimRepository_RaceForPosition(t *testing.T) {
	t.Parallel()

	db := testkit.OpenTestDB(t)
	claimRepo := repo.NewClaimRepository(db)

	// Десять участников одновременно бронируют одну позицию.
	// Выиграть должен ровно один, остальные получают ErrAlreadyClaimed.
	const racers = 10
	var wg sync.WaitGroup
	results := make(chan error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			memberID := uint(n + 1)
			results <- claimRepo.Create(&models.TargetClaim{
				EventType:    models.EventWar,
				EventKey:     "#WAR1",
				Position:     3,
				MemberID:     &memberID,
				ClaimantName: "racer",
				ClaimedAt:    time.Now().UTC(),
			})
		}(i)
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, repo.ErrAlreadyClaimed):
			conflicts++
		default:
			t.Fatalf("неожиданная ошибка: %v", err)
		}
	}
	if wins != 1 || conflicts != racers-1 {
		t.Fatalf("побед %d, конфликтов %d; ожидали 1 и %d", wins, conflicts, racers-1)
	}

	claims, err := claimRepo.ListByEvent(models.EventWar, "#WAR1")
	if err != nil {
		t.Fatalf("ListByEvent: %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("в БД %d броней, ожидали 1", len(claims))
	}
}

func TestClaimRepository_SamePositionDifferentEvents(t *testing.T) {
	t.Parallel()

	db := testkit.OpenTestDB(t)
	claimRepo := repo.NewClaimRepository(db)

	// Одна и та же позиция в разных событиях — разные брони
	for _, key := range []string{"#WAR1", "#WAR2"} {
		err := claimRepo.Create(&models.TargetClaim{
			EventType:    models.EventWar,
			EventKey:     key,
			Position:     1,
			ClaimantName: "гость",
			ClaimedAt:    time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("Create(%s): %v", key, err)
		}
	}
}

func TestClaimRepository_DeleteIdempotent(t *testing.T) {
	t.Parallel()

	db := testkit.OpenTestDB(t)
	claimRepo := repo.NewClaimRepository(db)

	claim := &models.TargetClaim{
		EventType:    models.EventWar,
		EventKey:     "#WAR1",
		Position:     5,
		ClaimantName: "гость",
		ClaimedAt:    time.Now().UTC(),
	}
	if err := claimRepo.Create(claim); err != nil {
		t.Fatalf("Create: %v", err)
	}

	deleted, err := claimRepo.Delete(claim.ID)
	if err != nil || !deleted {
		t.Fatalf("Delete = (%v, %v), ожидали (true, nil)", deleted, err)
	}

	// Повторное снятие той же брони — не ошибка
	deleted, err = claimRepo.Delete(claim.ID)
	if err != nil || deleted {
		t.Fatalf("повторный Delete = (%v, %v), ожидали (false, nil)", deleted, err)
	}

	// После снятия позиция снова свободна
	if err := claimRepo.Create(&models.TargetClaim{
		EventType:    models.EventWar,
		EventKey:     "#WAR1",
		Position:     5,
		ClaimantName: "другой",
		ClaimedAt:    time.Now().UTC(),
	}); err != nil {
		t.Fatalf("Create после Delete: %v", err)
	}
}

func TestClaimRepository_DeleteClaimedBefore(t *testing.T) {
	t.Parallel()

	db := testkit.OpenTestDB(t)
	claimRepo := repo.NewClaimRepository(db)

	old := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	fresh := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	for i, at := range []time.Time{old, fresh} {
		if err := claimRepo.Create(&models.TargetClaim{
			EventType:    models.EventWar,
			EventKey:     "#WAR1",
			Position:     i + 1,
			ClaimantName: "гость",
			ClaimedAt:    at,
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	removed, err := claimRepo.DeleteClaimedBefore(time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("DeleteClaimedBefore: %v", err)
	}
	if removed != 1 {
		t.Fatalf("удалено %d, ожидали 1", removed)
	}
}
