package service

import (
	"errors"
	"testing"
	"time"

	"github.com/KinkLid/cocBot-sub000/internal/models"
	"github.com/KinkLid/cocBot-sub000/internal/repo"
	"github.com/KinkLid/cocBot-sub000/internal/testkit"
	"gorm.io/gorm"
)

func newClaimFixture(t *testing.T) (*gorm.DB, ClaimService) {
	t.Helper()
	db := testkit.OpenTestDB(t)
	svc := NewClaimService(repo.NewClaimRepository(db), repo.NewStateRepository(db))
	return db, svc
}

func TestClaimService_ClaimAndConflict(t *testing.T) {
	t.Parallel()

	db, svc := newClaimFixture(t)
	seedActiveWar(t, db, time.Date(2026, 8, 15, 7, 0, 0, 0, time.UTC))

	vasya := &models.Member{ID: 1, Name: "Вася"}
	petya := &models.Member{ID: 2, Name: "Петя"}

	claim, err := svc.Claim(models.EventWar, 3, vasya, "")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if claim.EventKey != "#WAR1" || claim.ClaimantName != "Вася" {
		t.Fatalf("бронь: %+v", claim)
	}

	// Вторая бронь той же позиции — отказ
	if _, err := svc.Claim(models.EventWar, 3, petya, ""); !errors.Is(err, repo.ErrAlreadyClaimed) {
		t.Fatalf("повторная бронь: %v", err)
	}

	// Соседняя позиция свободна
	if _, err := svc.Claim(models.EventWar, 4, petya, ""); err != nil {
		t.Fatalf("Claim соседней: %v", err)
	}
}

func TestClaimService_ClaimRequiresActiveEvent(t *testing.T) {
	t.Parallel()

	_, svc := newClaimFixture(t)

	member := &models.Member{ID: 1, Name: "Вася"}
	if _, err := svc.Claim(models.EventWar, 1, member, ""); !errors.Is(err, ErrNoActiveEvent) {
		t.Fatalf("бронь без войны: %v", err)
	}
	if _, err := svc.Claim(models.EventWar, 0, member, ""); !errors.Is(err, ErrBadPosition) {
		t.Fatalf("нулевая позиция: %v", err)
	}
}

func TestClaimService_ExternalClaim(t *testing.T) {
	t.Parallel()

	db, svc := newClaimFixture(t)
	seedActiveWar(t, db, time.Date(2026, 8, 15, 7, 0, 0, 0, time.UTC))

	// Админ бронирует за игрока без аккаунта в боте
	claim, err := svc.Claim(models.EventWar, 7, nil, "Гость из клана")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if claim.MemberID != nil || claim.ClaimantName != "Гость из клана" {
		t.Fatalf("внешняя бронь: %+v", claim)
	}
}

func TestClaimService_Release(t *testing.T) {
	t.Parallel()

	db, svc := newClaimFixture(t)
	seedActiveWar(t, db, time.Date(2026, 8, 15, 7, 0, 0, 0, time.UTC))

	vasya := &models.Member{ID: 1, Name: "Вася"}
	petya := &models.Member{ID: 2, Name: "Петя"}
	admin := &models.Member{ID: 3, Name: "Глава", IsAdmin: true}

	claim, err := svc.Claim(models.EventWar, 3, vasya, "")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}

	// Чужую бронь снять нельзя
	if err := svc.Release(claim.ID, petya); !errors.Is(err, repo.ErrNotClaimant) {
		t.Fatalf("Release чужим: %v", err)
	}

	// Владелец может
	if err := svc.Release(claim.ID, vasya); err != nil {
		t.Fatalf("Release владельцем: %v", err)
	}

	// Снятие уже снятой брони — не ошибка
	if err := svc.Release(claim.ID, vasya); err != nil {
		t.Fatalf("повторный Release: %v", err)
	}

	// Админ снимает любую бронь
	claim2, err := svc.Claim(models.EventWar, 5, petya, "")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := svc.Release(claim2.ID, admin); err != nil {
		t.Fatalf("Release админом: %v", err)
	}
}
