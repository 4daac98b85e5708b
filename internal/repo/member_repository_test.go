package repo_test

import (
	"testing"

	"github.com/KinkLid/cocBot-sub000/internal/models"
	"github.com/KinkLid/cocBot-sub000/internal/repo"
	"github.com/KinkLid/cocBot-sub000/internal/testkit"
)

// Выключенные флаги должны переживать запись: false — честное значение,
// а не "возьми умолчание из колонки".
func TestMemberRepository_FalseFlagsSurviveCreate(t *testing.T) {
	t.Parallel()

	db := testkit.OpenTestDB(t)
	memberRepo := repo.NewMemberRepository(db)

	muted := models.Member{
		TelegramID:    1001,
		PlayerTag:     "#MUTED",
		Name:          "Тихоня",
		NotifyEnabled: false,
		NotifyWar:     false,
		NotifyCwl:     true,
		NotifyCapital: true,
		NotifyWindow:  models.WindowAlways,
	}
	if err := memberRepo.Create(&muted); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := memberRepo.GetByTelegramID(1001)
	if err != nil {
		t.Fatalf("GetByTelegramID: %v", err)
	}
	if got == nil {
		t.Fatal("участник не найден после создания")
	}
	if got.NotifyEnabled {
		t.Error("notify_enabled: записывали false, прочитали true")
	}
	if got.NotifyWar {
		t.Error("notify_war: записывали false, прочитали true")
	}
	if !got.NotifyCwl || !got.NotifyCapital {
		t.Error("включенные категории потерялись при записи")
	}
}

func TestMemberRepository_ListSubscribersSkipsDisabled(t *testing.T) {
	t.Parallel()

	db := testkit.OpenTestDB(t)
	memberRepo := repo.NewMemberRepository(db)

	active := models.Member{
		TelegramID:    2001,
		PlayerTag:     "#ACTIVE",
		Name:          "Боец",
		NotifyEnabled: true,
		NotifyWar:     true,
		NotifyWindow:  models.WindowAlways,
	}
	disabled := models.Member{
		TelegramID:    2002,
		PlayerTag:     "#OFF",
		Name:          "Отключенный",
		NotifyEnabled: false,
		NotifyWar:     true,
		NotifyWindow:  models.WindowAlways,
	}
	optedOut := models.Member{
		TelegramID:    2003,
		PlayerTag:     "#NOWAR",
		Name:          "Без войн",
		NotifyEnabled: true,
		NotifyWar:     false,
		NotifyWindow:  models.WindowAlways,
	}
	for _, m := range []*models.Member{&active, &disabled, &optedOut} {
		if err := memberRepo.Create(m); err != nil {
			t.Fatalf("Create %s: %v", m.PlayerTag, err)
		}
	}

	subs, err := memberRepo.ListSubscribers(models.EventWar)
	if err != nil {
		t.Fatalf("ListSubscribers: %v", err)
	}
	if len(subs) != 1 || subs[0].TelegramID != active.TelegramID {
		t.Fatalf("ожидали одного подписчика %d, получили %v", active.TelegramID, subs)
	}
}
