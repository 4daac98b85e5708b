package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KinkLid/cocBot-sub000/internal/events"
	"github.com/KinkLid/cocBot-sub000/internal/models"
	"github.com/KinkLid/cocBot-sub000/internal/repo"
	"github.com/KinkLid/cocBot-sub000/internal/testkit"
	"gorm.io/gorm"
)

// fakeCategory отдает заранее подготовленные наблюдения
type fakeCategory struct {
	typ        string
	notifiable map[string]bool
	obs        []events.Observation
	err        error
}

func (c *fakeCategory) Type() string                 { return c.typ }
func (c *fakeCategory) Notifiable(state string) bool { return c.notifiable[state] }
func (c *fakeCategory) Observe(ctx context.Context) ([]events.Observation, error) {
	return c.obs, c.err
}

// recordingNotify запоминает, о каких переходах просили рассылку
type recordingNotify struct {
	calls []string
}

func (n *recordingNotify) NotifyTransition(eventType string, obs events.Observation) {
	n.calls = append(n.calls, obs.State)
}

func newTrackerFixture(t *testing.T, category events.Category) (*gorm.DB, TrackerService, *recordingNotify) {
	t.Helper()
	db := testkit.OpenTestDB(t)
	stateRepo := repo.NewStateRepository(db)
	reminderRepo := repo.NewReminderRepository(db)
	notify := &recordingNotify{}
	ruleSvc := NewRuleService(
		repo.NewRuleRepository(db),
		repo.NewInstanceRepository(db),
		stateRepo,
		repo.NewSettingsRepository(db),
	)
	tracker := NewTrackerService(category, stateRepo, reminderRepo, notify, ruleSvc)
	return db, tracker, notify
}

func warFakeCategory() *fakeCategory {
	return &fakeCategory{
		typ: models.EventWar,
		notifiable: map[string]bool{
			models.StatePreparation: true,
			models.StateInWar:       true,
			models.StateWarEnded:    true,
		},
	}
}

func TestTracker_FirstSightDoesNotNotify(t *testing.T) {
	t.Parallel()

	category := warFakeCategory()
	start := time.Date(2026, 8, 15, 7, 0, 0, 0, time.UTC)
	category.obs = []events.Observation{{Key: "#WAR1", State: models.StateInWar, StartTime: &start}}

	db, tracker, notify := newTrackerFixture(t, category)

	// Бот впервые видит войну, которая уже идет: состояние запоминаем,
	// но рассылки о давно случившемся переходе не делаем
	if err := tracker.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(notify.calls) != 0 {
		t.Fatalf("рассылок %d, ожидали 0", len(notify.calls))
	}

	state, err := repo.NewStateRepository(db).GetByKey(models.EventWar, "#WAR1")
	if err != nil || state == nil {
		t.Fatalf("GetByKey = (%v, %v)", state, err)
	}
	if state.CurrentState != models.StateInWar || state.LastNotifiedState != models.StateInWar {
		t.Fatalf("состояние %q/%q", state.CurrentState, state.LastNotifiedState)
	}
}

func TestTracker_TransitionNotifiesOnce(t *testing.T) {
	t.Parallel()

	category := warFakeCategory()
	start := time.Date(2026, 8, 15, 7, 0, 0, 0, time.UTC)
	category.obs = []events.Observation{{Key: "#WAR1", State: models.StatePreparation, StartTime: &start}}

	_, tracker, notify := newTrackerFixture(t, category)

	if err := tracker.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	// Переход в бой — одна рассылка
	category.obs = []events.Observation{{Key: "#WAR1", State: models.StateInWar, StartTime: &start}}
	if err := tracker.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(notify.calls) != 1 || notify.calls[0] != models.StateInWar {
		t.Fatalf("рассылки: %v", notify.calls)
	}

	// То же состояние на следующих тиках — без повторов
	for i := 0; i < 3; i++ {
		if err := tracker.Tick(context.Background()); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
	if len(notify.calls) != 1 {
		t.Fatalf("рассылок %d, ожидали 1", len(notify.calls))
	}
}

func TestTracker_StateFlapDoesNotRenotify(t *testing.T) {
	t.Parallel()

	category := warFakeCategory()
	start := time.Date(2026, 8, 15, 7, 0, 0, 0, time.UTC)

	_, tracker, notify := newTrackerFixture(t, category)

	tick := func(state string) {
		t.Helper()
		category.obs = []events.Observation{{Key: "#WAR1", State: state, StartTime: &start}}
		if err := tracker.Tick(context.Background()); err != nil {
			t.Fatalf("Tick(%s): %v", state, err)
		}
	}

	// Дребезг API: откат к подготовке при неизменном ключе и возврат в
	// бой. Подготовка — уже пройденное состояние, рассылки про нее и
	// повторной про бой быть не должно
	tick(models.StatePreparation)
	tick(models.StateInWar)
	tick(models.StatePreparation)
	tick(models.StateInWar)

	if len(notify.calls) != 1 || notify.calls[0] != models.StateInWar {
		t.Fatalf("рассылки: %v, ожидали одну про бой", notify.calls)
	}

	// Конец войны — состояние старше всех объявленных, рассылка идет
	tick(models.StateWarEnded)
	if len(notify.calls) != 2 || notify.calls[1] != models.StateWarEnded {
		t.Fatalf("рассылки: %v", notify.calls)
	}
}

func TestTracker_ApiErrorLeavesStateIntact(t *testing.T) {
	t.Parallel()

	category := warFakeCategory()
	start := time.Date(2026, 8, 15, 7, 0, 0, 0, time.UTC)
	category.obs = []events.Observation{{Key: "#WAR1", State: models.StatePreparation, StartTime: &start}}

	db, tracker, notify := newTrackerFixture(t, category)

	if err := tracker.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	// Сбой API не роняет тик и не трогает записанное состояние
	category.obs = nil
	category.err = errors.New("кратковременный сбой сети")
	if err := tracker.Tick(context.Background()); err != nil {
		t.Fatalf("Tick при сбое API: %v", err)
	}

	state, _ := repo.NewStateRepository(db).GetByKey(models.EventWar, "#WAR1")
	if state == nil || state.CurrentState != models.StatePreparation {
		t.Fatalf("состояние после сбоя: %+v", state)
	}
	if len(notify.calls) != 0 {
		t.Fatalf("рассылки при сбое: %v", notify.calls)
	}
}

func TestTracker_EndCancelsReminders(t *testing.T) {
	t.Parallel()

	category := warFakeCategory()
	start := time.Date(2026, 8, 15, 7, 0, 0, 0, time.UTC)
	category.obs = []events.Observation{{Key: "#WAR1", State: models.StateInWar, StartTime: &start}}

	db, tracker, _ := newTrackerFixture(t, category)
	reminderRepo := repo.NewReminderRepository(db)

	if err := tracker.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	reminder := models.ReminderMessage{
		EventType:   models.EventWar,
		EventKey:    "#WAR1",
		ChatID:      100,
		FireAt:      start.Add(23 * time.Hour),
		MessageText: "последний час боя!",
		Status:      models.StatusPending,
	}
	if err := reminderRepo.Create(&reminder); err != nil {
		t.Fatalf("Create reminder: %v", err)
	}

	// Война закончилась раньше времени напоминания — оно отменяется
	category.obs = []events.Observation{{Key: "#WAR1", State: models.StateWarEnded, StartTime: &start}}
	if err := tracker.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	due, err := reminderRepo.ListDue(start.Add(48*time.Hour), 100)
	if err != nil {
		t.Fatalf("ListDue: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("после конца войны созревших напоминаний %d, ожидали 0", len(due))
	}
}

func TestTracker_MaterializesRulesForActiveEvent(t *testing.T) {
	t.Parallel()

	category := warFakeCategory()
	start := time.Date(2026, 8, 15, 7, 0, 0, 0, time.UTC)
	category.obs = []events.Observation{{Key: "#WAR1", State: models.StateInWar, StartTime: &start}}

	db, tracker, _ := newTrackerFixture(t, category)
	ruleRepo := repo.NewRuleRepository(db)
	instanceRepo := repo.NewInstanceRepository(db)

	rule := models.NotificationRule{
		ChatID:       100,
		Personal:     true,
		EventType:    models.EventWar,
		DelaySeconds: 3600,
		TemplateKey:  "attack_reminder",
		Enabled:      true,
	}
	if err := ruleRepo.Create(&rule); err != nil {
		t.Fatalf("Create rule: %v", err)
	}

	// Несколько тиков — материализация одна, время от начала события
	for i := 0; i < 3; i++ {
		if err := tracker.Tick(context.Background()); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}

	due, err := instanceRepo.ListDue(start.Add(2*time.Hour), 100)
	if err != nil {
		t.Fatalf("ListDue: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("материализаций %d, ожидали 1", len(due))
	}
	if !due[0].FireAt.Equal(start.Add(time.Hour)) {
		t.Fatalf("FireAt = %v, ожидали начало+1ч", due[0].FireAt)
	}
}
