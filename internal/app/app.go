package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/KinkLid/cocBot-sub000/internal/cache"
	"github.com/KinkLid/cocBot-sub000/internal/coc"
	"github.com/KinkLid/cocBot-sub000/internal/config"
	"github.com/KinkLid/cocBot-sub000/internal/events"
	"github.com/KinkLid/cocBot-sub000/internal/handlers"
	"github.com/KinkLid/cocBot-sub000/internal/migrations"
	"github.com/KinkLid/cocBot-sub000/internal/models"
	"github.com/KinkLid/cocBot-sub000/internal/repo"
	"github.com/KinkLid/cocBot-sub000/internal/scheduler"
	"github.com/KinkLid/cocBot-sub000/internal/service"
	"github.com/KinkLid/cocBot-sub000/internal/telegram"
)

// Run собирает и запускает все приложение: БД, клиент игрового API,
// Telegram-бота и планировщик фоновых задач. Блокируется до SIGINT/SIGTERM.
func Run() error {
	// 1. Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Tg.Token == "" {
		return errors.New("TG_TOKEN не задан")
	}

	// 2. Инициализация БД и миграции
	dbConn := migrations.InitDB(cfg.Db.Dsn)

	// 3. Кэш: Redis если настроен, иначе без кэша
	var apiCache cache.Cache = cache.NewNoopCache()
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			logrus.Printf("Redis недоступен, работаем без кэша: %v", err)
		} else {
			apiCache = redisCache
		}
	}

	// 4. Клиент игрового API
	cocClient := coc.NewClient(cfg.Coc.BaseURL, cfg.Coc.Token, cfg.Coc.Timeout)
	cachedClient := coc.NewCachedClient(cocClient, apiCache, cfg.Redis.TTL)

	// 5. Репозитории
	memberRepo := repo.NewMemberRepository(dbConn)
	settingsRepo := repo.NewSettingsRepository(dbConn)
	stateRepo := repo.NewStateRepository(dbConn)
	ruleRepo := repo.NewRuleRepository(dbConn)
	instanceRepo := repo.NewInstanceRepository(dbConn)
	claimRepo := repo.NewClaimRepository(dbConn)
	reminderRepo := repo.NewReminderRepository(dbConn)

	// Записываем настройки чата клана из окружения, если их еще нет
	if err := seedSettings(settingsRepo, cfg); err != nil {
		return err
	}

	// 6. Создание бота
	bot, err := tgbotapi.NewBotAPI(cfg.Tg.Token)
	if err != nil {
		return err
	}
	bot.Debug = false
	logrus.Printf("Авторизован как %s", bot.Self.UserName)

	sender := telegram.NewBotSender(bot)

	// 7. Сервисы
	memberSvc := service.NewMemberService(memberRepo, cachedClient, cfg.Clan.Tag)
	claimSvc := service.NewClaimService(claimRepo, stateRepo)
	ruleSvc := service.NewRuleService(ruleRepo, instanceRepo, stateRepo, settingsRepo)
	reminderSvc := service.NewReminderService(reminderRepo, stateRepo)
	notifySvc := service.NewNotifyService(settingsRepo, memberRepo, sender)
	dispatcherSvc := service.NewDispatcherService(instanceRepo, reminderRepo, memberRepo, sender, cfg.Intervals.MaxAttempts)
	cleanupSvc := service.NewCleanupService(claimSvc, instanceRepo, cfg.Intervals.ClaimMaxAge)

	// Трекеры: по одному на категорию событий
	warTracker := service.NewTrackerService(
		events.NewWarCategory(cocClient, cfg.Clan.Tag), stateRepo, reminderRepo, notifySvc, ruleSvc)
	cwlTracker := service.NewTrackerService(
		events.NewCwlCategory(cocClient, cfg.Clan.Tag), stateRepo, reminderRepo, notifySvc, ruleSvc)
	capitalTracker := service.NewTrackerService(
		events.NewCapitalCategory(cocClient, cfg.Clan.Tag), stateRepo, reminderRepo, notifySvc, ruleSvc)

	// 8. Планировщик фоновых задач
	sched := scheduler.New(cfg.Coc.Timeout * 2)
	sched.AddJob("war-tracker", cfg.Intervals.WarPoll, warTracker.Tick)
	sched.AddJob("cwl-tracker", cfg.Intervals.CwlPoll, cwlTracker.Tick)
	sched.AddJob("capital-tracker", cfg.Intervals.CapitalPoll, capitalTracker.Tick)
	sched.AddJob("dispatcher", cfg.Intervals.Dispatch, dispatcherSvc.Tick)
	sched.AddJob("cleanup", cfg.Intervals.Cleanup, cleanupSvc.Tick)
	sched.AddJob("member-sync", cfg.Intervals.MemberSync, memberSvc.SyncRoster)

	// 9. Хендлеры
	telegramHandlers := handlers.NewTelegramHandlers(
		bot, memberSvc, claimSvc, ruleSvc, reminderSvc, settingsRepo, cachedClient, cfg.Clan.Tag)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched.Start(ctx)
	runBot(ctx, bot, telegramHandlers)

	// Дожидаемся тиков, начатых до остановки
	sched.Wait()
	logrus.Println("Остановлено")
	return nil
}

// seedSettings создает запись настроек чата клана при первом запуске.
// Дальше настройки живут в БД и правятся через меню бота.
func seedSettings(settingsRepo repo.SettingsRepository, cfg *config.Config) error {
	settings, err := settingsRepo.Get()
	if err != nil {
		return err
	}
	if settings != nil || cfg.Clan.ChatID == 0 {
		return nil
	}
	return settingsRepo.CreateOrUpdate(&models.ClanSettings{
		ChatID:        cfg.Clan.ChatID,
		ClanTag:       cfg.Clan.Tag,
		Timezone:      cfg.Clan.Timezone,
		NotifyWar:     true,
		NotifyCwl:     true,
		NotifyCapital: true,
	})
}
