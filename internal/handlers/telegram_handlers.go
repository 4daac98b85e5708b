package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/KinkLid/cocBot-sub000/internal/coc"
	"github.com/KinkLid/cocBot-sub000/internal/models"
	"github.com/KinkLid/cocBot-sub000/internal/repo"
	"github.com/KinkLid/cocBot-sub000/internal/service"
)

// sendEditMessage отправляет редактирование сообщения, игнорируя ошибку "message is not modified"
func (h *TelegramHandlers) sendEditMessage(edit tgbotapi.EditMessageTextConfig) {
	_, err := h.bot.Send(edit)
	if err != nil {
		// Игнорируем ошибку "message is not modified" - это нормальная ситуация
		errStr := err.Error()
		if !strings.Contains(errStr, "message is not modified") {
			logrus.Printf("Ошибка при отправке сообщения: %v", err)
		}
	}
}

type TelegramHandlers struct {
	bot          *tgbotapi.BotAPI
	memberSvc    service.MemberService
	claimSvc     service.ClaimService
	ruleSvc      service.RuleService
	reminderSvc  service.ReminderService
	settingsRepo repo.SettingsRepository
	api          *coc.CachedClient
	clanTag      string
}

func NewTelegramHandlers(
	bot *tgbotapi.BotAPI,
	memberSvc service.MemberService,
	claimSvc service.ClaimService,
	ruleSvc service.RuleService,
	reminderSvc service.ReminderService,
	settingsRepo repo.SettingsRepository,
	api *coc.CachedClient,
	clanTag string,
) *TelegramHandlers {
	return &TelegramHandlers{
		bot:          bot,
		memberSvc:    memberSvc,
		claimSvc:     claimSvc,
		ruleSvc:      ruleSvc,
		reminderSvc:  reminderSvc,
		settingsRepo: settingsRepo,
		api:          api,
		clanTag:      clanTag,
	}
}

func (h *TelegramHandlers) HandleMessage(message *tgbotapi.Message) {
	if !message.IsCommand() {
		return
	}

	switch message.Command() {
	case "start":
		h.sendMainMenu(message.Chat.ID, 0)
	case "register":
		h.handleRegister(message)
	case "remind":
		h.handleRemind(message)
	case "claim":
		h.handleClaimFor(message)
	}
}

func (h *TelegramHandlers) HandleCallback(callback *tgbotapi.CallbackQuery) {
	// Отвечаем на callback query немедленно, чтобы убрать индикатор загрузки
	callbackConfig := tgbotapi.NewCallback(callback.ID, "")
	if _, err := h.bot.Request(callbackConfig); err != nil {
		logrus.Printf("Ошибка при ответе на callback: %v", err)
	}

	data := callback.Data
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID
	userID := callback.From.ID

	// Обрабатываем callback асинхронно, чтобы не блокировать основной поток
	go func() {
		switch {
		case data == "war_status":
			h.showWarStatus(chatID, messageID)
		case data == "profile":
			h.showProfile(chatID, messageID, userID)
		case data == "claims":
			h.showClaims(chatID, messageID, userID)
		case strings.HasPrefix(data, "claim:"):
			position, _ := strconv.Atoi(strings.TrimPrefix(data, "claim:"))
			h.claimPosition(chatID, messageID, userID, position)
		case strings.HasPrefix(data, "release:"):
			claimID, _ := strconv.Atoi(strings.TrimPrefix(data, "release:"))
			h.releaseClaim(chatID, messageID, userID, uint(claimID))
		case data == "notifications":
			h.showNotificationsMenu(chatID, messageID, userID)
		case data == "notify_toggle":
			h.toggleNotifications(chatID, messageID, userID)
		case strings.HasPrefix(data, "notify_cat:"):
			h.toggleCategory(chatID, messageID, userID, strings.TrimPrefix(data, "notify_cat:"))
		case strings.HasPrefix(data, "notify_window:"):
			h.setWindow(chatID, messageID, userID, strings.TrimPrefix(data, "notify_window:"))
		case data == "rules":
			h.showRules(chatID, messageID, userID)
		case data == "rule_new":
			h.showRuleCategoryPicker(chatID, messageID)
		case strings.HasPrefix(data, "rule_new:"):
			h.showRuleDelayPicker(chatID, messageID, strings.TrimPrefix(data, "rule_new:"))
		case strings.HasPrefix(data, "rule_create:"):
			h.createRule(chatID, messageID, userID, strings.TrimPrefix(data, "rule_create:"))
		case strings.HasPrefix(data, "rule_toggle:"):
			ruleID, _ := strconv.Atoi(strings.TrimPrefix(data, "rule_toggle:"))
			h.toggleRule(chatID, messageID, userID, uint(ruleID))
		case strings.HasPrefix(data, "rule_del:"):
			ruleID, _ := strconv.Atoi(strings.TrimPrefix(data, "rule_del:"))
			h.deleteRule(chatID, messageID, userID, uint(ruleID))
		case strings.HasPrefix(data, "rule_test:"):
			ruleID, _ := strconv.Atoi(strings.TrimPrefix(data, "rule_test:"))
			h.testRule(chatID, userID, uint(ruleID))
		case data == "chat_settings":
			h.showChatSettings(chatID, messageID, userID)
		case strings.HasPrefix(data, "chat_toggle:"):
			h.toggleChatCategory(chatID, messageID, userID, strings.TrimPrefix(data, "chat_toggle:"))
		case data == "back":
			h.sendMainMenu(chatID, messageID)
		}
	}()
}

func (h *TelegramHandlers) sendMainMenu(chatID int64, messageID int) {
	text := "🛡 Бот клана\n\nВыберите раздел:"
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚔️ Война", "war_status"),
			tgbotapi.NewInlineKeyboardButtonData("🎯 Цели", "claims"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👤 Профиль", "profile"),
			tgbotapi.NewInlineKeyboardButtonData("🔔 Уведомления", "notifications"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 Правила уведомлений", "rules"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Настройки чата", "chat_settings"),
		),
	)

	var sentMsg tgbotapi.Chattable
	if messageID > 0 {
		// Редактируем существующее сообщение
		edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
		edit.ReplyMarkup = &keyboard
		sentMsg = edit
	} else {
		// Отправляем новое (для /start или первого вызова)
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ReplyMarkup = keyboard
		sentMsg = msg
	}
	if _, err := h.bot.Send(sentMsg); err != nil {
		logrus.Printf("Ошибка при отправке сообщения: %v", err)
	}
}

// handleRegister: /register #ТЕГ токен
func (h *TelegramHandlers) handleRegister(message *tgbotapi.Message) {
	args := strings.Fields(message.CommandArguments())
	if len(args) != 2 {
		h.sendText(message.Chat.ID, "Использование: /register #ТЕГ токен\nТокен — в игре: Настройки → Еще → API токен")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	member, err := h.memberSvc.Register(ctx, message.From.ID, args[0], args[1])
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			h.sendText(message.Chat.ID, "❌ Токен не подтвержден. Проверьте тег и токен.")
		case errors.Is(err, service.ErrAlreadyRegistered):
			h.sendText(message.Chat.ID, "❌ Этот аккаунт уже привязан.")
		default:
			logrus.Printf("Регистрация: %v", err)
			h.sendText(message.Chat.ID, "Ошибка при регистрации, попробуйте позже")
		}
		return
	}

	h.sendText(message.Chat.ID, fmt.Sprintf("✅ Аккаунт %s привязан!", member.Name))
}

// handleRemind: /remind минуты текст — напоминание за N минут до конца войны
func (h *TelegramHandlers) handleRemind(message *tgbotapi.Message) {
	member, err := h.memberSvc.GetByTelegramID(message.From.ID)
	if err != nil || member == nil || !member.IsAdmin {
		h.sendText(message.Chat.ID, "Команда доступна только администраторам")
		return
	}

	args := strings.SplitN(message.CommandArguments(), " ", 2)
	if len(args) != 2 {
		h.sendText(message.Chat.ID, "Использование: /remind минуты текст")
		return
	}
	minutes, err := strconv.Atoi(args[0])
	if err != nil || minutes <= 0 {
		h.sendText(message.Chat.ID, "Минуты должны быть положительным числом")
		return
	}

	settings, _ := h.settingsRepo.Get()
	chatID := message.Chat.ID
	if settings != nil && settings.ChatID != 0 {
		chatID = settings.ChatID
	}

	reminder, err := h.reminderSvc.ScheduleBeforeEnd(models.EventWar, time.Duration(minutes)*time.Minute, args[1], chatID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveEvent):
			h.sendText(message.Chat.ID, "Сейчас нет активной войны")
		case errors.Is(err, service.ErrNoEndTime):
			h.sendText(message.Chat.ID, "Время конца войны еще не известно")
		default:
			logrus.Printf("Напоминание: %v", err)
			h.sendText(message.Chat.ID, "Ошибка при создании напоминания")
		}
		return
	}

	h.sendText(message.Chat.ID, fmt.Sprintf("⏰ Напоминание создано, сработает %s",
		reminder.FireAt.Format("02.01 15:04")))
}

// handleClaimFor: /claim позиция имя — админ бронирует цель за игрока
// без Телеграма (договорились голосом, играет с чужого аккаунта и т.п.)
func (h *TelegramHandlers) handleClaimFor(message *tgbotapi.Message) {
	member, err := h.memberSvc.GetByTelegramID(message.From.ID)
	if err != nil || member == nil || !member.IsAdmin {
		h.sendText(message.Chat.ID, "Команда доступна только администраторам")
		return
	}

	args := strings.SplitN(message.CommandArguments(), " ", 2)
	if len(args) != 2 || strings.TrimSpace(args[1]) == "" {
		h.sendText(message.Chat.ID, "Использование: /claim позиция имя")
		return
	}
	position, err := strconv.Atoi(args[0])
	if err != nil {
		h.sendText(message.Chat.ID, "Позиция должна быть числом")
		return
	}

	claim, err := h.claimSvc.Claim(models.EventWar, position, nil, strings.TrimSpace(args[1]))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveEvent):
			h.sendText(message.Chat.ID, "Сейчас нет активной войны")
		case errors.Is(err, service.ErrBadPosition):
			h.sendText(message.Chat.ID, "Позиция должна быть положительным числом")
		case errors.Is(err, repo.ErrAlreadyClaimed):
			h.sendText(message.Chat.ID, "Эта цель уже забронирована")
		default:
			logrus.Printf("Бронь за игрока: %v", err)
			h.sendText(message.Chat.ID, "Ошибка при бронировании цели")
		}
		return
	}

	h.sendText(message.Chat.ID, fmt.Sprintf("🎯 Цель %d забронирована за %s",
		claim.Position, claim.ClaimantName))
}

func (h *TelegramHandlers) showWarStatus(chatID int64, messageID int) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	war, err := h.api.CurrentWar(ctx, h.clanTag)
	if err != nil {
		h.sendError(chatID, "Не удалось получить данные о войне")
		return
	}

	var text string
	if war.State == coc.WarStateNotInWar {
		text = "Сейчас клан не воюет"
	} else {
		loc := h.clanLocation()
		var b strings.Builder
		b.WriteString(fmt.Sprintf("⚔️ Война с %s\n", war.Opponent.Name))
		switch war.State {
		case coc.WarStatePreparation:
			b.WriteString("Статус: день подготовки\n")
		case coc.WarStateInWar:
			b.WriteString("Статус: идет бой\n")
		case coc.WarStateEnded:
			b.WriteString("Статус: завершена\n")
		}
		b.WriteString(fmt.Sprintf("Счет: %d⭐ — %d⭐\n", war.Clan.Stars, war.Opponent.Stars))
		if t, ok := coc.ParseTime(war.EndTime); ok {
			b.WriteString(fmt.Sprintf("Конец: %s", t.In(loc).Format("02.01 15:04")))
		}
		text = b.String()
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Цели", "claims"),
			tgbotapi.NewInlineKeyboardButtonData("Назад", "back"),
		),
	)
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ReplyMarkup = &keyboard
	h.sendEditMessage(edit)
}

func (h *TelegramHandlers) showProfile(chatID int64, messageID int, userID int64) {
	member, err := h.memberSvc.GetByTelegramID(userID)
	if err != nil {
		h.sendError(chatID, "Ошибка при получении профиля")
		return
	}
	if member == nil {
		h.sendText(chatID, "Вы не зарегистрированы. Привяжите аккаунт: /register #ТЕГ токен")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	player, err := h.memberSvc.Profile(ctx, member)
	if err != nil {
		h.sendError(chatID, "Не удалось получить профиль из игры")
		return
	}

	text := fmt.Sprintf("👤 %s (%s)\n🏠 Ратуша: %d\n🏆 Кубки: %d (рекорд %d)\n⭐ Звезды войн: %d\n🎁 Донат: %d / %d",
		player.Name, player.Tag, player.TownHallLvl,
		player.Trophies, player.BestTrophies,
		player.WarStars, player.Donations, player.Received)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Назад", "back"),
		),
	)
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ReplyMarkup = &keyboard
	h.sendEditMessage(edit)
}

// showClaims показывает позиции противника текущей войны с бронями
func (h *TelegramHandlers) showClaims(chatID int64, messageID int, userID int64) {
	claims, _, err := h.claimSvc.ListForActive(models.EventWar)
	if err != nil {
		if errors.Is(err, service.ErrNoActiveEvent) {
			h.sendText(chatID, "Сейчас нет активной войны")
			return
		}
		h.sendError(chatID, "Ошибка при получении броней")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	war, err := h.api.CurrentWar(ctx, h.clanTag)
	if err != nil {
		h.sendError(chatID, "Не удалось получить данные о войне")
		return
	}

	claimed := make(map[int]models.TargetClaim, len(claims))
	for _, c := range claims {
		claimed[c.Position] = c
	}

	member, _ := h.memberSvc.GetByTelegramID(userID)

	var b strings.Builder
	b.WriteString("🎯 Цели в войне. Нажмите на свободную позицию, чтобы забронировать:\n")

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, enemy := range war.Opponent.Members {
		pos := enemy.MapPosition
		if c, ok := claimed[pos]; ok {
			b.WriteString(fmt.Sprintf("%d. %s (ТХ%d) — 🔒 %s\n", pos, enemy.Name, enemy.TownhallLvl, c.ClaimantName))
			// Снять бронь может владелец или админ
			if member != nil && (member.IsAdmin || (c.MemberID != nil && *c.MemberID == member.ID)) {
				rows = append(rows, tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData(
						fmt.Sprintf("Снять бронь с %d", pos),
						fmt.Sprintf("release:%d", c.ID)),
				))
			}
		} else {
			b.WriteString(fmt.Sprintf("%d. %s (ТХ%d) — свободна\n", pos, enemy.Name, enemy.TownhallLvl))
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("Занять %d", pos),
					fmt.Sprintf("claim:%d", pos)),
			))
		}
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Назад", "back"),
	))

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	edit := tgbotapi.NewEditMessageText(chatID, messageID, b.String())
	edit.ReplyMarkup = &keyboard
	h.sendEditMessage(edit)
}

func (h *TelegramHandlers) claimPosition(chatID int64, messageID int, userID int64, position int) {
	member, err := h.memberSvc.GetByTelegramID(userID)
	if err != nil || member == nil {
		h.sendText(chatID, "Сначала привяжите аккаунт: /register #ТЕГ токен")
		return
	}

	_, err = h.claimSvc.Claim(models.EventWar, position, member, "")
	if err != nil {
		if errors.Is(err, repo.ErrAlreadyClaimed) {
			// Позицию только что заняли — показываем свежий список
			h.sendText(chatID, fmt.Sprintf("Позиция %d уже занята, выберите другую", position))
			h.showClaims(chatID, messageID, userID)
			return
		}
		if errors.Is(err, service.ErrNoActiveEvent) {
			h.sendText(chatID, "Сейчас нет активной войны")
			return
		}
		logrus.Printf("Бронь позиции %d: %v", position, err)
		h.sendError(chatID, "Ошибка при бронировании")
		return
	}

	h.showClaims(chatID, messageID, userID)
}

func (h *TelegramHandlers) releaseClaim(chatID int64, messageID int, userID int64, claimID uint) {
	member, _ := h.memberSvc.GetByTelegramID(userID)

	if err := h.claimSvc.Release(claimID, member); err != nil {
		if errors.Is(err, repo.ErrNotClaimant) {
			h.sendText(chatID, "Эту бронь может снять только владелец или админ")
			return
		}
		logrus.Printf("Снятие брони %d: %v", claimID, err)
		h.sendError(chatID, "Ошибка при снятии брони")
		return
	}

	h.showClaims(chatID, messageID, userID)
}

func (h *TelegramHandlers) showNotificationsMenu(chatID int64, messageID int, userID int64) {
	member, err := h.memberSvc.GetByTelegramID(userID)
	if err != nil {
		h.sendError(chatID, "Ошибка при получении настроек")
		return
	}
	if member == nil {
		h.sendText(chatID, "Сначала привяжите аккаунт: /register #ТЕГ токен")
		return
	}

	text := fmt.Sprintf("🔔 Личные уведомления: %s\n\nКатегории:\n%s Войны\n%s ЛВК\n%s Рейды столицы\n\nОкно доставки: %s",
		onOff(member.NotifyEnabled),
		onOff(member.NotifyWar), onOff(member.NotifyCwl), onOff(member.NotifyCapital),
		windowName(member.NotifyWindow))

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Вкл/выкл все", "notify_toggle"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Войны", "notify_cat:war"),
			tgbotapi.NewInlineKeyboardButtonData("ЛВК", "notify_cat:cwl"),
			tgbotapi.NewInlineKeyboardButtonData("Рейды", "notify_cat:capital"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Всегда", "notify_window:always"),
			tgbotapi.NewInlineKeyboardButtonData("Только днем", "notify_window:day"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Назад", "back"),
		),
	)
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ReplyMarkup = &keyboard
	h.sendEditMessage(edit)
}

func (h *TelegramHandlers) toggleNotifications(chatID int64, messageID int, userID int64) {
	member, err := h.memberSvc.GetByTelegramID(userID)
	if err != nil || member == nil {
		h.sendError(chatID, "Ошибка при получении настроек")
		return
	}
	if _, err := h.memberSvc.ToggleNotifications(member); err != nil {
		h.sendError(chatID, "Ошибка при сохранении настроек")
		return
	}
	h.showNotificationsMenu(chatID, messageID, userID)
}

func (h *TelegramHandlers) toggleCategory(chatID int64, messageID int, userID int64, eventType string) {
	member, err := h.memberSvc.GetByTelegramID(userID)
	if err != nil || member == nil {
		h.sendError(chatID, "Ошибка при получении настроек")
		return
	}
	if _, err := h.memberSvc.ToggleCategory(member, eventType); err != nil {
		h.sendError(chatID, "Ошибка при сохранении настроек")
		return
	}
	h.showNotificationsMenu(chatID, messageID, userID)
}

func (h *TelegramHandlers) setWindow(chatID int64, messageID int, userID int64, window string) {
	member, err := h.memberSvc.GetByTelegramID(userID)
	if err != nil || member == nil {
		h.sendError(chatID, "Ошибка при получении настроек")
		return
	}
	if err := h.memberSvc.SetWindow(member, window); err != nil {
		h.sendError(chatID, "Ошибка при сохранении настроек")
		return
	}
	h.showNotificationsMenu(chatID, messageID, userID)
}

func (h *TelegramHandlers) showRules(chatID int64, messageID int, userID int64) {
	rules, err := h.ruleSvc.ListByChat(userID)
	if err != nil {
		h.sendError(chatID, "Ошибка при получении правил")
		return
	}

	var b strings.Builder
	b.WriteString("📋 Ваши правила уведомлений:\n\n")
	var rows [][]tgbotapi.InlineKeyboardButton

	if len(rules) == 0 {
		b.WriteString("Правил пока нет")
	}
	for _, rule := range rules {
		b.WriteString(fmt.Sprintf("#%d %s, задержка %s — %s\n",
			rule.ID, categoryName(rule.EventType),
			(time.Duration(rule.DelaySeconds) * time.Second).String(),
			onOff(rule.Enabled)))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("Вкл/выкл #%d", rule.ID), fmt.Sprintf("rule_toggle:%d", rule.ID)),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("Тест #%d", rule.ID), fmt.Sprintf("rule_test:%d", rule.ID)),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("Удалить #%d", rule.ID), fmt.Sprintf("rule_del:%d", rule.ID)),
		))
	}

	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Новое правило", "rule_new"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Назад", "back"),
		),
	)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	edit := tgbotapi.NewEditMessageText(chatID, messageID, b.String())
	edit.ReplyMarkup = &keyboard
	h.sendEditMessage(edit)
}

func (h *TelegramHandlers) showRuleCategoryPicker(chatID int64, messageID int) {
	text := "Новое правило. Выберите категорию события:"
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚔️ Войны", "rule_new:war"),
			tgbotapi.NewInlineKeyboardButtonData("🏆 ЛВК", "rule_new:cwl"),
			tgbotapi.NewInlineKeyboardButtonData("🏰 Рейды", "rule_new:capital"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Назад", "rules"),
		),
	)
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ReplyMarkup = &keyboard
	h.sendEditMessage(edit)
}

func (h *TelegramHandlers) showRuleDelayPicker(chatID int64, messageID int, eventType string) {
	text := fmt.Sprintf("Категория: %s\nЗадержка от начала события:", categoryName(eventType))
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Сразу", fmt.Sprintf("rule_create:%s:0", eventType)),
			tgbotapi.NewInlineKeyboardButtonData("Через час", fmt.Sprintf("rule_create:%s:3600", eventType)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Через 12 часов", fmt.Sprintf("rule_create:%s:43200", eventType)),
			tgbotapi.NewInlineKeyboardButtonData("Через 20 часов", fmt.Sprintf("rule_create:%s:72000", eventType)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Назад", "rule_new"),
		),
	)
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ReplyMarkup = &keyboard
	h.sendEditMessage(edit)
}

// createRule: данные вида "war:3600"
func (h *TelegramHandlers) createRule(chatID int64, messageID int, userID int64, data string) {
	parts := strings.Split(data, ":")
	if len(parts) != 2 {
		return
	}
	delay, err := strconv.Atoi(parts[1])
	if err != nil {
		return
	}

	templateKey := "default"
	if delay > 0 {
		templateKey = "attack_reminder"
	}

	if _, err := h.ruleSvc.Create(userID, true, parts[0], delay, templateKey, ""); err != nil {
		if errors.Is(err, service.ErrUnknownEventType) {
			h.sendText(chatID, "Неизвестная категория события")
			return
		}
		logrus.Printf("Создание правила: %v", err)
		h.sendError(chatID, "Ошибка при создании правила")
		return
	}

	h.showRules(chatID, messageID, userID)
}

func (h *TelegramHandlers) toggleRule(chatID int64, messageID int, userID int64, ruleID uint) {
	member, _ := h.memberSvc.GetByTelegramID(userID)
	isAdmin := member != nil && member.IsAdmin

	rule, err := h.ruleSvc.GetByID(ruleID)
	if err != nil || rule == nil {
		h.sendError(chatID, "Правило не найдено")
		return
	}
	if err := h.ruleSvc.SetEnabled(ruleID, userID, isAdmin, !rule.Enabled); err != nil {
		if errors.Is(err, service.ErrNotRuleOwner) {
			h.sendText(chatID, "Это правило принадлежит другому пользователю")
			return
		}
		h.sendError(chatID, "Ошибка при изменении правила")
		return
	}
	h.showRules(chatID, messageID, userID)
}

func (h *TelegramHandlers) deleteRule(chatID int64, messageID int, userID int64, ruleID uint) {
	member, _ := h.memberSvc.GetByTelegramID(userID)
	isAdmin := member != nil && member.IsAdmin

	if err := h.ruleSvc.Delete(ruleID, userID, isAdmin); err != nil {
		if errors.Is(err, service.ErrNotRuleOwner) {
			h.sendText(chatID, "Это правило принадлежит другому пользователю")
			return
		}
		h.sendError(chatID, "Ошибка при удалении правила")
		return
	}
	h.showRules(chatID, messageID, userID)
}

// testRule отправляет текст правила сразу, мимо планировщика —
// для проверки шаблона
func (h *TelegramHandlers) testRule(chatID int64, userID int64, ruleID uint) {
	rule, err := h.ruleSvc.GetByID(ruleID)
	if err != nil || rule == nil {
		h.sendError(chatID, "Правило не найдено")
		return
	}
	if rule.ChatID != userID {
		member, _ := h.memberSvc.GetByTelegramID(userID)
		if member == nil || !member.IsAdmin {
			h.sendText(chatID, "Это правило принадлежит другому пользователю")
			return
		}
	}

	text := rule.MessageText
	if text == "" {
		text = fmt.Sprintf("🔔 Тест правила #%d (%s)", rule.ID, categoryName(rule.EventType))
	}
	h.sendText(chatID, text)
}

func (h *TelegramHandlers) showChatSettings(chatID int64, messageID int, userID int64) {
	member, _ := h.memberSvc.GetByTelegramID(userID)
	if member == nil || !member.IsAdmin {
		h.sendText(chatID, "Настройки чата доступны только администраторам")
		return
	}

	settings, err := h.settingsRepo.Get()
	if err != nil {
		h.sendError(chatID, "Ошибка при получении настроек")
		return
	}
	if settings == nil {
		h.sendText(chatID, "Настройки чата еще не заданы")
		return
	}

	text := fmt.Sprintf("⚙️ Рассылка в чат клана:\n%s Войны\n%s ЛВК\n%s Рейды столицы\n\nЧасовой пояс: %s",
		onOff(settings.NotifyWar), onOff(settings.NotifyCwl), onOff(settings.NotifyCapital),
		settings.Timezone)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Войны", "chat_toggle:war"),
			tgbotapi.NewInlineKeyboardButtonData("ЛВК", "chat_toggle:cwl"),
			tgbotapi.NewInlineKeyboardButtonData("Рейды", "chat_toggle:capital"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Назад", "back"),
		),
	)
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ReplyMarkup = &keyboard
	h.sendEditMessage(edit)
}

func (h *TelegramHandlers) toggleChatCategory(chatID int64, messageID int, userID int64, eventType string) {
	member, _ := h.memberSvc.GetByTelegramID(userID)
	if member == nil || !member.IsAdmin {
		h.sendText(chatID, "Настройки чата доступны только администраторам")
		return
	}

	settings, err := h.settingsRepo.Get()
	if err != nil || settings == nil {
		h.sendError(chatID, "Ошибка при получении настроек")
		return
	}

	switch eventType {
	case models.EventWar:
		settings.NotifyWar = !settings.NotifyWar
	case models.EventCwl:
		settings.NotifyCwl = !settings.NotifyCwl
	case models.EventCapital:
		settings.NotifyCapital = !settings.NotifyCapital
	default:
		return
	}

	if err := h.settingsRepo.CreateOrUpdate(settings); err != nil {
		h.sendError(chatID, "Ошибка при сохранении настроек")
		return
	}
	h.showChatSettings(chatID, messageID, userID)
}

func (h *TelegramHandlers) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		logrus.Printf("Ошибка при отправке сообщения: %v", err)
	}
}

func (h *TelegramHandlers) sendError(chatID int64, text string) {
	h.sendText(chatID, "⚠️ "+text)
}

func (h *TelegramHandlers) clanLocation() *time.Location {
	if settings, err := h.settingsRepo.Get(); err == nil && settings != nil {
		if loc, err := time.LoadLocation(settings.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}

func onOff(enabled bool) string {
	if enabled {
		return "🟢"
	}
	return "🔴"
}

func windowName(window string) string {
	if window == models.WindowDay {
		return "только днем"
	}
	return "всегда"
}

func categoryName(eventType string) string {
	switch eventType {
	case models.EventWar:
		return "войны"
	case models.EventCwl:
		return "ЛВК"
	case models.EventCapital:
		return "рейды"
	}
	return eventType
}
