package app

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/KinkLid/cocBot-sub000/internal/handlers"
)

// runBot читает обновления Telegram до отмены контекста
func runBot(ctx context.Context, bot *tgbotapi.BotAPI, telegramHandlers *handlers.TelegramHandlers) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := bot.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		bot.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message != nil {
			go telegramHandlers.HandleMessage(update.Message)
		} else if update.CallbackQuery != nil {
			go telegramHandlers.HandleCallback(update.CallbackQuery)
		}
	}
}
