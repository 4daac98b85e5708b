package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender — точка доставки сообщений. Отдельный интерфейс, чтобы трекеры и
// диспетчер не зависели от tgbotapi и подменялись в тестах.
type Sender interface {
	Send(chatID int64, text string) error
}

// BotSender отправляет сообщения через Telegram Bot API
type BotSender struct {
	bot *tgbotapi.BotAPI
}

func NewBotSender(bot *tgbotapi.BotAPI) *BotSender {
	return &BotSender{bot: bot}
}

func (s *BotSender) Send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := s.bot.Send(msg)
	return err
}

// IsPermanentError отличает "получатель недоступен навсегда" (заблокировал
// бота, удалил аккаунт, выгнал бота из чата) от временных сбоев сети или
// лимитов. По постоянной ошибке доставку этому получателю отключаем.
func IsPermanentError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "bot was blocked by the user") ||
		strings.Contains(errStr, "user is deactivated") ||
		strings.Contains(errStr, "chat not found") ||
		strings.Contains(errStr, "bot was kicked") ||
		strings.Contains(errStr, "bot can't initiate conversation")
}
