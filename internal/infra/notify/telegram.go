// File: internal/infra/notify/telegram.go
package notify

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"course-marketplace/internal/config"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/infra/metrics"
)

var _ adapter.OpsNotifier = (*TelegramOpsNotifier)(nil)

// TelegramOpsNotifier posts short alerts to the operations group chat.
type TelegramOpsNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *zerolog.Logger
}

func NewTelegramOpsNotifier(cfg config.TelegramConfig, logger *zerolog.Logger) (*TelegramOpsNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	return &TelegramOpsNotifier{bot: bot, chatID: cfg.ChatID, log: logger}, nil
}

func (t *TelegramOpsNotifier) Alert(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		metrics.IncNotification("ops_alert", "error")
		return err
	}
	metrics.IncNotification("ops_alert", "sent")
	return nil
}
