package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/selivandex/newsdigest/internal/adapters/config"
	"github.com/selivandex/newsdigest/pkg/logger"
	"github.com/selivandex/newsdigest/pkg/models"
)

// Telegram limits messages to 4096 characters
const maxMessageLen = 4000

// Notifier delivers daily reports to a Telegram chat
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewNotifier creates new Telegram notifier
func NewNotifier(cfg *config.TelegramConfig) (*Notifier, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	bot.Debug = false

	logger.Info("telegram notifier initialized",
		zap.String("bot_username", bot.Self.UserName),
	)

	return &Notifier{api: bot, chatID: cfg.ChatID}, nil
}

// SendDailyReport pushes a report's aggregate text to the configured chat
func (n *Notifier) SendDailyReport(report *models.DailyReport) error {
	text := report.AggregateText
	if len(text) > maxMessageLen {
		text = text[:maxMessageLen] + "\n…(truncated)"
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send daily report: %w", err)
	}

	logger.Info("daily report delivered",
		zap.String("symbol", report.Symbol),
		zap.String("date", report.Date.Format("2006-01-02")),
		zap.Int("entries", len(report.Entries)),
	)

	return nil
}
