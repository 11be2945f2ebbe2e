package notify

import (
	"context"
	"fmt"
	"html"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"splitclub-server/internal/domain"
	"splitclub-server/internal/infra/metrics"
)

// TelegramNotifier отправляет уведомления в админский чат Telegram.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

var _ domain.Notifier = (*TelegramNotifier)(nil)

func NewTelegramNotifier(bot *tgbotapi.BotAPI, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatID: chatID}
}

// Notify форматирует и отправляет сообщение по типу задачи.
func (n *TelegramNotifier) Notify(ctx context.Context, job domain.NotificationJob) error {
	if n.bot == nil {
		return fmt.Errorf("telegram bot не настроен")
	}

	text := formatJob(job)
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	start := time.Now()
	_, err := n.bot.Send(msg)
	metrics.ObserveNetworkRequest("telegram", "send_notification", string(job.Kind), start, err)
	if err != nil {
		metrics.NotifySendErrors.Inc()
		return fmt.Errorf("отправка уведомления: %w", err)
	}
	return nil
}

func formatJob(job domain.NotificationJob) string {
	switch job.Kind {
	case domain.NotifyClaimCreated:
		return fmt.Sprintf("🎟 <b>Новый claim</b>\n%s\nПользователь: <code>%s</code>",
			html.EscapeString(job.DealTitle), html.EscapeString(job.UserID))
	case domain.NotifyDealPublished:
		return fmt.Sprintf("📦 <b>Новое предложение</b>\n%s", html.EscapeString(job.DealTitle))
	case domain.NotifyContactMessage:
		return fmt.Sprintf("✉️ <b>Обратная связь</b>\n%s", html.EscapeString(job.Message))
	default:
		return fmt.Sprintf("ℹ️ %s", html.EscapeString(job.Message))
	}
}
