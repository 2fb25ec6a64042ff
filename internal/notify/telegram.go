// Package notify pushes a short admin notification to Telegram when a
// quote is submitted. Notification failures are logged and swallowed:
// the client-facing outcome never depends on the admin channel.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"quote-service/internal/catalog"
	"quote-service/internal/pricing"
	"quote-service/internal/wizard"
)

type Notifier interface {
	QuoteSubmitted(sel wizard.Selection, bd pricing.Breakdown)
}

// Telegram sends submission summaries to a single admin chat.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	cat    *catalog.Catalog
	logger *zap.Logger
}

func NewTelegram(token string, chatID int64, cat *catalog.Catalog, logger *zap.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram notifier: %w", err)
	}

	logger.Info("Telegram notifier ready", zap.String("bot", bot.Self.UserName))
	return &Telegram{bot: bot, chatID: chatID, cat: cat, logger: logger}, nil
}

func (t *Telegram) QuoteSubmitted(sel wizard.Selection, bd pricing.Breakdown) {
	projectName := sel.ProjectType
	if p, ok := t.cat.ProjectTypeByID(sel.ProjectType); ok {
		projectName = p.Name
	}

	text := fmt.Sprintf(
		"Nouvelle demande de devis\n\nClient: %s (%s)\nProjet: %s\nTotal TTC: %d€",
		sel.Contact.Name, sel.Contact.Email, projectName, bd.TotalWithTax,
	)
	if sel.Contact.Company != "" {
		text += "\nEntreprise: " + sel.Contact.Company
	}

	if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
		t.logger.Warn("Admin notification failed", zap.Error(err))
		return
	}
	t.logger.Info("Admin notified", zap.Int64("chat_id", t.chatID))
}

// Noop is used when no Telegram credentials are configured.
type Noop struct{}

func (Noop) QuoteSubmitted(wizard.Selection, pricing.Breakdown) {}
