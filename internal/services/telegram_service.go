package services

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"salespipe/internal/models"
)

// TelegramNotifier posts conversion events to the ops channel. Optional: a
// nil notifier is simply not wired into the pipeline service.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(botToken string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (n *TelegramNotifier) LeadConverted(lead *models.Lead, company *models.Company) {
	if n == nil || n.bot == nil || n.chatID == 0 {
		return
	}
	text := fmt.Sprintf("🎉 Lead <b>%s</b> contracted (%s). Company account <b>%s</b> created.",
		lead.CompanyName, lead.EstimatedValue.StringFixed(2), company.Name)
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := n.bot.Send(msg); err != nil {
		log.Warn().Err(err).Str("lead_id", lead.ID).Msg("[notify][tg] send failed")
	}
}
