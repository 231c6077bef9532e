package infrastructure

import (
	"github.com/rs/zerolog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"rsvpbot/internal/interfaces"
)

// TelegramNotifier pushes short operational notes (new RSVPs, broadcast
// summaries) to the operator's chat. Optional: a missing or invalid
// token disables it instead of failing startup.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    zerolog.Logger
}

func NewTelegramNotifier(token string, chatID int64, log zerolog.Logger) *TelegramNotifier {
	n := &TelegramNotifier{
		chatID: chatID,
		log:    log.With().Str("component", "telegram").Logger(),
	}
	if token == "" || chatID == 0 {
		n.log.Info().Msg("telegram notifications disabled")
		return n
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		n.log.Warn().Err(err).Msg("telegram bot token issue, notifications disabled")
		return n
	}
	n.bot = bot
	return n
}

// Enabled reports whether a working bot is attached.
func (n *TelegramNotifier) Enabled() bool {
	return n.bot != nil
}

// Notify sends one Markdown message to the operator chat. No-op when
// disabled.
func (n *TelegramNotifier) Notify(text string) error {
	if n.bot == nil {
		return nil
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = "Markdown"
	_, err := n.bot.Send(msg)
	if err != nil {
		n.log.Warn().Err(err).Msg("telegram notify failed")
	}
	return err
}

var _ interfaces.Notifier = (*TelegramNotifier)(nil)
