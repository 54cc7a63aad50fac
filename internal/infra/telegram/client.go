package telegram

import (
	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendText sends a plain text message to a private chat. Alert texts carry raw error
// messages, so no parse mode is set.
func (tba *TelebotAdapter) SendText(chatID int64, text string) error {
	options := &telebot.SendOptions{DisableWebPagePreview: true}
	_, err := tba.bot.Send(&telebot.User{ID: chatID}, text, options)
	return err
}
