package telegram

// Client sends plain text messages to a Telegram chat.
type Client interface {
	SendText(chatID int64, text string) error
}
