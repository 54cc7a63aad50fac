package telegram

import (
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func RegisterBotCommands(b *telebot.Bot, adminTelegramID int64, baseLogger *logrus.Entry) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")

		if senderID == adminTelegramID {
			return c.Send("Hello, " + c.Sender().FirstName + "! The alarm notifier is running. Use /help for the list of commands.")
		}
		return c.Send("This bot is for operators of the todo alarm notifier only.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")

		if senderID != adminTelegramID {
			return c.Send("No commands are available to you.")
		}
		return c.Send(AdminHelp(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}

// AdminHelp lists the operator commands.
func AdminHelp() string {
	var helpText strings.Builder
	helpText.WriteString("Operator commands:\n\n")
	helpText.WriteString("`/stats`\n - Waiting alarms, average notification delay and orphaned notifications.\n\n")
	helpText.WriteString("`/run_cycle`\n - Run an escalation cycle now. Safe next to scheduled cycles.\n\n")
	helpText.WriteString("`/sweep_orphans`\n - Mark old notifications that no alarm points to as orphaned.\n\n")
	helpText.WriteString("`/help`\n - Show this message.")
	return helpText.String()
}
