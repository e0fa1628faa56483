package telegram

import (
	"github.com/dmitrijs2005/keeperbot/internal/bot"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// render converts a reply into the API calls that deliver it: a text
// message (with one option per keyboard row) and/or a document.
func render(chatID int64, reply bot.Reply) []tgbotapi.Chattable {
	var out []tgbotapi.Chattable

	if reply.Text != "" {
		msg := tgbotapi.NewMessage(chatID, reply.Text)
		if reply.HTML {
			msg.ParseMode = tgbotapi.ModeHTML
		}
		if len(reply.Options) > 0 {
			rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(reply.Options))
			for _, o := range reply.Options {
				rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(o.Label, o.Data)))
			}
			msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
		}
		out = append(out, msg)
	}

	if reply.Document != nil {
		out = append(out, tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
			Name:  reply.Document.Name,
			Bytes: reply.Document.Data,
		}))
	}

	return out
}
