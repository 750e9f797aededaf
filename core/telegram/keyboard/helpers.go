// Package keyboard builds inline keyboards whose buttons route back through
// the registry by unique key.
package keyboard

import tele "gopkg.in/telebot.v4"

// MaxCallbackData is Telegram's limit on callback data, in bytes.
const MaxCallbackData = 64

// Button is one inline button. Unique selects the registered callback and
// Data is handed to it as the payload.
type Button struct {
	Text   string
	Unique string
	Data   string
}

// CallbackSize is the encoded callback data length telebot will send.
func (b Button) CallbackSize() int {
	// "\f" + unique + "|" + data
	return len(b.Unique) + len(b.Data) + 2
}

// Inline lays out rows of buttons as an inline keyboard.
func Inline(rows [][]Button) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.InlineKeyboard = make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		line := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			line = append(line, *markup.Data(b.Text, b.Unique, b.Data).Inline())
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, line)
	}
	return markup
}
