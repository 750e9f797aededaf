package bot

import (
	"context"
	"log/slog"

	"github.com/m3rciful/weatherbot/core/logger"
	"github.com/m3rciful/weatherbot/core/telegram/helpers"
	"github.com/m3rciful/weatherbot/core/telegram/keyboard"
	"github.com/m3rciful/weatherbot/internal/conversation"

	tele "gopkg.in/telebot.v4"
)

// outgoing converts engine replies into telebot messages. The action kind
// travels as the button's unique key and the argument as its payload.
func outgoing(ctx context.Context, replies []conversation.Reply) []helpers.Outgoing {
	out := make([]helpers.Outgoing, 0, len(replies))
	for _, r := range replies {
		if r.Text == "" {
			continue
		}
		opts := &tele.SendOptions{ParseMode: parseMode(r.Mode)}
		if len(r.Keyboard) > 0 {
			opts.ReplyMarkup = inlineMarkup(ctx, r.Keyboard)
		}
		out = append(out, helpers.Outgoing{Text: r.Text, Opts: opts})
	}
	return out
}

// inlineMarkup keeps oversized buttons. Telegram rejects the whole message
// and the sender logs that; the warning names the offending button.
func inlineMarkup(ctx context.Context, kb [][]conversation.Button) *tele.ReplyMarkup {
	rows := make([][]keyboard.Button, 0, len(kb))
	for _, row := range kb {
		btns := make([]keyboard.Button, 0, len(row))
		for _, b := range row {
			btn := keyboard.Button{
				Text:   b.Label,
				Unique: string(b.Action.Kind),
				Data:   b.Action.Arg,
			}
			if n := btn.CallbackSize(); n > keyboard.MaxCallbackData {
				logger.Warn(ctx, logger.ComponentTG, "keyboard.button",
					slog.String("status", "fail"),
					slog.String("cause", "callback_too_long"),
					slog.String("cb_key", btn.Unique),
					slog.Int("size", n),
				)
			}
			btns = append(btns, btn)
		}
		rows = append(rows, btns)
	}
	return keyboard.Inline(rows)
}

func parseMode(m conversation.Mode) tele.ParseMode {
	switch m {
	case conversation.ModeMarkdownV2:
		return tele.ModeMarkdownV2
	case conversation.ModeHTML:
		return tele.ModeHTML
	}
	return tele.ModeDefault
}
