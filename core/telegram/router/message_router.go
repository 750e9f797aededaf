package router

import (
	tg "github.com/m3rciful/weatherbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// Dialog is a per-chat conversation that may be waiting for free-text input.
type Dialog interface {
	InProgress(chatID int64) bool
	HandleText(c tele.Context) error
}

// TextRoute handles plain text: the dialog gets it when it is waiting for
// input, the registry's text fallback otherwise. Slash commands never
// reach it; telebot routes them to their own endpoints.
func TextRoute(dialog Dialog, reg *tg.Registry) tg.Route {
	return tg.Route{
		Endpoint: tele.OnText,
		Handler: wrap(func(c tele.Context) error {
			if chat := c.Chat(); dialog != nil && chat != nil && dialog.InProgress(chat.ID) {
				return serve(c, "dialog", dialog.HandleText)
			}
			if fb := reg.TextFallback(); fb != nil {
				return serve(c, "fallback", fb)
			}
			return serve(c, "unknown_text", func(tele.Context) error { return nil })
		}),
	}
}
