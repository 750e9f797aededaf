// Package helpers carries per-update state on tele.Context: the logging
// context built once per update and the replies queued by handlers.
package helpers

import (
	"context"

	"github.com/m3rciful/weatherbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const (
	ctxKey      = "logger_ctx"
	queuedKey   = "queued_messages"
	keyboardKey = "queued_keyboard"
)

// BuildContext returns the update's logging context, creating and caching
// it on first use. It carries rid, update, user and chat ids.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := c.Get(ctxKey).(context.Context); ok {
		return ctx
	}
	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	updateID := c.Update().ID
	ctx := logger.WithRID(context.Background(), logger.BuildRID(updateID, chatID, userID))
	ctx = logger.WithUpdateMeta(ctx, updateID, userID, chatID)
	c.Set(ctxKey, ctx)
	return ctx
}

// WithHandler names the handler in the cached context and returns it.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := logger.WithHandler(BuildContext(c), handler)
	c.Set(ctxKey, ctx)
	return ctx
}

// Queued reports how many messages handlers queued for this update and
// whether any carried a keyboard.
func Queued(c tele.Context) (messages int, keyboard bool) {
	messages, _ = c.Get(queuedKey).(int)
	keyboard, _ = c.Get(keyboardKey).(bool)
	return messages, keyboard
}

func track(c tele.Context, messages int, keyboard bool) {
	n, _ := c.Get(queuedKey).(int)
	c.Set(queuedKey, n+messages)
	if keyboard {
		c.Set(keyboardKey, true)
	}
}
