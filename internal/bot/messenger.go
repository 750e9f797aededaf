package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/weatherbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

var errBotNotReady = errors.New("telegram bot is not started")

// Messenger sends bot-initiated messages. It is created before the bot and
// becomes usable once Attach is called from the start hook.
type Messenger struct {
	bot atomic.Pointer[tele.Bot]
}

func NewMessenger() *Messenger { return &Messenger{} }

func (m *Messenger) Attach(b *tele.Bot) { m.bot.Store(b) }

func (m *Messenger) current() (*tele.Bot, error) {
	b := m.bot.Load()
	if b == nil {
		return nil, errBotNotReady
	}
	return b, nil
}

// Notify sends plain text synchronously so the caller knows whether it was
// delivered.
func (m *Messenger) Notify(ctx context.Context, chatID int64, text string) error {
	b, err := m.current()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err = b.Send(tele.ChatID(chatID), text)
	return err
}

// Reach checks that the chat still accepts messages from the bot.
func (m *Messenger) Reach(ctx context.Context, chatID int64) error {
	b, err := m.current()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.Notify(tele.ChatID(chatID), tele.Typing)
}

// Typing shows the typing indicator; failures are only logged.
func (m *Messenger) Typing(ctx context.Context, chatID int64) {
	if err := m.Reach(ctx, chatID); err != nil && !errors.Is(err, errBotNotReady) {
		logger.Debug(ctx, logger.ComponentTG, "chat.typing",
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
	}
}
