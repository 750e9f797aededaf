// Package bot adapts the conversation engine to Telegram.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/weatherbot/core/logger"
	tg "github.com/m3rciful/weatherbot/core/telegram"
	"github.com/m3rciful/weatherbot/core/telegram/callbacks"
	"github.com/m3rciful/weatherbot/core/telegram/commands"
	"github.com/m3rciful/weatherbot/core/telegram/helpers"
	"github.com/m3rciful/weatherbot/internal/conversation"
	"github.com/m3rciful/weatherbot/internal/domain"
	"github.com/m3rciful/weatherbot/internal/users"

	tele "gopkg.in/telebot.v4"
)

// Conversation is the transport-agnostic dialogue the handlers drive.
type Conversation interface {
	HandleCommand(ctx context.Context, chatID int64, name string) ([]conversation.Reply, error)
	HandleAction(ctx context.Context, chatID int64, a conversation.Action) ([]conversation.Reply, error)
	HandleText(ctx context.Context, chatID int64, text string) ([]conversation.Reply, error)
}

// Directory exposes the per-chat records the handlers read.
type Directory interface {
	Get(chatID int64) domain.UserData
	Stats() users.Stats
}

type Handlers struct {
	conv  Conversation
	users Directory
}

func NewHandlers(conv Conversation, dir Directory) *Handlers {
	return &Handlers{conv: conv, users: dir}
}

// Register installs commands and one callback per action kind.
func (h *Handlers) Register(reg *tg.Registry) error {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.command("start"),
		Description: "Start the bot",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     h.command("help"),
		Description: "Display available commands",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     h.stats,
		Description: "Show bot statistics",
		AdminOnly:   true,
	})

	for _, kind := range conversation.Kinds() {
		if err := reg.RegisterCallback(string(kind), h.callback(kind)); err != nil {
			return fmt.Errorf("register %s: %w", kind, err)
		}
	}
	reg.SetCallbackNotFound(h.legacyCallback)
	reg.SetTextFallback(h.HandleText)
	return nil
}

// InProgress reports whether the chat's conversation awaits free text.
func (h *Handlers) InProgress(chatID int64) bool {
	u := h.users.Get(chatID)
	return u.Conversation.Step.Awaiting()
}

// HandleText feeds free text into the conversation.
func (h *Handlers) HandleText(c tele.Context) error {
	chatID, ok := chatOf(c)
	if !ok {
		return nil
	}
	ctx := helpers.BuildContext(c)
	replies, err := h.conv.HandleText(ctx, chatID, c.Text())
	return h.reply(c, replies, err)
}

func (h *Handlers) command(name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		chatID, ok := chatOf(c)
		if !ok {
			return nil
		}
		ctx := helpers.BuildContext(c)
		replies, err := h.conv.HandleCommand(ctx, chatID, name)
		return h.reply(c, replies, err)
	}
}

func (h *Handlers) callback(kind conversation.ActionKind) tele.HandlerFunc {
	return func(c tele.Context) error {
		return h.dispatch(c, conversation.Action{Kind: kind, Arg: callbacks.CallbackPayload(c)})
	}
}

// legacyCallback accepts flat tokens such as "town_Kyiv" from keyboards
// sent before actions carried a separate payload.
func (h *Handlers) legacyCallback(c tele.Context) error {
	return h.dispatch(c, conversation.ParseAction(callbacks.CallbackKey(c)))
}

func (h *Handlers) dispatch(c tele.Context, a conversation.Action) error {
	chatID, ok := chatOf(c)
	if !ok {
		return nil
	}
	ctx := helpers.BuildContext(c)
	replies, err := h.conv.HandleAction(ctx, chatID, a)
	return h.reply(c, replies, err)
}

func (h *Handlers) stats(c tele.Context) error {
	st := h.users.Stats()
	text := fmt.Sprintf("📊 Bot statistics\n\n👥 Users: %d\n🏠 With home town: %d\n🔔 Alerts: %d (%d active)\n📤 Failed sends: %d",
		st.Users, st.WithHomeTown, st.Alerts, st.ActiveAlerts, helpers.SendFailures())
	return helpers.SendText(c, text)
}

func (h *Handlers) reply(c tele.Context, replies []conversation.Reply, err error) error {
	if err != nil {
		logger.Error(helpers.BuildContext(c), logger.ComponentDialog, "conversation.failed",
			slog.String("err", err.Error()),
		)
		return helpers.SendText(c, "Sorry, something went wrong. Please try again.")
	}
	return helpers.SendSequence(c, outgoing(helpers.BuildContext(c), replies))
}

func chatOf(c tele.Context) (int64, bool) {
	if chat := c.Chat(); chat != nil {
		return chat.ID, true
	}
	if u := c.Sender(); u != nil {
		return u.ID, true
	}
	return 0, false
}
