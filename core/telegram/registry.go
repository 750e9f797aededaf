package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/m3rciful/weatherbot/core/logger"
	"github.com/m3rciful/weatherbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// ComponentWire tags handler registration log lines.
const ComponentWire = "tg.wire"

// Registry collects slash commands and callback handlers keyed by their
// callback unique name before the bot starts.
type Registry struct {
	mu               sync.RWMutex
	commands         map[string]commands.Command
	callbacks        map[string]tele.HandlerFunc
	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		callbacks: make(map[string]tele.HandlerFunc),
		// The callback route has already answered the query.
		callbackNotFound: func(tele.Context) error { return nil },
	}
}

// RegisterCommand adds a "/name" command. Invalid or duplicate commands are
// logged and ignored.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) {
	reason := ""
	switch {
	case len(name) < 2 || name[0] != '/':
		reason = "bad_name"
	case cmd.Handler == nil:
		reason = "nil_handler"
	case cmd.Description == "" && !cmd.Hidden:
		reason = "no_description"
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.commands[name]; reason == "" && dup {
		reason = "duplicate"
	}
	if reason != "" {
		logger.Warn(context.Background(), ComponentWire, "register.command",
			slog.String("status", "skip"),
			slog.String("cause", reason),
			slog.String("op", name),
		)
		return
	}
	r.commands[name] = cmd
}

// Commands returns a copy of the registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]commands.Command, len(r.commands))
	for k, v := range r.commands {
		out[k] = v
	}
	return out
}

// Menu lists the commands shown to regular chats, or to the admin chat when
// admin is set, sorted by name.
func (r *Registry) Menu(admin bool) []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []tele.Command
	for name, cmd := range r.commands {
		if cmd.InMenu(admin) {
			list = append(list, tele.Command{Text: name[1:], Description: cmd.Description})
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// RegisterCallback maps a callback unique name to its handler.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if key == "" || handler == nil {
		return errors.New("invalid callback registration")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.callbacks[key]; exists {
		logger.Warn(context.Background(), ComponentWire, "register.callback",
			slog.String("status", "skip"),
			slog.String("cause", "duplicate"),
			slog.String("cb_key", key),
		)
		return fmt.Errorf("callback already registered: %s", key)
	}
	r.callbacks[key] = handler
	return nil
}

func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// CallbackCount is the number of registered callback keys.
func (r *Registry) CallbackCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.callbacks)
}

// SetCallbackNotFound replaces the handler for callbacks with no registered key.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h != nil {
		r.mu.Lock()
		r.callbackNotFound = h
		r.mu.Unlock()
	}
}

func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbackNotFound
}

// SetTextFallback sets the handler for text no dialog is waiting for.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.mu.Lock()
	r.textFallback = h
	r.mu.Unlock()
}

func (r *Registry) TextFallback() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.textFallback
}

// menuSetter is the part of *tele.Bot InitBotCommands needs.
type menuSetter interface {
	SetCommands(opts ...interface{}) error
}

// InitBotCommands publishes the command menu. When adminID is set the admin
// chat gets its own menu including admin-only commands.
func InitBotCommands(bot menuSetter, reg *Registry, adminID int64) {
	ctx := context.Background()
	if err := bot.SetCommands(reg.Menu(false)); err != nil {
		logger.Error(ctx, ComponentWire, "register.menu",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
	if adminID == 0 {
		return
	}
	scope := tele.CommandScope{Type: tele.CommandScopeChat, ChatID: adminID}
	if err := bot.SetCommands(reg.Menu(true), scope); err != nil {
		logger.Error(ctx, ComponentWire, "register.menu",
			slog.String("status", "fail"),
			slog.Int64("chat_id", adminID),
			slog.String("err", err.Error()),
		)
	}
}
