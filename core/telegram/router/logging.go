// Package router turns the registry into telebot routes. Every route logs
// one handler.handled line with its outcome and the replies it queued.
package router

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/weatherbot/core/logger"
	tghelpers "github.com/m3rciful/weatherbot/core/telegram/helpers"
	"github.com/m3rciful/weatherbot/core/telegram/middleware"
	"github.com/m3rciful/weatherbot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

// wrap adds the per-route middlewares shared by every route.
func wrap(h tele.HandlerFunc) tele.HandlerFunc {
	return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
}

// serve runs fn under the handler name and logs its summary.
func serve(c tele.Context, name string, fn tele.HandlerFunc, extras ...slog.Attr) error {
	start := time.Now()
	ctx := tghelpers.WithHandler(c, name)
	err := fn(c)

	msgs, kb := tghelpers.Queued(c)
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("outcome", logger.Status(err)),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errCode(err)),
		)
	}
	logger.Info(ctx, logger.ComponentTG, "handler.handled", append(attrs, extras...)...)
	return err
}

// handlerName turns "/start" or "town pick" into a log-friendly key.
func handlerName(name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if name == "" {
		return "unknown"
	}
	return strings.ReplaceAll(name, " ", "_")
}

// errCode groups errors for dashboards: Telegram API codes, gone chats,
// transient network failures, or the Go type name.
func errCode(err error) string {
	var apiErr *tele.Error
	switch {
	case netutil.IsChatGone(err):
		return "CHAT_GONE"
	case errors.As(err, &apiErr):
		return fmt.Sprintf("TG_%d", apiErr.Code)
	case netutil.ShouldRetry(err):
		return "TRANSIENT"
	}
	name := fmt.Sprintf("%T", err)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToUpper(strings.TrimPrefix(name, "*"))
}
