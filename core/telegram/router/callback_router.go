package router

import (
	"log/slog"

	"github.com/m3rciful/weatherbot/core/logger"
	tg "github.com/m3rciful/weatherbot/core/telegram"
	"github.com/m3rciful/weatherbot/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute answers every callback query and hands it to the handler
// registered for its unique key, or to the registry's not-found handler.
func CallbackRoute(reg *tg.Registry) tg.Route {
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler: wrap(func(c tele.Context) error {
			if c.Callback() == nil {
				return nil
			}
			// Stops the client spinner; replies go out as new messages.
			_ = c.Respond()

			key := callbacks.CallbackKey(c)
			attrs := []slog.Attr{slog.String("cb_key", logger.SanitizeLimit(key, 64))}
			h, ok := reg.GetCallback(key)
			if !ok {
				h = reg.CallbackNotFound()
				attrs = append(attrs, slog.String("cause", "not_found"))
			}
			return serve(c, "callback."+handlerName(key), h, attrs...)
		}),
	}
}
