package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/weatherbot/core/logger"
	"github.com/m3rciful/weatherbot/core/telegram/netutil"
)

// Checker checks that a chat is still reachable.
type Checker interface {
	Reach(ctx context.Context, chatID int64) error
}

// Roster is the part of users.Service the sweep needs.
type Roster interface {
	ChatIDs() []int64
	Forget(ctx context.Context, chatID int64) error
}

// SweepBlocked checks every known chat and forgets those that blocked the bot
// or no longer exist. Other errors keep the user. It returns the number
// of removed users.
func SweepBlocked(ctx context.Context, users Roster, checker Checker, pause time.Duration) int {
	start := time.Now()
	ids := users.ChatIDs()
	removed := 0
	for i, id := range ids {
		if i > 0 && !sleep(ctx, pause) {
			break
		}
		err := checker.Reach(ctx, id)
		if err == nil {
			continue
		}
		if !netutil.IsChatGone(err) {
			logger.Debug(ctx, logger.ComponentScheduler, "sweep.check",
				slog.Int64("chat_id", id),
				slog.String("err", err.Error()),
			)
			continue
		}
		if err := users.Forget(ctx, id); err != nil {
			logger.Warn(ctx, logger.ComponentScheduler, "sweep.forget",
				slog.String("status", "fail"),
				slog.Int64("chat_id", id),
				slog.String("err", err.Error()),
			)
			continue
		}
		removed++
	}
	logger.Info(ctx, logger.ComponentScheduler, "sweep.done",
		slog.Int("users", len(ids)),
		slog.Int("removed", removed),
		slog.Duration("took", logger.Took(start)),
	)
	return removed
}
