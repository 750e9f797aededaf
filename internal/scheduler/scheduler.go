// Package scheduler periodically evaluates every active alert against the
// forecast and notifies the owning chat when one fires.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/m3rciful/weatherbot/core/logger"
	"github.com/m3rciful/weatherbot/internal/domain"
	"github.com/m3rciful/weatherbot/internal/evaluator"
	"github.com/m3rciful/weatherbot/internal/weather"
)

const (
	DefaultInterval     = 300 * time.Second
	DefaultCooldown     = 60 * time.Minute
	DefaultDelay        = 100 * time.Millisecond
	DefaultForecastDays = 3
)

// Notifier delivers a plain-text notification and reports whether it was sent.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// Users is the slice of users.Service the scheduler depends on.
type Users interface {
	Snapshot() []domain.UserData
	MarkTriggered(ctx context.Context, chatID int64, alertID string, at time.Time) error
}

type Options struct {
	Interval     time.Duration
	Cooldown     time.Duration
	Delay        time.Duration
	ForecastDays int
	Now          func() time.Time
}

// Summary counts what a single tick did.
type Summary struct {
	Checked   int
	Triggered int
	Sent      int
	Skipped   int
	Failed    int
}

type Scheduler struct {
	users    Users
	provider weather.Provider
	notifier Notifier
	opts     Options
}

func New(users Users, provider weather.Provider, notifier Notifier, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.ForecastDays <= 0 {
		opts.ForecastDays = DefaultForecastDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{users: users, provider: provider, notifier: notifier, opts: opts}
}

// Run ticks every Interval until ctx is cancelled. The first tick happens
// immediately; ticks never overlap.
func (s *Scheduler) Run(ctx context.Context) error {
	cron := gocron.NewScheduler(time.UTC)
	cron.SingletonModeAll()
	if _, err := cron.Every(s.opts.Interval).Do(func() { s.Tick(ctx) }); err != nil {
		return err
	}

	logger.Info(ctx, logger.ComponentScheduler, "scheduler.start",
		slog.Duration("interval", s.opts.Interval),
		slog.Duration("cooldown", s.opts.Cooldown),
	)
	cron.StartAsync()
	<-ctx.Done()
	cron.Stop()
	logger.Info(context.Background(), logger.ComponentScheduler, "scheduler.stop")
	return nil
}

// Tick runs one evaluation pass over a snapshot of all users.
func (s *Scheduler) Tick(ctx context.Context) Summary {
	start := time.Now()
	var sum Summary
	users := s.users.Snapshot()

	first := true
	for _, u := range users {
		for _, a := range u.Alerts {
			if !a.Active {
				continue
			}
			if ctx.Err() != nil {
				s.logSummary(ctx, sum, start, len(users))
				return sum
			}
			sum.Checked++
			if a.InCooldown(s.opts.Now(), s.opts.Cooldown) {
				sum.Skipped++
				continue
			}
			if !first && !sleep(ctx, s.opts.Delay) {
				s.logSummary(ctx, sum, start, len(users))
				return sum
			}
			first = false

			actx := logger.WithAlert(logger.WithChat(ctx, u.ChatID), a.ID, a.City)
			fired, err := s.evaluate(actx, a)
			if err != nil {
				sum.Failed++
				logAlertError(actx, "alert.evaluate", err)
				continue
			}
			if !fired {
				continue
			}
			sum.Triggered++
			if err := s.deliver(context.WithoutCancel(actx), u.ChatID, a); err != nil {
				sum.Failed++
				logAlertError(actx, "alert.notify", err)
				continue
			}
			sum.Sent++
		}
	}
	s.logSummary(ctx, sum, start, len(users))
	return sum
}

func (s *Scheduler) evaluate(ctx context.Context, a domain.Alert) (bool, error) {
	fc, err := s.provider.Forecast(ctx, a.City, s.opts.ForecastDays)
	if err != nil {
		return false, err
	}
	return evaluator.Forecast(a, fc), nil
}

// deliver sends the notification and records the trigger only once the
// message went out.
func (s *Scheduler) deliver(ctx context.Context, chatID int64, a domain.Alert) error {
	cur, err := s.provider.Current(ctx, a.City)
	if err != nil {
		return err
	}
	now := s.opts.Now().UTC()
	if err := s.notifier.Notify(ctx, chatID, Message(a, cur, now)); err != nil {
		return err
	}
	if err := s.users.MarkTriggered(ctx, chatID, a.ID, now); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	logger.Info(ctx, logger.ComponentScheduler, "alert.triggered",
		slog.String("status", "triggered"),
		slog.String("alert_kind", string(a.Kind.Type)),
	)
	return nil
}

// logAlertError relies on ctx carrying the chat and alert from WithAlert.
func logAlertError(ctx context.Context, event string, err error) {
	logger.Warn(ctx, logger.ComponentScheduler, event,
		slog.String("status", "fail"),
		slog.String("err", err.Error()),
	)
}

func (s *Scheduler) logSummary(ctx context.Context, sum Summary, start time.Time, users int) {
	if sum.Checked == 0 {
		if logger.ShouldSampleDebug() {
			logger.Debug(ctx, logger.ComponentScheduler, "scheduler.tick", slog.Int("users", users))
		}
		return
	}
	logger.Info(ctx, logger.ComponentScheduler, "scheduler.tick",
		slog.Int("users", users),
		slog.Int("checked", sum.Checked),
		slog.Int("triggered", sum.Triggered),
		slog.Int("sent", sum.Sent),
		slog.Int("skipped", sum.Skipped),
		slog.Int("failed", sum.Failed),
		slog.Duration("took", logger.Took(start)),
	)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
