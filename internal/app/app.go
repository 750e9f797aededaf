// Package app wires configuration, persistence, the weather provider, the
// conversation engine, the alert scheduler and the Telegram runtime.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/m3rciful/weatherbot/core/bootstrap"
	"github.com/m3rciful/weatherbot/core/logger"
	coretelegram "github.com/m3rciful/weatherbot/core/telegram"
	"github.com/m3rciful/weatherbot/core/telegram/router"
	"github.com/m3rciful/weatherbot/internal/bot"
	"github.com/m3rciful/weatherbot/internal/config"
	"github.com/m3rciful/weatherbot/internal/conversation"
	"github.com/m3rciful/weatherbot/internal/health"
	"github.com/m3rciful/weatherbot/internal/scheduler"
	"github.com/m3rciful/weatherbot/internal/store"
	"github.com/m3rciful/weatherbot/internal/users"
	"github.com/m3rciful/weatherbot/internal/weather/weatherapi"

	tele "gopkg.in/telebot.v4"
)

const (
	sweepPause      = 100 * time.Millisecond
	shutdownTimeout = 5 * time.Second
)

// App owns every long-lived component of the bot.
type App struct {
	cfg       *config.Config
	store     store.Store
	users     *users.Service
	handlers  *bot.Handlers
	messenger *bot.Messenger
	scheduler *scheduler.Scheduler
	health    *health.Server
	registry  *coretelegram.Registry

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Bootstrap initializes logging and storage, loads every user and builds the
// components. Failing to open or load storage is fatal.
func Bootstrap(cfg *config.Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:       &cfg.Config,
		Database:     cfg.Database,
		SkipDatabase: !cfg.UsesDatabase(),
	})
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	var st store.Store
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		st = store.NewPostgres(res.DB)
	case config.DriverSQLite:
		if st, err = store.OpenSQLite(ctx, cfg.Store.SQLitePath); err != nil {
			return nil, err
		}
	default:
		st = store.NewMemory()
	}

	svc := users.NewService(st)
	n, err := svc.Load(ctx)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("load users: %w", err)
	}
	stats := svc.Stats()
	logger.Info(ctx, logger.ComponentUsers, "users.loaded",
		slog.String("driver", cfg.Store.Driver),
		slog.Int("users", n),
		slog.Int("alerts", stats.Alerts),
	)

	provider := weatherapi.New(weatherapi.Options{
		APIKey:     cfg.Weather.APIKey,
		BaseURL:    cfg.Weather.BaseURL,
		HTTPClient: &http.Client{Timeout: cfg.Weather.Timeout},
		Backoff: weatherapi.Backoff{
			MaxRetries:      cfg.Weather.MaxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
	})

	messenger := bot.NewMessenger()
	engine := conversation.New(svc, provider, conversation.Options{
		ForecastDays: cfg.Weather.ForecastDays,
		Typing:       messenger.Typing,
	})
	handlers := bot.NewHandlers(engine, svc)
	reg := coretelegram.NewRegistry()
	if err := handlers.Register(reg); err != nil {
		_ = st.Close()
		return nil, err
	}

	a := &App{
		cfg:       cfg,
		store:     st,
		users:     svc,
		handlers:  handlers,
		messenger: messenger,
		registry:  reg,
		scheduler: scheduler.New(svc, provider, messenger, scheduler.Options{
			Interval:     cfg.Alerts.CheckInterval,
			Cooldown:     cfg.Alerts.Cooldown,
			Delay:        cfg.Alerts.Delay,
			ForecastDays: cfg.Weather.ForecastDays,
		}),
	}
	if cfg.Health.Listen != "" {
		a.health = health.New(cfg.Health.Listen, svc)
	}
	return a, nil
}

// TelegramRunOptions describes routes and lifecycle hooks for the runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := &a.cfg.Config
	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID: core.Telegram.AdminID,
		OnAdminReject: func(c tele.Context) error {
			return c.Send("This command is only available to the bot administrator.")
		},
	})
	routes = append(routes,
		router.CallbackRoute(a.registry),
		router.TextRoute(a.handlers, a.registry),
	)

	return coretelegram.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Middlewares: coretelegram.DefaultMiddlewares(core, nil),
		Routes:      routes,
		OnStart:     a.start,
		OnStop:      a.stop,
	}, nil
}

func (a *App) start(ctx context.Context, rt coretelegram.Runtime) error {
	a.messenger.Attach(rt.Bot)

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.health != nil {
		a.health.Start()
	}

	jobs := []func(context.Context){a.runScheduler}
	if !a.cfg.Alerts.SkipSweep {
		jobs = append(jobs, a.sweep)
	}
	background(runCtx, &a.wg, jobs...)
	return nil
}

func (a *App) runScheduler(ctx context.Context) {
	if err := a.scheduler.Run(ctx); err != nil {
		logger.Error(ctx, logger.ComponentScheduler, "scheduler.failed",
			slog.String("err", err.Error()),
		)
	}
}

func (a *App) sweep(ctx context.Context) {
	scheduler.SweepBlocked(ctx, a.users, a.messenger, sweepPause)
}

// background runs each job in its own goroutine tracked by wg.
func background(ctx context.Context, wg *sync.WaitGroup, jobs ...func(context.Context)) {
	for _, job := range jobs {
		job := job
		wg.Add(1)
		go func() {
			defer wg.Done()
			job(ctx)
		}()
	}
}

func (a *App) stop(_ context.Context, _ coretelegram.Runtime) error {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if a.health != nil {
		if err := a.health.Shutdown(ctx); err != nil {
			logger.Warn(ctx, logger.ComponentHTTP, "http.shutdown",
				slog.String("err", err.Error()),
			)
		}
	}
	return a.store.Close()
}
