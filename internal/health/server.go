// Package health serves liveness and usage statistics over HTTP.
package health

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/m3rciful/weatherbot/core/buildinfo"
	"github.com/m3rciful/weatherbot/core/logger"
	"github.com/m3rciful/weatherbot/internal/users"
)

// StatsSource reports aggregate user statistics.
type StatsSource interface {
	Stats() users.Stats
}

type Server struct {
	app    *fiber.App
	listen string
}

// New builds the HTTP app. Listen is the address passed to Start.
func New(listen string, stats StatsSource) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "weatherbot",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})
	app.Use(recover.New())
	app.Use(accessLog)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"version": buildinfo.Version,
			"build":   buildinfo.String(),
		})
	})
	app.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(stats.Stats())
	})

	return &Server{app: app, listen: listen}
}

// App exposes the fiber app for in-process requests.
func (s *Server) App() *fiber.App { return s.app }

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	logger.Info(context.Background(), logger.ComponentHTTP, "http.start",
		slog.String("listen", s.listen),
	)
	go func() {
		if err := s.app.Listen(s.listen); err != nil {
			logger.Error(context.Background(), logger.ComponentHTTP, "http.stopped",
				slog.String("err", err.Error()),
			)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func accessLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	if logger.ShouldSampleDebug() {
		logger.Debug(c.UserContext(), logger.ComponentHTTP, "http.request",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("code", c.Response().StatusCode()),
			slog.Duration("took", logger.Took(start)),
		)
	}
	return err
}
