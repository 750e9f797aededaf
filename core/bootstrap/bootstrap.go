// Package bootstrap brings up the infrastructure a bot needs before its own
// components: logging first, then the database and its migrations.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/weatherbot/core/config"
	coredatabase "github.com/m3rciful/weatherbot/core/database"
	"github.com/m3rciful/weatherbot/core/logger"
)

// Options selects the steps to run. The function fields default to the
// core implementations and exist for tests.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	// SkipDatabase leaves Result.DB nil for bots persisting elsewhere.
	SkipDatabase bool

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

// Result holds what Run opened.
type Result struct {
	DB *sqlx.DB
}

// Close releases the database handle, if any.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initializes the logger and, unless skipped, connects to the database
// and applies migrations. On failure everything opened so far is closed.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	if opts.LoggerInit == nil {
		opts.LoggerInit = logger.InitLogger
	}
	if opts.Connect == nil {
		opts.Connect = coredatabase.Connect
	}
	if opts.Migrate == nil {
		opts.Migrate = coredatabase.RunMigrations
	}

	if err := opts.LoggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}
	res := &Result{}
	if opts.SkipDatabase {
		return res, nil
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"connect", func() (err error) {
			res.DB, err = opts.Connect(opts.Database)
			return err
		}},
		{"migrate", func() error { return opts.Migrate(opts.Database) }},
	}
	ctx := context.Background()
	for _, step := range steps {
		start := time.Now()
		if err := step.run(); err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("bootstrap: %s failed: %w", step.name, err)
		}
		logger.Debug(ctx, logger.ComponentApp, "bootstrap",
			slog.String("step", step.name),
			slog.Duration("duration", time.Since(start)),
		)
	}
	return res, nil
}
