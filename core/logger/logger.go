// Package logger is the structured slog setup shared by the bot. Every line
// carries component, event and status in a fixed leading order, plus the
// update or alert identifiers found in the context.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/weatherbot/core/buildinfo"
	coreconfig "github.com/m3rciful/weatherbot/core/config"
)

// Component names used across the bot.
const (
	ComponentApp       = "app"
	ComponentStore     = "store"
	ComponentUsers     = "service.users"
	ComponentScheduler = "alerts.scheduler"
	ComponentWeather   = "weather.provider"
	ComponentHTTP      = "http"
	ComponentDialog    = "conversation"
	ComponentTG        = "tg"
)

const defaultDebugSample = "1/50"

var (
	initOnce sync.Once
	closeMu  sync.Mutex
	closed   bool

	logWriter  *asyncWriter
	logClosers []io.Closer

	levelVar     slog.LevelVar
	debugSampler = newRatioSampler(1, 50)
	traceAll     bool

	// base is nil until InitLogger runs; the helpers below drop events
	// until then.
	base *slog.Logger
)

// InitLogger configures the global structured logger. Later calls are no-ops.
func InitLogger(cfg *coreconfig.Config) error {
	var initErr error
	initOnce.Do(func() {
		if cfg == nil {
			cfg = &coreconfig.Config{}
		}
		levelVar.Set(parseLevel(cfg.Logging.Level))
		debugSampler.Set(parseRatioSpec(firstNonEmpty(strings.TrimSpace(cfg.Logging.DebugSample), defaultDebugSample)))
		traceAll = isTruthy(os.Getenv("LOG_TRACE"))

		outputs, closers, err := openOutputs(cfg.Logging)
		if err != nil {
			initErr = err
			return
		}
		logClosers = closers
		logWriter = newAsyncWriter(outputs, 64*1024)

		base = slog.New(newStructuredHandler(handlerConfig{
			level:    &levelVar,
			writer:   logWriter,
			format:   parseFormat(cfg.Logging),
			keyOrder: parseKeyOrder(cfg.Logging.KeysOrder),
		}))
		slog.SetDefault(base)

		Info(context.Background(), ComponentApp, "startup",
			slog.String("go_version", runtime.Version()),
			slog.String("build", buildinfo.String()),
			slog.String("profile", profile(cfg.Logging)),
		)
	})
	return initErr
}

// Shutdown flushes buffered output and closes log files.
func Shutdown() error {
	closeMu.Lock()
	defer closeMu.Unlock()
	if closed {
		return nil
	}
	closed = true

	var errs []error
	if logWriter != nil {
		errs = append(errs, logWriter.Close())
	}
	for _, c := range logClosers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func parseFormat(cfg coreconfig.LoggingConfig) logFormat {
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "kv", "text", "pretty":
		return formatKV
	case "json":
		return formatJSON
	}
	if p := profile(cfg); p == "dev" || p == "debug" {
		return formatKV
	}
	return formatJSON
}

func profile(cfg coreconfig.LoggingConfig) string {
	if p := strings.ToLower(strings.TrimSpace(cfg.Profile)); p != "" {
		return p
	}
	return "prod"
}

// parseKeyOrder reads a comma separated key list; empty or "default" keeps
// the built-in order.
func parseKeyOrder(raw string) []string {
	raw = strings.TrimSpace(raw)
	var order []string
	if raw != "default" {
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				order = append(order, k)
			}
		}
	}
	if len(order) == 0 {
		return append([]string(nil), defaultKeyOrder...)
	}
	return order
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// openOutputs always writes to stdout and also appends to dir/file when both
// are set.
func openOutputs(cfg coreconfig.LoggingConfig) ([]io.Writer, []io.Closer, error) {
	writers := []io.Writer{os.Stdout}
	dir, file := strings.TrimSpace(cfg.Dir), strings.TrimSpace(cfg.File)
	if dir == "" || file == "" {
		return writers, nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("logger: create dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, file)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: open %s: %w", path, err)
	}
	return append(writers, f), []io.Closer{f}, nil
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// ShouldSampleDebug reports whether a high-volume debug event should be
// logged this time. LOG_TRACE=1 lets every event through.
func ShouldSampleDebug() bool {
	return traceAll || debugSampler.Allow()
}

func logEvent(ctx context.Context, component string, level slog.Level, event string, attrs []slog.Attr) {
	log := FromContext(ctx)
	if log == nil {
		return
	}
	ctx = orBackground(ctx)
	if !log.Enabled(ctx, level) {
		return
	}
	head := make([]slog.Attr, 0, len(attrs)+2)
	if component = strings.TrimSpace(component); component != "" {
		head = append(head, slog.String("component", component))
	}
	head = append(head, slog.String("event", event))
	log.LogAttrs(ctx, level, event, append(head, attrs...)...)
}

// Debug logs a debug-level event for the given component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	logEvent(ctx, component, slog.LevelDebug, event, attrs)
}

// Info logs an info-level event for the given component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	logEvent(ctx, component, slog.LevelInfo, event, attrs)
}

// Warn logs a warn-level event for the given component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	logEvent(ctx, component, slog.LevelWarn, event, attrs)
}

// Error logs an error-level event for the given component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	logEvent(ctx, component, slog.LevelError, event, attrs)
}
