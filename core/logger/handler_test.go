package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// render logs one event through a fresh handler and returns the line.
func render(t *testing.T, format logFormat, ctx context.Context, emit func(ctx context.Context)) string {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	handler := newStructuredHandler(handlerConfig{
		level:  slog.LevelDebug,
		writer: aw,
		format: format,
	})
	emit(WithLogger(ctx, slog.New(handler)))
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func assertOrder(t *testing.T, line string, parts ...string) {
	t.Helper()
	last := -1
	for _, p := range parts {
		idx := strings.Index(line, p)
		if idx < 0 || idx < last {
			t.Fatalf("%q missing or out of order in %s", p, line)
		}
		last = idx
	}
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	ctx := WithUpdateMeta(WithRID(context.Background(), "rid-123"), 42, 7, 9)
	line := render(t, formatKV, ctx, func(ctx context.Context) {
		Info(ctx, ComponentApp, "test.event",
			slog.String("cause", "unit"),
			slog.String("status", "ok"),
		)
	})
	tokens := strings.Split(line, " ")
	want := []string{"ts=", "level=INFO", "component=app", "event=test.event", "status=ok", "rid=rid-123"}
	if len(tokens) < len(want) {
		t.Fatalf("short line: %s", line)
	}
	for i, prefix := range want {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, want prefix %s", i, tokens[i], prefix)
		}
	}
	assertOrder(t, line, "update_id=42", "user_id=7", "chat_id=9", "cause=unit")
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	ctx := WithUpdateMeta(WithRID(context.Background(), "rid-json"), 11, 22, 33)
	line := render(t, formatJSON, ctx, func(ctx context.Context) {
		Error(ctx, ComponentUsers, "users.save",
			slog.String("status", "error"),
			slog.String("err", "boom"),
		)
	})
	if !strings.HasPrefix(line, "{") {
		t.Fatalf("expected JSON, got %s", line)
	}
	assertOrder(t, line, `{"ts":`, `"level":"ERROR"`, `"component":"service.users"`, `"event":"users.save"`, `"status":"fail"`, `"rid":"rid-json"`, `"err":"boom"`)
}

func TestCompactRID(t *testing.T) {
	raw := "123:456:789"
	kv := render(t, formatKV, WithRID(context.Background(), raw), func(ctx context.Context) {
		Info(ctx, ComponentApp, "rid.test")
	})
	if !strings.Contains(kv, "rid="+CompactRID(raw)) || strings.Contains(kv, "rid_full=") {
		t.Fatalf("kv rid: %s", kv)
	}

	js := render(t, formatJSON, WithRID(context.Background(), raw), func(ctx context.Context) {
		Info(ctx, ComponentApp, "rid.test")
	})
	for _, want := range []string{`"rid":"` + CompactRID(raw) + `"`, `"rid_full":"` + raw + `"`, `"ts_unix_nano"`} {
		if !strings.Contains(js, want) {
			t.Fatalf("json missing %s: %s", want, js)
		}
	}
}

func TestAlertContextFields(t *testing.T) {
	ctx := WithAlert(WithChat(context.Background(), 77), "a1", "Kyiv")
	line := render(t, formatKV, ctx, func(ctx context.Context) {
		Warn(ctx, ComponentScheduler, "alert.notify",
			slog.String("err", "send failed"),
			slog.String("alert_kind", "Wind"),
			slog.String("status", "fail"),
		)
	})
	assertOrder(t, line, "component=alerts.scheduler", "event=alert.notify", "status=fail", "chat_id=77", "city=Kyiv", "alert_id=a1", "alert_kind=wind", `err="send failed"`)
}

func TestRecordAttrsWinOverContext(t *testing.T) {
	ctx := WithAlert(context.Background(), "ctx-alert", "Lviv")
	line := render(t, formatKV, ctx, func(ctx context.Context) {
		Info(ctx, ComponentScheduler, "alert.check", slog.String("city", "Odesa"))
	})
	if !strings.Contains(line, "city=Odesa") || strings.Contains(line, "Lviv") {
		t.Fatalf("record city should win: %s", line)
	}
}

func TestUnknownEnumsDropped(t *testing.T) {
	line := render(t, formatKV, context.Background(), func(ctx context.Context) {
		Info(ctx, ComponentApp, "enum.test",
			slog.String("alert_kind", "tornado"),
			slog.String("outcome", "maybe"),
		)
	})
	if strings.Contains(line, "alert_kind=") || strings.Contains(line, "outcome=") {
		t.Fatalf("unknown enums kept: %s", line)
	}
}

func TestGroupsAndDurations(t *testing.T) {
	line := render(t, formatKV, context.Background(), func(ctx context.Context) {
		log := FromContext(ctx).WithGroup("weather").With("city", "Kyiv")
		log.LogAttrs(ctx, slog.LevelInfo, "fetch", slog.Duration("took", 1500*time.Microsecond))
	})
	for _, want := range []string{"weather.city=Kyiv", "weather.took_ms=2", "event=fetch"} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %s in %s", want, line)
		}
	}
	if strings.Contains(line, "weather.weather.") {
		t.Fatalf("group prefixed twice: %s", line)
	}
}

func TestHelpersSilentBeforeInit(t *testing.T) {
	Info(context.Background(), ComponentApp, "no.logger")
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(parseRatioSpec("2/5"))
	allowed := 0
	for i := 0; i < 10; i++ {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 4 {
		t.Fatalf("2/5 sampler allowed %d of 10", allowed)
	}

	s.Set(parseRatioSpec("nonsense"))
	for i := 0; i < 3; i++ {
		if !s.Allow() {
			t.Fatal("disabled sampler must allow everything")
		}
	}
}

func TestParseRatioSpec(t *testing.T) {
	cases := map[string][2]int{"1/50": {1, 50}, "10": {1, 10}, " 3 / 4 ": {3, 4}, "0": {0, 0}, "x/y": {0, 0}}
	for in, want := range cases {
		if num, den := parseRatioSpec(in); num != want[0] || den != want[1] {
			t.Fatalf("parseRatioSpec(%q) = %d/%d, want %d/%d", in, num, den, want[0], want[1])
		}
	}
}
