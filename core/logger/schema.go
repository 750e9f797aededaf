package logger

import "strings"

const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelFatal = "FATAL"
)

var levelNames = map[string]string{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
	"fatal":   LevelFatal,
}

// statusNames lists the status values dashboards group by. Unknown values
// are kept lowercased.
var statusNames = map[string]string{
	"ok":           "ok",
	"error":        "fail",
	"fail":         "fail",
	"skip":         "skip",
	"retry":        "retry",
	"rate_limited": "rate_limited",
	"cancelled":    "cancelled",
	"canceled":     "cancelled",
	"not_found":    "not_found",
	"cooldown":     "cooldown",
	"triggered":    "triggered",
	"timeout":      "timeout",
}

// alertKinds mirrors the alert kind names; anything else is dropped from
// alert_kind so it cannot explode label cardinality.
var alertKinds = map[string]struct{}{
	"standard":    {},
	"temperature": {},
	"wind":        {},
	"humidity":    {},
}

var outcomeNames = map[string]string{
	"ok":           "ok",
	"fail":         "fail",
	"error":        "fail",
	"cancelled":    "cancelled",
	"rate_limited": "rate_limited",
}

func normalizeLevel(level string) string {
	if level == "" {
		return LevelInfo
	}
	if mapped, ok := levelNames[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

func normalizeStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if mapped, ok := statusNames[status]; ok {
		return mapped
	}
	return status
}

func normalizeAlertKind(kind string) (string, bool) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	_, ok := alertKinds[kind]
	return kind, ok
}

func normalizeOutcome(outcome string) (string, bool) {
	mapped, ok := outcomeNames[strings.ToLower(strings.TrimSpace(outcome))]
	return mapped, ok
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"cb_key",
	"step",
	"city",
	"alert_id",
	"alert_kind",
	"hours_ahead",
	"operation",
	"op",
	"outcome",
	"duration_ms",
	"messages",
	"kb",
	"http_code",
	"err",
	"err_code",
	"cause",
	"retryable",
	"attempts",
	"backoff_ms",
	"rate_limited",
	"collapsed",
	"repeats",
	"pending_count",
	"users",
	"alerts",
	"checked",
	"triggered",
	"sent",
	"skipped",
	"failed",
	"removed",
	"interval_ms",
	"cooldown_ms",
	"listen",
	"driver",
	"db",
	"host",
	"port",
	"mode",
	"username",
}
