package middleware

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func TestRateLimiterAllow(t *testing.T) {
	l := &rateLimiter{interval: time.Second, last: map[int64]time.Time{}, pruneAt: 1024}
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if !l.allow(1, t0) {
		t.Fatal("first update must pass")
	}
	if l.allow(1, t0.Add(500*time.Millisecond)) {
		t.Fatal("second update within interval must be limited")
	}
	if !l.allow(2, t0.Add(500*time.Millisecond)) {
		t.Fatal("other users are independent")
	}
	if !l.allow(1, t0.Add(time.Second)) {
		t.Fatal("update after interval must pass")
	}
}

func TestRateLimiterPrunesStaleUsers(t *testing.T) {
	l := &rateLimiter{interval: time.Second, last: map[int64]time.Time{}, pruneAt: 3}
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.allow(1, t0)
	l.allow(2, t0)
	l.allow(3, t0.Add(2*time.Second))
	if len(l.last) != 1 {
		t.Fatalf("stale users kept: %v", l.last)
	}
	if _, ok := l.last[3]; !ok {
		t.Fatal("fresh user dropped")
	}
}

func TestUpdateKind(t *testing.T) {
	if got := updateKind(tele.Update{Callback: &tele.Callback{}}); got != "callback" {
		t.Fatalf("callback kind = %q", got)
	}
	if got := updateKind(tele.Update{Message: &tele.Message{}}); got != "message" {
		t.Fatalf("message kind = %q", got)
	}
	if got := updateKind(tele.Update{}); got != "other" {
		t.Fatalf("empty kind = %q", got)
	}
}
