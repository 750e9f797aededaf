package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m3rciful/weatherbot/internal/domain"
	"github.com/m3rciful/weatherbot/internal/store"
	"github.com/m3rciful/weatherbot/internal/users"
	"github.com/m3rciful/weatherbot/internal/weather"
)

type stubProvider struct {
	forecast weather.Forecast
	current  weather.Current
	err      error
	calls    int
}

func (p *stubProvider) Current(context.Context, string) (weather.Current, error) {
	return p.current, p.err
}

func (p *stubProvider) Forecast(context.Context, string, int) (weather.Forecast, error) {
	p.calls++
	return p.forecast, p.err
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[int64][]string
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, chatID int64, text string) error {
	if n.err != nil {
		return n.err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sent == nil {
		n.sent = map[int64][]string{}
	}
	n.sent[chatID] = append(n.sent[chatID], text)
	return nil
}

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, alerts ...domain.Alert) *users.Service {
	t.Helper()
	svc := users.NewService(store.NewMemory())
	_, err := svc.Update(context.Background(), 7, func(u *domain.UserData) error {
		for _, a := range alerts {
			u.AddAlert(a)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return svc
}

func stormy() *stubProvider {
	return &stubProvider{
		forecast: weather.Forecast{Days: []weather.Day{{MaxTempC: 20, MinTempC: 12, MaxWindKPH: 10, Condition: "Heavy thunderstorm"}}},
		current:  weather.Current{Location: weather.Location{Name: "Odesa"}, TempC: 19.5, WindKPH: 22, Humidity: 80, Condition: "Thunder"},
	}
}

func newScheduler(svc Users, p weather.Provider, n Notifier) *Scheduler {
	return New(svc, p, n, Options{Delay: -1, Now: func() time.Time { return fixedNow }})
}

func TestTickTriggersStandardAlertOnThunderstorm(t *testing.T) {
	a, err := domain.NewStandardAlert("Odesa", 12)
	if err != nil {
		t.Fatalf("new alert: %v", err)
	}
	svc := seed(t, a)
	n := &recordingNotifier{}

	sum := newScheduler(svc, stormy(), n).Tick(context.Background())
	if sum.Checked != 1 || sum.Triggered != 1 || sum.Sent != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	msgs := n.sent[7]
	if len(msgs) != 1 || !strings.Contains(msgs[0], "Extreme weather conditions") || !strings.Contains(msgs[0], "Odesa") {
		t.Fatalf("notifications = %q", msgs)
	}
	u := svc.Get(7)
	got, _ := u.Alert(a.ID)
	if got.LastTriggered == nil || !got.LastTriggered.Equal(fixedNow) {
		t.Fatalf("last triggered = %v", got.LastTriggered)
	}
}

func TestTickCooldown(t *testing.T) {
	cases := []struct {
		ago     time.Duration
		trigger bool
	}{
		{30 * time.Minute, false},
		{61 * time.Minute, true},
	}
	for _, tc := range cases {
		a, _ := domain.NewStandardAlert("Odesa", 12)
		last := fixedNow.Add(-tc.ago)
		a.LastTriggered = &last
		n := &recordingNotifier{}
		sum := newScheduler(seed(t, a), stormy(), n).Tick(context.Background())
		if got := sum.Sent == 1; got != tc.trigger {
			t.Fatalf("ago %s: sent=%v want %v (%+v)", tc.ago, got, tc.trigger, sum)
		}
		if !tc.trigger && sum.Skipped != 1 {
			t.Fatalf("ago %s: expected skip, got %+v", tc.ago, sum)
		}
	}
}

func TestTickSendFailureLeavesAlertUnmarked(t *testing.T) {
	a, _ := domain.NewStandardAlert("Odesa", 12)
	svc := seed(t, a)
	n := &recordingNotifier{err: errors.New("telegram down")}

	sum := newScheduler(svc, stormy(), n).Tick(context.Background())
	if sum.Failed != 1 || sum.Sent != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	u := svc.Get(7)
	got, _ := u.Alert(a.ID)
	if got.LastTriggered != nil {
		t.Fatalf("alert marked despite send failure")
	}
}

func TestTickSkipsInactiveAndQuietAlerts(t *testing.T) {
	paused, _ := domain.NewStandardAlert("Odesa", 12)
	paused.Active = false
	floor := 0.0
	cold, _ := domain.NewTemperatureAlert("Odesa", &floor, nil, 12)
	p := stormy()
	n := &recordingNotifier{}

	sum := newScheduler(seed(t, paused, cold), p, n).Tick(context.Background())
	if sum.Checked != 1 || sum.Triggered != 0 || len(n.sent) != 0 {
		t.Fatalf("summary = %+v sent=%v", sum, n.sent)
	}
	if p.calls != 1 {
		t.Fatalf("forecast calls = %d", p.calls)
	}
}

func TestTickProviderErrorIsCounted(t *testing.T) {
	a, _ := domain.NewWindAlert("Nowhere", 30, 50)
	p := &stubProvider{err: weather.ErrLocationNotFound}
	sum := newScheduler(seed(t, a), p, &recordingNotifier{}).Tick(context.Background())
	if sum.Failed != 1 || sum.Triggered != 0 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestTickStopsOnCancelledContext(t *testing.T) {
	a, _ := domain.NewStandardAlert("Odesa", 12)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum := newScheduler(seed(t, a), stormy(), &recordingNotifier{}).Tick(ctx)
	if sum.Checked != 0 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestMessageByKind(t *testing.T) {
	cur := weather.Current{Location: weather.Location{Name: "Lviv"}, TempC: -3, WindKPH: 61.2, Humidity: 91, Condition: "Snow"}
	w, _ := domain.NewWindAlert("Lviv", 60, 24)
	msg := Message(w, cur, fixedNow)
	for _, want := range []string{"💨 Strong wind", "🏠 City: Lviv", "⏰ Warning ahead: 24 hours", "💨 Wind: 61.2 km/h", "💧 Humidity: 91%", "2026-05-01 12:00 UTC"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}

type countingProvider struct {
	forecasts atomic.Int32
}

func (p *countingProvider) Current(context.Context, string) (weather.Current, error) {
	return weather.Current{}, nil
}

func (p *countingProvider) Forecast(context.Context, string, int) (weather.Forecast, error) {
	p.forecasts.Add(1)
	return weather.Forecast{Days: []weather.Day{{Condition: "Sunny", MaxTempC: 20}}}, nil
}

func TestRunTicksUntilCancelled(t *testing.T) {
	a, err := domain.NewStandardAlert("Odesa", 12)
	if err != nil {
		t.Fatalf("alert: %v", err)
	}
	p := &countingProvider{}
	s := New(seed(t, a), p, &recordingNotifier{}, Options{Interval: 20 * time.Millisecond, Delay: -1})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for p.forecasts.Load() < 2 {
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("expected repeated ticks, got %d", p.forecasts.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after cancel")
	}

	stopped := p.forecasts.Load()
	time.Sleep(100 * time.Millisecond)
	if got := p.forecasts.Load(); got != stopped {
		t.Fatalf("ticks after stop: %d -> %d", stopped, got)
	}
}
