package conversation

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/m3rciful/weatherbot/internal/domain"
	"github.com/m3rciful/weatherbot/internal/store"
	"github.com/m3rciful/weatherbot/internal/users"
	"github.com/m3rciful/weatherbot/internal/weather"
)

type fakeProvider struct {
	current  map[string]weather.Current
	forecast map[string]weather.Forecast
	err      error
	calls    []string
}

func (f *fakeProvider) Current(_ context.Context, city string) (weather.Current, error) {
	f.calls = append(f.calls, "current:"+city)
	if f.err != nil {
		return weather.Current{}, f.err
	}
	c, ok := f.current[city]
	if !ok {
		return weather.Current{}, weather.ErrLocationNotFound
	}
	return c, nil
}

func (f *fakeProvider) Forecast(_ context.Context, city string, days int) (weather.Forecast, error) {
	f.calls = append(f.calls, "forecast:"+city)
	if f.err != nil {
		return weather.Forecast{}, f.err
	}
	fc, ok := f.forecast[city]
	if !ok {
		return weather.Forecast{}, weather.ErrLocationNotFound
	}
	return fc, nil
}

type harness struct {
	t        *testing.T
	engine   *Engine
	users    *users.Service
	store    *store.Memory
	provider *fakeProvider
	typing   int
	chat     int64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st := store.NewMemory()
	svc := users.NewService(st)
	fp := &fakeProvider{
		current: map[string]weather.Current{
			"Kyiv": {Location: weather.Location{Name: "Kyiv", Country: "Ukraine"}, TempC: 18, Condition: "Sunny", Humidity: 40},
		},
		forecast: map[string]weather.Forecast{
			"Kyiv": {Location: weather.Location{Name: "Kyiv"}, Days: []weather.Day{{Date: "2026-05-01", Condition: "Sunny"}}},
		},
	}
	h := &harness{t: t, users: svc, store: st, provider: fp, chat: 100}
	h.engine = New(svc, fp, Options{Typing: func(context.Context, int64) { h.typing++ }})
	return h
}

func (h *harness) command(name string) []Reply {
	h.t.Helper()
	out, err := h.engine.HandleCommand(context.Background(), h.chat, name)
	if err != nil {
		h.t.Fatalf("command %s: %v", name, err)
	}
	return out
}

func (h *harness) press(token string) []Reply {
	h.t.Helper()
	out, err := h.engine.HandleCallback(context.Background(), h.chat, token)
	if err != nil {
		h.t.Fatalf("callback %s: %v", token, err)
	}
	return out
}

func (h *harness) send(msg string) []Reply {
	h.t.Helper()
	out, err := h.engine.HandleText(context.Background(), h.chat, msg)
	if err != nil {
		h.t.Fatalf("text %q: %v", msg, err)
	}
	return out
}

func (h *harness) user() domain.UserData { return h.users.Get(h.chat) }

func lastText(rs []Reply) string {
	if len(rs) == 0 {
		return ""
	}
	return rs[len(rs)-1].Text
}

func hasAction(r Reply, kind ActionKind) bool {
	for _, row := range r.Keyboard {
		for _, b := range row {
			if b.Action.Kind == kind {
				return true
			}
		}
	}
	return false
}

func TestStartShowsMainMenu(t *testing.T) {
	h := newHarness(t)
	out := h.command("/start")
	if len(out) != 1 || out[0].Text != msgWelcome || !hasAction(out[0], ActAlertsMenu) {
		t.Fatalf("unexpected start reply: %+v", out)
	}
}

func TestHomeAndInterestedTownScenario(t *testing.T) {
	h := newHarness(t)
	h.command("/start")
	h.press("set_home_town")
	if h.user().Conversation.Step != domain.StepHomeTown {
		t.Fatalf("step = %s", h.user().Conversation.Step)
	}
	out := h.send("Kyiv")
	if h.user().HomeTown != "Kyiv" {
		t.Fatalf("home town = %q", h.user().HomeTown)
	}
	if out[0].Text != "Home town set to: Kyiv" || !hasAction(out[1], ActTowns) {
		t.Fatalf("unexpected replies: %+v", out)
	}

	h.press("my_towns")
	h.press("add_interested_town")
	h.send("Lviv")
	if !reflect.DeepEqual(h.user().InterestedTowns, []string{"Lviv"}) {
		t.Fatalf("towns = %v", h.user().InterestedTowns)
	}
	if h.user().Conversation.Step != domain.StepIdle {
		t.Fatal("step must be cleared after adding a town")
	}
	saved, ok, _ := h.store.Load(context.Background(), h.chat)
	if !ok || saved.HomeTown != "Kyiv" || len(saved.InterestedTowns) != 1 {
		t.Fatalf("state not persisted: %+v", saved)
	}
}

func TestDuplicateTownRejected(t *testing.T) {
	h := newHarness(t)
	h.press("add_interested_town")
	h.send("Lviv")
	h.press("add_interested_town")
	out := h.send("Lviv")
	if !strings.Contains(out[0].Text, "already in your interested towns") {
		t.Fatalf("expected duplicate notice, got %q", out[0].Text)
	}
	if !reflect.DeepEqual(h.user().InterestedTowns, []string{"Lviv"}) {
		t.Fatalf("towns = %v", h.user().InterestedTowns)
	}
	if h.user().Conversation.Step != domain.StepIdle {
		t.Fatal("step must be cleared after a duplicate")
	}
}

func TestTemperatureAlertScenario(t *testing.T) {
	h := newHarness(t)
	h.press("add_temperature_alert")
	if got := h.send("Kharkiv"); lastText(got) != stepPrompts[domain.StepAlertTempMin] {
		t.Fatalf("expected min prompt, got %q", lastText(got))
	}
	h.send("10")
	h.send("30")
	out := h.send("24")
	if out[0].Text != "✅ Temperature alert created for 'Kharkiv'!" {
		t.Fatalf("confirmation = %q", out[0].Text)
	}
	u := h.user()
	if len(u.Alerts) != 1 {
		t.Fatalf("alerts = %d", len(u.Alerts))
	}
	a := u.Alerts[0]
	if a.City != "Kharkiv" || a.Kind.Type != domain.KindTemperature || *a.Kind.TempMin != 10 || *a.Kind.TempMax != 30 ||
		a.HoursAhead != 24 || !a.Active || a.LastTriggered != nil {
		t.Fatalf("unexpected alert %+v", a)
	}
	if u.Conversation.Step != domain.StepIdle || u.Conversation.Pending != nil {
		t.Fatalf("pending state leaked: %+v", u.Conversation)
	}
	if !hasAction(out[1], ActCheckAlert) {
		t.Fatal("alerts menu should list the new alert")
	}
}

func TestAlertInputValidation(t *testing.T) {
	h := newHarness(t)
	h.press("add_humidity_alert")
	h.send("Lviv")
	if out := h.send("wet"); out[0].Text != msgBadHumidity {
		t.Fatalf("expected humidity re-prompt, got %q", out[0].Text)
	}
	if out := h.send("101"); out[0].Text != msgBadHumidity {
		t.Fatalf("expected humidity re-prompt for 101, got %q", out[0].Text)
	}
	if h.user().Conversation.Step != domain.StepAlertHumidityMin {
		t.Fatal("invalid input must not advance")
	}
	h.send("SKIP")
	h.send("85")
	for _, bad := range []string{"0", "73", "soon", "12.5"} {
		if out := h.send(bad); out[0].Text != msgBadHours {
			t.Fatalf("hours %q: got %q", bad, out[0].Text)
		}
	}
	h.send("72")
	a := h.user().Alerts[0]
	if a.Kind.HumidityMin != nil || *a.Kind.HumidityMax != 85 || a.HoursAhead != 72 {
		t.Fatalf("unexpected alert %+v", a.Kind)
	}
}

func TestWindRequiresNumber(t *testing.T) {
	h := newHarness(t)
	h.press("add_wind_alert")
	h.send("Odesa")
	if out := h.send("skip"); out[0].Text != msgBadWind {
		t.Fatalf("wind must reject skip, got %q", out[0].Text)
	}
	h.send("45.5")
	if h.user().Conversation.Step != domain.StepAlertHours {
		t.Fatalf("step = %s", h.user().Conversation.Step)
	}
}

func TestStandardAlertSkipsToHours(t *testing.T) {
	h := newHarness(t)
	h.press("add_standard_alert")
	out := h.send("Kyiv")
	if lastText(out) != stepPrompts[domain.StepAlertHours] {
		t.Fatalf("expected hours prompt, got %q", lastText(out))
	}
	h.send("6")
	if a := h.user().Alerts[0]; a.Kind.Type != domain.KindStandard || a.HoursAhead != 6 {
		t.Fatalf("unexpected alert %+v", a)
	}
}

func TestCancelFromEveryStep(t *testing.T) {
	reach := map[domain.Step][]string{
		domain.StepWeatherCity:      {"get_weather_for"},
		domain.StepForecastCity:     {"get_forecast_for"},
		domain.StepHomeTown:         {"set_home_town"},
		domain.StepInterestedTown:   {"add_interested_town"},
		domain.StepAlertCity:        {"add_temperature_alert"},
		domain.StepAlertTempMin:     {"add_temperature_alert", "Kyiv"},
		domain.StepAlertTempMax:     {"add_temperature_alert", "Kyiv", "1"},
		domain.StepAlertWindMax:     {"add_wind_alert", "Kyiv"},
		domain.StepAlertHumidityMin: {"add_humidity_alert", "Kyiv"},
		domain.StepAlertHumidityMax: {"add_humidity_alert", "Kyiv", "skip"},
		domain.StepAlertHours:       {"add_temperature_alert", "Kyiv", "1", "2"},
	}
	for step, path := range reach {
		h := newHarness(t)
		h.press(path[0])
		for _, msg := range path[1:] {
			h.send(msg)
		}
		if got := h.user().Conversation.Step; got != step {
			t.Fatalf("setup for %s reached %s", step, got)
		}
		out := h.press("cancel")
		if out[0].Text != msgCancelled || !hasAction(out[0], ActAlertsMenu) {
			t.Fatalf("%s: unexpected cancel reply %+v", step, out)
		}
		u := h.user()
		if u.Conversation.Step != domain.StepIdle || u.Conversation.Pending != nil {
			t.Fatalf("%s: state after cancel %+v", step, u.Conversation)
		}
		h.send("Kyiv")
		if len(h.user().Alerts) != 0 || h.user().HomeTown != "" {
			t.Fatalf("%s: text after cancel leaked into a flow", step)
		}
	}
}

func TestWeatherLookupReturnsToMainMenu(t *testing.T) {
	h := newHarness(t)
	h.press("get_weather_for")
	out := h.send("Kyiv")
	if len(out) != 2 || out[0].Mode != ModeMarkdownV2 || out[1].Text != msgChooseAnother {
		t.Fatalf("unexpected replies %+v", out)
	}
	if h.typing != 1 {
		t.Fatalf("typing shown %d times", h.typing)
	}

	h.press("get_forecast_for")
	out = h.send("Atlantis")
	if !strings.Contains(out[0].Text, "couldn't find 'Atlantis'") || out[1].Text != msgChooseAnother {
		t.Fatalf("unexpected failure replies %+v", out)
	}
	if h.user().Conversation.Step != domain.StepIdle {
		t.Fatal("failed lookup must not leave the flow dangling")
	}

	h.provider.err = errors.New("timeout")
	if out := h.press("town_Kyiv"); !strings.Contains(out[0].Text, "try again later") {
		t.Fatalf("expected transient failure text, got %q", out[0].Text)
	}
}

func TestHomeWeatherWithoutHomeTownPrompts(t *testing.T) {
	h := newHarness(t)
	out := h.press("get_weather_home")
	if !strings.Contains(out[0].Text, "haven't set a home town") {
		t.Fatalf("unexpected reply %q", out[0].Text)
	}
	if h.user().Conversation.Step != domain.StepHomeTown {
		t.Fatal("should await home town")
	}
	h.send("Kyiv")
	out = h.press("get_forecast_home")
	if out[0].Mode != ModeMarkdownV2 || h.provider.calls[len(h.provider.calls)-1] != "forecast:Kyiv" {
		t.Fatalf("expected forecast for home, got %+v calls=%v", out, h.provider.calls)
	}
}

func TestRemoveTownWithUnderscores(t *testing.T) {
	h := newHarness(t)
	for _, town := range []string{"New_York", "Kyiv"} {
		h.press("add_interested_town")
		h.send(town)
	}
	out := h.press("remove_town_New_York")
	if out[0].Text != "Removed 'New_York' from your interested towns" {
		t.Fatalf("unexpected reply %q", out[0].Text)
	}
	if !reflect.DeepEqual(h.user().InterestedTowns, []string{"Kyiv"}) {
		t.Fatalf("towns = %v", h.user().InterestedTowns)
	}
	out = h.press("remove_town_Paris")
	if len(out) != 1 || out[0].Text != msgTowns {
		t.Fatalf("removing an absent town should only show the menu, got %+v", out)
	}
}

func TestAlertLifecycleActions(t *testing.T) {
	h := newHarness(t)
	h.press("add_standard_alert")
	h.send("Kyiv")
	h.send("12")
	id := h.user().Alerts[0].ID

	out := h.press("check_alert_" + id)
	if out[0].Mode != ModeHTML || !strings.Contains(out[0].Text, "All Good") {
		t.Fatalf("unexpected status %+v", out[0])
	}
	if !hasAction(out[0], ActToggleAlert) {
		t.Fatal("status should offer toggle")
	}

	h.press("toggle_alert_" + id)
	if h.user().Alerts[0].Active {
		t.Fatal("toggle should deactivate")
	}

	if out := h.press("check_alert_missing"); out[0].Text != msgAlertNotFound {
		t.Fatalf("expected not found, got %q", out[0].Text)
	}
	if out := h.press("remove_alert_" + id); out[0].Text != "Alert removed successfully!" {
		t.Fatalf("unexpected remove reply %q", out[0].Text)
	}
	if len(h.user().Alerts) != 0 {
		t.Fatal("alert not removed")
	}
	if out := h.press("remove_alert"); out[0].Text != "You don't have any alerts to remove." {
		t.Fatalf("unexpected picker reply %q", out[0].Text)
	}
}

func TestUnknownButtonAndNoop(t *testing.T) {
	h := newHarness(t)
	out := h.press("launch_rockets")
	if out[0].Text != msgUnknownButton || out[1].Text != msgChooseAnother {
		t.Fatalf("unexpected replies %+v", out)
	}
	if out := h.press("noop"); len(out) != 0 {
		t.Fatalf("noop replied %+v", out)
	}
}

func TestIdleTextShowsHint(t *testing.T) {
	h := newHarness(t)
	out := h.send("hello")
	if out[0].Text != msgIdleHint || !hasAction(out[0], ActCurrentMenu) {
		t.Fatalf("unexpected reply %+v", out)
	}
	if _, ok, _ := h.store.Load(context.Background(), h.chat); ok {
		t.Fatal("idle chatter must not create a record")
	}
}

func TestStartClearsTownsButKeepsAlerts(t *testing.T) {
	h := newHarness(t)
	h.press("set_home_town")
	h.send("Kyiv")
	h.press("add_standard_alert")
	h.send("Kyiv")
	h.send("5")
	h.press("add_interested_town")
	h.command("start")
	u := h.user()
	if u.HomeTown != "" || len(u.InterestedTowns) != 0 || u.Conversation.Step != domain.StepIdle {
		t.Fatalf("start did not reset: %+v", u)
	}
	if len(u.Alerts) != 1 {
		t.Fatal("alerts must survive /start")
	}
}
