// Package conversation drives the per-chat dialogue: menus, prompts and the
// alert creation pipeline. It is transport-agnostic; the Telegram adapter
// turns Replies into messages.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/m3rciful/weatherbot/core/logger"
	"github.com/m3rciful/weatherbot/internal/domain"
	"github.com/m3rciful/weatherbot/internal/evaluator"
	"github.com/m3rciful/weatherbot/internal/users"
	"github.com/m3rciful/weatherbot/internal/weather"
)

// DefaultForecastDays is the horizon fetched for forecast queries.
const DefaultForecastDays = 3

// errUnchanged aborts an update without touching the record.
var errUnchanged = errors.New("unchanged")

// TypingFunc shows a typing indicator while a slow lookup runs.
type TypingFunc func(ctx context.Context, chatID int64)

type Options struct {
	ForecastDays int
	Typing       TypingFunc
}

// Engine handles commands, button actions and free text for every chat.
// Each handler persists its state change before returning.
type Engine struct {
	users    *users.Service
	provider weather.Provider
	days     int
	typing   TypingFunc
}

// lookup is a provider call performed after the state change is committed.
type lookup struct {
	city     string
	forecast bool
	subject  string
	after    []Reply
}

func New(svc *users.Service, provider weather.Provider, opts Options) *Engine {
	days := opts.ForecastDays
	if days <= 0 {
		days = DefaultForecastDays
	}
	return &Engine{users: svc, provider: provider, days: days, typing: opts.Typing}
}

// HandleCommand processes a slash command; the leading slash is optional.
func (e *Engine) HandleCommand(ctx context.Context, chatID int64, name string) ([]Reply, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/")) {
	case "start":
		if _, err := e.mutate(ctx, chatID, func(u *domain.UserData) error {
			u.Restart()
			return nil
		}); err != nil {
			return nil, err
		}
		return []Reply{withKeyboard(msgWelcome, mainMenu())}, nil
	case "help":
		return []Reply{text(helpText())}, nil
	}
	return []Reply{text("Unknown command. Use /help to see the available commands.")}, nil
}

// HandleCallback parses a flat callback token and dispatches it.
func (e *Engine) HandleCallback(ctx context.Context, chatID int64, token string) ([]Reply, error) {
	return e.HandleAction(ctx, chatID, ParseAction(token))
}

// HandleAction dispatches a button press.
func (e *Engine) HandleAction(ctx context.Context, chatID int64, a Action) ([]Reply, error) {
	switch a.Kind {
	case ActNoop:
		return nil, nil
	case ActCancel:
		if _, err := e.mutate(ctx, chatID, func(u *domain.UserData) error {
			u.Conversation.Reset()
			return nil
		}); err != nil {
			return nil, err
		}
		return []Reply{withKeyboard(msgCancelled, mainMenu())}, nil
	case ActMainMenu:
		return []Reply{withKeyboard(msgWelcome, mainMenu())}, nil
	case ActCurrentMenu:
		return []Reply{withKeyboard(msgCurrentMenu, currentMenu())}, nil
	case ActForecastMenu:
		return []Reply{withKeyboard(msgForecastMenu, forecastMenu())}, nil
	case ActWeatherFor:
		return e.await(ctx, chatID, domain.StepWeatherCity)
	case ActForecastFor:
		return e.await(ctx, chatID, domain.StepForecastCity)
	case ActSetHomeTown:
		return e.await(ctx, chatID, domain.StepHomeTown)
	case ActAddTown:
		return e.await(ctx, chatID, domain.StepInterestedTown)
	case ActWeatherHome:
		return e.homeLookup(ctx, chatID, false)
	case ActForecastHome:
		return e.homeLookup(ctx, chatID, true)
	case ActViewHome:
		u := e.users.Get(chatID)
		if !u.HasHomeTown() {
			return []Reply{
				text("You haven't set a home town yet. Use 'Set Home Town' to set one."),
				withKeyboard(msgChooseAnother, mainMenu()),
			}, nil
		}
		return e.runLookup(ctx, chatID, lookup{
			city:    u.HomeTown,
			subject: fmt.Sprintf("your home town '%s'", u.HomeTown),
			after:   []Reply{withKeyboard(msgChooseAnother, mainMenu())},
		}), nil
	case ActTowns, ActTownsBack:
		return []Reply{withKeyboard(msgTowns, townsMenu(e.users.Get(chatID)))}, nil
	case ActRemoveTownPicker:
		u := e.users.Get(chatID)
		if len(u.InterestedTowns) == 0 {
			return []Reply{
				text("You don't have any interested towns to remove."),
				withKeyboard(msgChooseAnother, mainMenu()),
			}, nil
		}
		return []Reply{withKeyboard("Select a town to remove:", removeTownsMenu(u))}, nil
	case ActTown:
		return e.runLookup(ctx, chatID, lookup{
			city:    a.Arg,
			subject: quote(a.Arg),
			after:   []Reply{withKeyboard(msgChooseAnother, mainMenu())},
		}), nil
	case ActRemoveTown:
		return e.removeTown(ctx, chatID, a.Arg)
	case ActAlertsMenu:
		return []Reply{withKeyboard(msgAlertsHome, alertsMenu(e.users.Get(chatID)))}, nil
	case ActAddAlert:
		return []Reply{withKeyboard(msgAlertKinds, alertKindsMenu())}, nil
	case ActAddStandard:
		return e.beginAlert(ctx, chatID, domain.StandardKind())
	case ActAddTemperature:
		return e.beginAlert(ctx, chatID, domain.TemperatureKind(nil, nil))
	case ActAddWind:
		return e.beginAlert(ctx, chatID, domain.WindKind(0))
	case ActAddHumidity:
		return e.beginAlert(ctx, chatID, domain.HumidityKind(nil, nil))
	case ActRemoveAlert:
		if a.Arg == "" {
			return e.removeAlertPicker(chatID), nil
		}
		return e.removeAlert(ctx, chatID, a.Arg)
	case ActCheckAlert:
		return e.checkAlert(ctx, chatID, a.Arg), nil
	case ActToggleAlert:
		return e.toggleAlert(ctx, chatID, a.Arg)
	}
	return []Reply{text(msgUnknownButton), withKeyboard(msgChooseAnother, mainMenu())}, nil
}

// HandleText feeds free text into whatever step the chat is waiting in.
func (e *Engine) HandleText(ctx context.Context, chatID int64, input string) ([]Reply, error) {
	input = strings.TrimSpace(input)
	var (
		replies []Reply
		next    *lookup
	)
	if _, err := e.mutate(ctx, chatID, func(u *domain.UserData) error {
		var err error
		replies, next, err = e.applyText(ctx, u, input)
		return err
	}); err != nil {
		return nil, err
	}
	if next != nil {
		replies = append(replies, e.runLookup(ctx, chatID, *next)...)
	}
	return replies, nil
}

func (e *Engine) applyText(ctx context.Context, u *domain.UserData, input string) ([]Reply, *lookup, error) {
	conv := &u.Conversation
	step := conv.Step
	if step == domain.StepIdle {
		return []Reply{withKeyboard(msgIdleHint, mainMenu())}, nil, errUnchanged
	}
	if input == "" {
		return []Reply{prompt(*conv)}, nil, errUnchanged
	}

	switch step {
	case domain.StepWeatherCity, domain.StepForecastCity:
		conv.Reset()
		return nil, &lookup{
			city:     input,
			forecast: step == domain.StepForecastCity,
			subject:  quote(input),
			after:    []Reply{withKeyboard(msgChooseAnother, mainMenu())},
		}, nil

	case domain.StepHomeTown:
		u.SetHomeTown(input)
		conv.Reset()
		return []Reply{
			text("Home town set to: " + u.HomeTown),
			withKeyboard(msgChooseAnother, mainMenu()),
		}, nil, nil

	case domain.StepInterestedTown:
		conv.Reset()
		msg := fmt.Sprintf("Added '%s' to your interested towns", input)
		if !u.AddTown(input) {
			msg = fmt.Sprintf("'%s' is already in your interested towns", input)
		}
		return []Reply{text(msg), withKeyboard(msgTowns, townsMenu(*u))}, nil, nil

	case domain.StepAlertCity:
		if _, err := conv.SetAlertCity(input); err != nil {
			return e.stepLost(ctx, u, err)
		}
		return []Reply{prompt(*conv)}, nil, nil

	case domain.StepAlertTempMin, domain.StepAlertTempMax:
		v, ok := parseOptionalFloat(input)
		if !ok {
			return []Reply{withKeyboard(msgBadTemperature, cancelKeyboard())}, nil, errUnchanged
		}
		var err error
		if step == domain.StepAlertTempMin {
			err = conv.SetTempMin(v)
		} else {
			err = conv.SetTempMax(v)
		}
		if err != nil {
			return e.stepLost(ctx, u, err)
		}
		return []Reply{prompt(*conv)}, nil, nil

	case domain.StepAlertWindMax:
		v, err := strconv.ParseFloat(input, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return []Reply{withKeyboard(msgBadWind, cancelKeyboard())}, nil, errUnchanged
		}
		if err := conv.SetWindMax(v); err != nil {
			return e.stepLost(ctx, u, err)
		}
		return []Reply{prompt(*conv)}, nil, nil

	case domain.StepAlertHumidityMin, domain.StepAlertHumidityMax:
		v, ok := parseOptionalPercent(input)
		if !ok {
			return []Reply{withKeyboard(msgBadHumidity, cancelKeyboard())}, nil, errUnchanged
		}
		var err error
		if step == domain.StepAlertHumidityMin {
			err = conv.SetHumidityMin(v)
		} else {
			err = conv.SetHumidityMax(v)
		}
		if err != nil {
			return e.stepLost(ctx, u, err)
		}
		return []Reply{prompt(*conv)}, nil, nil

	case domain.StepAlertHours:
		hours, err := strconv.Atoi(input)
		if err != nil {
			return []Reply{withKeyboard(msgBadHours, cancelKeyboard())}, nil, errUnchanged
		}
		alert, err := conv.Commit(hours)
		if errors.Is(err, domain.ErrHoursOutOfRange) {
			return []Reply{withKeyboard(msgBadHours, cancelKeyboard())}, nil, errUnchanged
		}
		if err != nil {
			return e.stepLost(ctx, u, err)
		}
		u.AddAlert(alert)
		logger.Info(ctx, logger.ComponentDialog, "alert.created",
			slog.Int64("chat_id", u.ChatID),
			slog.String("alert_id", alert.ID),
			slog.String("alert_kind", string(alert.Kind.Type)),
			slog.String("city", alert.City),
			slog.Int("hours_ahead", alert.HoursAhead),
		)
		return []Reply{text(createdText(alert)), withKeyboard(msgAlerts, alertsMenu(*u))}, nil, nil
	}
	return e.stepLost(ctx, u, fmt.Errorf("%w: %s", domain.ErrUnexpectedStep, step))
}

// stepLost recovers from a conversation record that no longer matches its step.
func (e *Engine) stepLost(ctx context.Context, u *domain.UserData, cause error) ([]Reply, *lookup, error) {
	logger.Warn(ctx, logger.ComponentDialog, "conversation.reset",
		slog.Int64("chat_id", u.ChatID),
		slog.String("step", u.Conversation.Step.String()),
		slog.String("err", cause.Error()),
	)
	u.Conversation.Reset()
	return []Reply{
		text("Sorry, that step has expired. Please start again."),
		withKeyboard(msgChooseAnother, mainMenu()),
	}, nil, nil
}

func (e *Engine) await(ctx context.Context, chatID int64, step domain.Step) ([]Reply, error) {
	u, err := e.mutate(ctx, chatID, func(u *domain.UserData) error {
		return u.Conversation.Await(step)
	})
	if err != nil {
		return nil, err
	}
	return []Reply{prompt(u.Conversation)}, nil
}

func (e *Engine) beginAlert(ctx context.Context, chatID int64, kind domain.Kind) ([]Reply, error) {
	u, err := e.mutate(ctx, chatID, func(u *domain.UserData) error {
		u.Conversation.BeginAlert(kind)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return []Reply{prompt(u.Conversation)}, nil
}

func (e *Engine) homeLookup(ctx context.Context, chatID int64, forecast bool) ([]Reply, error) {
	var home string
	if _, err := e.mutate(ctx, chatID, func(u *domain.UserData) error {
		if u.HasHomeTown() {
			home = u.HomeTown
			return errUnchanged
		}
		return u.Conversation.Await(domain.StepHomeTown)
	}); err != nil {
		return nil, err
	}
	if home == "" {
		return []Reply{withKeyboard("You haven't set a home town yet. Please enter your home town name:", cancelKeyboard())}, nil
	}
	return e.runLookup(ctx, chatID, lookup{
		city:     home,
		forecast: forecast,
		subject:  fmt.Sprintf("your home town '%s'", home),
		after:    []Reply{withKeyboard(msgChooseAnother, mainMenu())},
	}), nil
}

func (e *Engine) removeTown(ctx context.Context, chatID int64, town string) ([]Reply, error) {
	var removed bool
	u, err := e.mutate(ctx, chatID, func(u *domain.UserData) error {
		if removed = u.RemoveTown(town); !removed {
			return errUnchanged
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	var out []Reply
	if removed {
		out = append(out, text(fmt.Sprintf("Removed '%s' from your interested towns", town)))
	}
	return append(out, withKeyboard(msgTowns, townsMenu(u))), nil
}

func (e *Engine) removeAlertPicker(chatID int64) []Reply {
	u := e.users.Get(chatID)
	if len(u.Alerts) == 0 {
		return []Reply{
			text("You don't have any alerts to remove."),
			withKeyboard(msgChooseAnother, mainMenu()),
		}
	}
	return []Reply{withKeyboard("Select an alert to remove:", removeAlertsMenu(u))}
}

func (e *Engine) removeAlert(ctx context.Context, chatID int64, id string) ([]Reply, error) {
	var removed bool
	u, err := e.mutate(ctx, chatID, func(u *domain.UserData) error {
		if removed = u.RemoveAlert(id); !removed {
			return errUnchanged
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	msg := msgAlertNotFound
	if removed {
		msg = "Alert removed successfully!"
	}
	return []Reply{text(msg), withKeyboard(msgAlerts, alertsMenu(u))}, nil
}

func (e *Engine) toggleAlert(ctx context.Context, chatID int64, id string) ([]Reply, error) {
	var (
		found  bool
		active bool
		city   string
	)
	u, err := e.mutate(ctx, chatID, func(u *domain.UserData) error {
		a, err := u.Alert(id)
		if err != nil {
			return errUnchanged
		}
		found, active, city = true, a.Toggle(), a.City
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return []Reply{text(msgAlertNotFound), withKeyboard(msgAlerts, alertsMenu(u))}, nil
	}
	state := "paused ❌"
	if active {
		state = "active ✅"
	}
	return []Reply{
		text(fmt.Sprintf("Alert for '%s' is now %s", city, state)),
		withKeyboard(msgAlerts, alertsMenu(u)),
	}, nil
}

func (e *Engine) checkAlert(ctx context.Context, chatID int64, id string) []Reply {
	u := e.users.Get(chatID)
	alert, err := u.Alert(id)
	if err != nil {
		return []Reply{text(msgAlertNotFound), withKeyboard(msgAlerts, alertsMenu(u))}
	}
	e.showTyping(ctx, chatID)
	cur, err := e.provider.Current(ctx, alert.City)
	if err != nil {
		e.logLookupFailure(ctx, chatID, alert.City, err)
		return []Reply{
			text("❌ " + lookupFailure(quote(alert.City), err)),
			withKeyboard(msgAlerts, alertsMenu(u)),
		}
	}
	return []Reply{{
		Text:     checkStatus(*alert, cur, evaluator.Snapshot(*alert, cur)),
		Keyboard: alertStatusKeyboard(*alert),
		Mode:     ModeHTML,
	}}
}

func (e *Engine) runLookup(ctx context.Context, chatID int64, l lookup) []Reply {
	e.showTyping(ctx, chatID)
	var r Reply
	if l.forecast {
		fc, err := e.provider.Forecast(ctx, l.city, e.days)
		if err != nil {
			e.logLookupFailure(ctx, chatID, l.city, err)
			r = text(lookupFailure(l.subject, err))
		} else {
			r = Reply{Text: weather.FormatForecast(fc), Mode: ModeMarkdownV2}
		}
	} else {
		cur, err := e.provider.Current(ctx, l.city)
		if err != nil {
			e.logLookupFailure(ctx, chatID, l.city, err)
			r = text(lookupFailure(l.subject, err))
		} else {
			r = Reply{Text: weather.FormatCurrent(cur), Mode: ModeMarkdownV2}
		}
	}
	return append([]Reply{r}, l.after...)
}

func (e *Engine) mutate(ctx context.Context, chatID int64, fn func(u *domain.UserData) error) (domain.UserData, error) {
	u, err := e.users.Update(ctx, chatID, fn)
	if errors.Is(err, errUnchanged) {
		return u, nil
	}
	return u, err
}

func (e *Engine) showTyping(ctx context.Context, chatID int64) {
	if e.typing != nil {
		e.typing(ctx, chatID)
	}
}

func (e *Engine) logLookupFailure(ctx context.Context, chatID int64, city string, err error) {
	logger.Warn(ctx, logger.ComponentWeather, "weather.lookup",
		slog.String("status", "fail"),
		slog.Int64("chat_id", chatID),
		slog.String("city", logger.SanitizeLimit(city, 64)),
		slog.String("err", err.Error()),
	)
}

func quote(s string) string { return "'" + s + "'" }
