package conversation

import "strings"

// ActionKind names a button action. Kinds double as the telebot callback
// "unique" value, so they stay short and free of '|'.
type ActionKind string

const (
	ActNoop             ActionKind = "noop"
	ActCancel           ActionKind = "cancel"
	ActMainMenu         ActionKind = "back_to_main"
	ActCurrentMenu      ActionKind = "current_weather_menu"
	ActForecastMenu     ActionKind = "forecast_menu"
	ActWeatherFor       ActionKind = "get_weather_for"
	ActWeatherHome      ActionKind = "get_weather_home"
	ActForecastFor      ActionKind = "get_forecast_for"
	ActForecastHome     ActionKind = "get_forecast_home"
	ActTowns            ActionKind = "my_towns"
	ActTownsBack        ActionKind = "back_to_interested_towns"
	ActSetHomeTown      ActionKind = "set_home_town"
	ActViewHome         ActionKind = "view_home_weather"
	ActAddTown          ActionKind = "add_interested_town"
	ActRemoveTownPicker ActionKind = "remove_interested_town"
	ActTown             ActionKind = "town"
	ActRemoveTown       ActionKind = "remove_town"
	ActAlertsMenu       ActionKind = "alerts_menu"
	ActAddAlert         ActionKind = "add_alert"
	ActAddStandard      ActionKind = "add_standard_alert"
	ActAddTemperature   ActionKind = "add_temperature_alert"
	ActAddWind          ActionKind = "add_wind_alert"
	ActAddHumidity      ActionKind = "add_humidity_alert"
	ActRemoveAlert      ActionKind = "remove_alert"
	ActCheckAlert       ActionKind = "check_alert"
	ActToggleAlert      ActionKind = "toggle_alert"
	ActUnknown          ActionKind = "unknown"
)

// Action is a parsed button press. Arg carries the town name or alert id for
// the parameterized kinds and is verbatim, underscores included.
type Action struct {
	Kind ActionKind
	Arg  string
}

var plainKinds = map[ActionKind]struct{}{
	ActNoop: {}, ActCancel: {}, ActMainMenu: {}, ActCurrentMenu: {}, ActForecastMenu: {},
	ActWeatherFor: {}, ActWeatherHome: {}, ActForecastFor: {}, ActForecastHome: {},
	ActTowns: {}, ActTownsBack: {}, ActSetHomeTown: {}, ActViewHome: {}, ActAddTown: {},
	ActRemoveTownPicker: {}, ActAlertsMenu: {}, ActAddAlert: {}, ActAddStandard: {},
	ActAddTemperature: {}, ActAddWind: {}, ActAddHumidity: {}, ActRemoveAlert: {},
}

// parameterized kinds in match order; the legacy flat token is kind + "_" + arg.
var argKinds = []ActionKind{ActRemoveTown, ActRemoveAlert, ActCheckAlert, ActToggleAlert, ActTown}

// Kinds lists every dispatchable kind, for registering callback routes.
func Kinds() []ActionKind {
	out := make([]ActionKind, 0, len(plainKinds)+len(argKinds))
	for k := range plainKinds {
		out = append(out, k)
	}
	for _, k := range argKinds {
		if _, dup := plainKinds[k]; !dup {
			out = append(out, k)
		}
	}
	return out
}

// ParseAction decodes a flat callback token such as "my_towns" or
// "remove_town_New_York". Anything unrecognised yields ActUnknown.
func ParseAction(token string) Action {
	token = strings.TrimSpace(token)
	if _, ok := plainKinds[ActionKind(token)]; ok {
		return Action{Kind: ActionKind(token)}
	}
	for _, k := range argKinds {
		prefix := string(k) + "_"
		if rest, ok := strings.CutPrefix(token, prefix); ok && rest != "" {
			return Action{Kind: k, Arg: rest}
		}
	}
	return Action{Kind: ActUnknown, Arg: token}
}

// Token encodes the action in the flat legacy form understood by ParseAction.
func (a Action) Token() string {
	if a.Arg == "" {
		return string(a.Kind)
	}
	return string(a.Kind) + "_" + a.Arg
}

// WithArg builds a parameterized action.
func (k ActionKind) WithArg(arg string) Action { return Action{Kind: k, Arg: arg} }

// Plain builds an action without argument.
func (k ActionKind) Plain() Action { return Action{Kind: k} }
