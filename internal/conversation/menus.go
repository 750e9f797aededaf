package conversation

import (
	"fmt"

	"github.com/m3rciful/weatherbot/internal/domain"
)

const (
	msgWelcome       = "Welcome! Please choose an option:"
	msgChooseAnother = "Choose another option:"
	msgCancelled     = "Operation cancelled. Choose another option:"
	msgTowns         = "Manage your towns:"
	msgAlertsHome    = "🚨 Weather Alerts Management\n\nChoose an option:"
	msgAlerts        = "Weather Alerts Management:"
	msgAlertKinds    = "Choose alert type:"
	msgCurrentMenu   = "Choose current weather option:"
	msgForecastMenu  = "Choose forecast option:"
	msgUnknownButton = "Unknown button."
	msgAlertNotFound = "❌ Alert not found."
	msgIdleHint      = "Please use the menu buttons below. Choose an option:"
)

func mainMenu() [][]Button {
	return [][]Button{
		row(btn("Current weather", ActCurrentMenu.Plain()), btn("Forecast", ActForecastMenu.Plain())),
		row(btn("Interested towns", ActTowns.Plain())),
		row(btn("🚨 Weather Alerts", ActAlertsMenu.Plain())),
	}
}

func currentMenu() [][]Button {
	return [][]Button{
		row(btn("For any city", ActWeatherFor.Plain()), btn("For home", ActWeatherHome.Plain())),
		row(btn("← Back to Main Menu", ActMainMenu.Plain())),
	}
}

func forecastMenu() [][]Button {
	return [][]Button{
		row(btn("For any city", ActForecastFor.Plain()), btn("For home", ActForecastHome.Plain())),
		row(btn("← Back to Main Menu", ActMainMenu.Plain())),
	}
}

func cancelKeyboard() [][]Button {
	return [][]Button{row(btn("Cancel", ActCancel.Plain()))}
}

func townsMenu(u domain.UserData) [][]Button {
	var kb [][]Button
	if u.HasHomeTown() {
		kb = append(kb,
			row(btn(fmt.Sprintf("🏠 Home: %s (View Weather)", u.HomeTown), ActViewHome.Plain())),
			row(btn("🔄 Change Home Town", ActSetHomeTown.Plain())),
		)
	} else {
		kb = append(kb, row(btn("🏠 Set Home Town", ActSetHomeTown.Plain())))
	}
	if len(u.InterestedTowns) > 0 {
		kb = append(kb, row(btn("--- 🌍 Interested Towns ---", ActNoop.Plain())))
		for _, t := range u.InterestedTowns {
			kb = append(kb, row(btn("🌍 "+t, ActTown.WithArg(t))))
		}
	}
	kb = append(kb, row(btn("➕ Add Interested Town", ActAddTown.Plain())))
	if len(u.InterestedTowns) > 0 {
		kb = append(kb, row(btn("🗑️ Remove Interested Town", ActRemoveTownPicker.Plain())))
	}
	return append(kb, row(btn("← Back to Main Menu", ActMainMenu.Plain())))
}

func removeTownsMenu(u domain.UserData) [][]Button {
	var kb [][]Button
	if len(u.InterestedTowns) > 0 {
		kb = append(kb, row(btn("--- 🗑️ Select Town to Remove ---", ActNoop.Plain())))
		for _, t := range u.InterestedTowns {
			kb = append(kb, row(btn("🌍 "+t, ActRemoveTown.WithArg(t))))
		}
	}
	return append(kb, row(btn("← Back to Interested Towns", ActTownsBack.Plain())))
}

func alertsMenu(u domain.UserData) [][]Button {
	var kb [][]Button
	if len(u.Alerts) > 0 {
		kb = append(kb, row(btn("--- 🚨 Your Weather Alerts ---", ActNoop.Plain())))
		for _, a := range u.Alerts {
			label := fmt.Sprintf("%s %s - %s %s", a.Kind.Emoji(), a.City, a.Kind.Label(), activeMark(a.Active))
			kb = append(kb, row(btn(label, ActCheckAlert.WithArg(a.ID))))
		}
	}
	kb = append(kb, row(btn("➕ Add Alert", ActAddAlert.Plain())))
	if len(u.Alerts) > 0 {
		kb = append(kb, row(btn("🗑️ Remove Alert", ActRemoveAlert.Plain())))
	}
	return append(kb, row(btn("← Back to Main Menu", ActMainMenu.Plain())))
}

func alertKindsMenu() [][]Button {
	return [][]Button{
		row(btn("🚨 Standard Weather Alert", ActAddStandard.Plain())),
		row(btn("🌡️ Temperature Alert", ActAddTemperature.Plain())),
		row(btn("💨 Wind Speed Alert", ActAddWind.Plain())),
		row(btn("💧 Humidity Alert", ActAddHumidity.Plain())),
		row(btn("← Back to Alerts Menu", ActAlertsMenu.Plain())),
	}
}

func removeAlertsMenu(u domain.UserData) [][]Button {
	var kb [][]Button
	if len(u.Alerts) > 0 {
		kb = append(kb, row(btn("--- 🗑️ Select Alert to Remove ---", ActNoop.Plain())))
		for _, a := range u.Alerts {
			state := "Inactive"
			if a.Active {
				state = "Active"
			}
			label := fmt.Sprintf("%s %s - %s (%s)", a.Kind.Emoji(), a.Kind.Label(), a.City, state)
			kb = append(kb, row(btn(label, ActRemoveAlert.WithArg(a.ID))))
		}
	}
	return append(kb, row(btn("← Back to Alerts Menu", ActAlertsMenu.Plain())))
}

func alertStatusKeyboard(a domain.Alert) [][]Button {
	toggle := btn("⏸ Pause Alert", ActToggleAlert.WithArg(a.ID))
	if !a.Active {
		toggle = btn("▶️ Resume Alert", ActToggleAlert.WithArg(a.ID))
	}
	return [][]Button{
		row(toggle, btn("🗑️ Remove", ActRemoveAlert.WithArg(a.ID))),
		row(btn("← Back to Alerts Menu", ActAlertsMenu.Plain())),
	}
}

func activeMark(active bool) string {
	if active {
		return "✅"
	}
	return "❌"
}
