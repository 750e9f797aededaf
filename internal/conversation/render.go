package conversation

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/m3rciful/weatherbot/internal/domain"
	"github.com/m3rciful/weatherbot/internal/weather"
)

const timeLayout = "2006-01-02 15:04"

// lookupFailure turns a provider error into a message safe to show users.
func lookupFailure(subject string, err error) string {
	if errors.Is(err, weather.ErrLocationNotFound) {
		return fmt.Sprintf("Sorry, I couldn't find %s. Please check the city name and try again.", subject)
	}
	return fmt.Sprintf("Sorry, I couldn't get the weather for %s right now. Please try again later.", subject)
}

func createdText(a domain.Alert) string {
	var what string
	switch a.Kind.Type {
	case domain.KindStandard:
		what = "Standard weather alert"
	case domain.KindTemperature:
		what = "Temperature alert"
	case domain.KindWind:
		what = "Wind speed alert"
	case domain.KindHumidity:
		what = "Humidity alert"
	default:
		what = "Alert"
	}
	return fmt.Sprintf("✅ %s created for '%s'!", what, a.City)
}

func alertTitle(k domain.Kind) string {
	switch k.Type {
	case domain.KindStandard:
		return "🚨 Standard Weather Alert"
	case domain.KindTemperature:
		return "🌡️ Temperature Alert (" + k.Range() + ")"
	case domain.KindWind:
		return "💨 Wind Speed Alert (" + k.Range() + ")"
	case domain.KindHumidity:
		return "💧 Humidity Alert (" + k.Range() + ")"
	}
	return "Alert"
}

// checkStatus renders the on-demand alert status as Telegram HTML.
func checkStatus(a domain.Alert, cur weather.Current, triggered bool) string {
	emoji, status := "✅", "All Good"
	if triggered {
		emoji, status = "🚨", "ALERT TRIGGERED!"
	}
	esc := html.EscapeString
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>%s</b>\n\n%s\n\n", emoji, status, esc(alertTitle(a.Kind)))
	fmt.Fprintf(&b, "📍 <b>City:</b> %s\n📝 <b>Description:</b> %s\n", esc(cur.Location.Name), esc(a.Description))
	fmt.Fprintf(&b, "⏰ <b>Forecast window:</b> %dh ahead\n", a.HoursAhead)
	if !a.Active {
		b.WriteString("⏸ <b>Paused</b>\n")
	}
	fmt.Fprintf(&b, "\n<b>Current Weather:</b>\n🌡️ Temperature: %s°C\n☁️ Condition: %s\n💨 Wind: %s km/h\n💧 Humidity: %d%%\n\n",
		strconv.FormatFloat(cur.TempC, 'f', -1, 64), esc(cur.Condition),
		strconv.FormatFloat(cur.WindKPH, 'f', -1, 64), cur.Humidity)
	fmt.Fprintf(&b, "⏰ Created: %s\n", a.CreatedAt.UTC().Format(timeLayout))
	if a.LastTriggered != nil {
		fmt.Fprintf(&b, "🔔 Last triggered: %s", a.LastTriggered.UTC().Format(timeLayout))
	} else {
		b.WriteString("🔔 Never triggered")
	}
	return b.String()
}

func helpText() string {
	return "These commands are supported:\n" +
		"/start - Start the bot.\n" +
		"/help - Display this text."
}
