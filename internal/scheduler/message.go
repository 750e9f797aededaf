package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/weatherbot/internal/domain"
	"github.com/m3rciful/weatherbot/internal/weather"
)

// Message renders the plain-text notification for a triggered alert.
func Message(a domain.Alert, cur weather.Current, at time.Time) string {
	city := cur.Location.Name
	if city == "" {
		city = a.City
	}
	var b strings.Builder
	b.WriteString("⚠️ WEATHER ALERT ⚠️\n\n")
	b.WriteString(headline(a.Kind))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "🏠 City: %s\n", city)
	fmt.Fprintf(&b, "📝 Description: %s\n", a.Description)
	fmt.Fprintf(&b, "⏰ Warning ahead: %d hours\n\n", a.HoursAhead)
	fmt.Fprintf(&b, "🌡️ Current temperature: %s°C\n", num(cur.TempC))
	fmt.Fprintf(&b, "☁️ Conditions: %s\n", cur.Condition)
	fmt.Fprintf(&b, "💨 Wind: %s km/h\n", num(cur.WindKPH))
	fmt.Fprintf(&b, "💧 Humidity: %d%%\n\n", cur.Humidity)
	fmt.Fprintf(&b, "🕐 Triggered at: %s UTC", at.UTC().Format("2006-01-02 15:04"))
	return b.String()
}

func headline(k domain.Kind) string {
	switch k.Type {
	case domain.KindTemperature:
		return "🌡️ Temperature threshold exceeded"
	case domain.KindWind:
		return "💨 Strong wind"
	case domain.KindHumidity:
		return "💧 Critical humidity level"
	default:
		return "🚨 Extreme weather conditions"
	}
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }
