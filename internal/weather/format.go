package weather

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/weatherbot/core/telegram/format"
)

const credits = "\\-\\-\\-\nWeather data provided by:\n• [WeatherAPI\\.com](https://weatherapi.com)"

func num(v float64) string { return format.EscapeV2(strconv.FormatFloat(v, 'f', -1, 64)) }

// FormatCurrent renders a current observation as MarkdownV2.
func FormatCurrent(c Current) string {
	esc := format.EscapeV2
	return fmt.Sprintf("🌍 *%s*, %s, %s\n"+
		"🌡️ *Temperature:* %s°C \\(feels like %s°C\\)\n"+
		"☁️ *Condition:* %s\n"+
		"💨 *Wind:* %s km/h %s\n"+
		"💧 *Humidity:* %d%%\n\n%s",
		esc(c.Location.Name), esc(c.Location.Region), esc(c.Location.Country),
		num(c.TempC), num(c.FeelsLikeC),
		esc(c.Condition),
		num(c.WindKPH), esc(c.WindDir),
		c.Humidity,
		credits)
}

// FormatForecast renders a daily forecast as MarkdownV2.
func FormatForecast(f Forecast) string {
	esc := format.EscapeV2
	var b strings.Builder
	fmt.Fprintf(&b, "📅 *%d\\-Day Forecast for %s*, %s, %s\n\n",
		len(f.Days), esc(f.Location.Name), esc(f.Location.Region), esc(f.Location.Country))
	for _, d := range f.Days {
		fmt.Fprintf(&b, "📆 *%s*\n🌡️ %s°C \\- %s°C \\| ☁️ %s \\| 💧 %s%% \\| 💨 %s km/h\n\n",
			esc(d.Date), num(d.MinTempC), num(d.MaxTempC), esc(d.Condition), num(d.AvgHumidity), num(d.MaxWindKPH))
	}
	b.WriteString(credits)
	return b.String()
}
