package conversation

import (
	"math"
	"strconv"
	"strings"

	"github.com/m3rciful/weatherbot/internal/domain"
)

const (
	msgBadTemperature = "Invalid temperature value. Please enter a valid number or 'skip':"
	msgBadHumidity    = "Invalid humidity value. Please enter a valid number (0-100) or 'skip':"
	msgBadWind        = "Invalid wind speed value. Please enter a valid number:"
	msgBadHours       = "Invalid hours value. Please enter a whole number between 1 and 72:"

	skipToken = "skip"
)

var stepPrompts = map[domain.Step]string{
	domain.StepWeatherCity:      "Please enter the name of the city you want to get current weather for:",
	domain.StepForecastCity:     "Please enter the name of the city you want to get forecast for:",
	domain.StepHomeTown:         "Please enter the name of your home town:",
	domain.StepInterestedTown:   "Please enter the name of the town you're interested in:",
	domain.StepAlertTempMin:     "Enter minimum temperature threshold (°C) or type 'skip' to skip:",
	domain.StepAlertTempMax:     "Enter maximum temperature threshold (°C) or type 'skip' to skip:",
	domain.StepAlertWindMax:     "Enter maximum wind speed threshold (km/h):",
	domain.StepAlertHumidityMin: "Enter minimum humidity threshold (%) or type 'skip' to skip:",
	domain.StepAlertHumidityMax: "Enter maximum humidity threshold (%) or type 'skip' to skip:",
	domain.StepAlertHours:       "How many hours ahead should I watch the forecast? Enter a number from 1 to 72:",
}

var cityPrompts = map[domain.KindType]string{
	domain.KindStandard:    "Enter the city name for standard weather alerts:",
	domain.KindTemperature: "Enter the city name for temperature alerts:",
	domain.KindWind:        "Enter the city name for wind speed alerts:",
	domain.KindHumidity:    "Enter the city name for humidity alerts:",
}

// prompt asks for the input the conversation currently awaits.
func prompt(c domain.Conversation) Reply {
	if c.Step == domain.StepAlertCity && c.Pending != nil {
		if p, ok := cityPrompts[c.Pending.Kind.Type]; ok {
			return withKeyboard(p, cancelKeyboard())
		}
	}
	if p, ok := stepPrompts[c.Step]; ok {
		return withKeyboard(p, cancelKeyboard())
	}
	return withKeyboard(msgWelcome, mainMenu())
}

func isSkip(s string) bool { return strings.EqualFold(strings.TrimSpace(s), skipToken) }

// parseOptionalFloat accepts a finite number or "skip" (nil).
func parseOptionalFloat(s string) (*float64, bool) {
	if isSkip(s) {
		return nil, true
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, false
	}
	return &v, true
}

// parseOptionalPercent accepts an integer in [0,100] or "skip" (nil).
func parseOptionalPercent(s string) (*uint32, bool) {
	if isSkip(s) {
		return nil, true
	}
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil || v > 100 {
		return nil, false
	}
	p := uint32(v)
	return &p, true
}
