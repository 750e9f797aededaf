// Package evaluator decides whether an alert fires for a given weather reading.
// Evaluation is pure: no I/O and no mutation of the alert.
package evaluator

import (
	"strings"

	"github.com/m3rciful/weatherbot/internal/domain"
	"github.com/m3rciful/weatherbot/internal/weather"
)

const (
	extremeHeatC   = 40.0
	extremeColdC   = -20.0
	extremeWindKPH = 50.0
)

var severeKeywords = []string{
	"thunderstorm", "storm", "tornado", "hurricane", "cyclone",
	"blizzard", "hail", "snow", "ice", "freeze", "freezing",
	"extreme", "severe", "heavy", "violent", "dangerous",
}

// SevereCondition reports whether a condition text contains a severe keyword.
func SevereCondition(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range severeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// DayIndex maps an hours-ahead horizon onto a daily forecast index.
func DayIndex(hours int) int {
	switch {
	case hours <= 24:
		return 0
	case hours <= 48:
		return 1
	default:
		return 2
	}
}

// Snapshot evaluates alert against a current observation.
func Snapshot(alert domain.Alert, cur weather.Current) bool {
	k := alert.Kind
	switch k.Type {
	case domain.KindStandard:
		return SevereCondition(cur.Condition) ||
			cur.TempC > extremeHeatC || cur.TempC < extremeColdC ||
			cur.WindKPH > extremeWindKPH
	case domain.KindTemperature:
		return outsideFloat(cur.TempC, cur.TempC, k.TempMin, k.TempMax)
	case domain.KindWind:
		return cur.WindKPH > k.WindMax
	case domain.KindHumidity:
		return outsideUint(humidity(float64(cur.Humidity)), k.HumidityMin, k.HumidityMax)
	}
	return false
}

// Forecast evaluates alert against the forecast day selected by HoursAhead.
// A forecast without that day never fires.
func Forecast(alert domain.Alert, fc weather.Forecast) bool {
	day, ok := fc.Day(DayIndex(alert.HoursAhead))
	if !ok {
		return false
	}
	k := alert.Kind
	switch k.Type {
	case domain.KindStandard:
		return SevereCondition(day.Condition) ||
			day.MaxTempC > extremeHeatC || day.MinTempC < extremeColdC ||
			day.MaxWindKPH > extremeWindKPH
	case domain.KindTemperature:
		return outsideFloat(day.MinTempC, day.MaxTempC, k.TempMin, k.TempMax)
	case domain.KindWind:
		return day.MaxWindKPH > k.WindMax
	case domain.KindHumidity:
		return outsideUint(humidity(day.AvgHumidity), k.HumidityMin, k.HumidityMax)
	}
	return false
}

// outsideFloat compares low against min and high against max.
func outsideFloat(low, high float64, min, max *float64) bool {
	return (min != nil && low < *min) || (max != nil && high > *max)
}

func outsideUint(v uint32, min, max *uint32) bool {
	return (min != nil && v < *min) || (max != nil && v > *max)
}

// humidity truncates a percentage towards zero, clamping negatives to 0.
func humidity(v float64) uint32 {
	if v <= 0 {
		return 0
	}
	return uint32(v)
}
