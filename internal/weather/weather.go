// Package weather defines the provider-neutral weather data used by the bot.
package weather

import (
	"context"
	"errors"
)

// ErrLocationNotFound is returned when the provider cannot resolve a city.
var ErrLocationNotFound = errors.New("location not found")

type Location struct {
	Name      string
	Region    string
	Country   string
	LocalTime string
}

// Current is a point-in-time observation.
type Current struct {
	Location   Location
	TempC      float64
	FeelsLikeC float64
	WindKPH    float64
	WindDir    string
	Humidity   int
	Condition  string
}

// Day is one forecast day; index 0 is today in the location's timezone.
type Day struct {
	Date        string
	MaxTempC    float64
	MinTempC    float64
	AvgHumidity float64
	MaxWindKPH  float64
	Condition   string
}

type Forecast struct {
	Location Location
	Days     []Day
}

// Day returns the forecast day at index i.
func (f Forecast) Day(i int) (Day, bool) {
	if i < 0 || i >= len(f.Days) {
		return Day{}, false
	}
	return f.Days[i], true
}

// Provider fetches weather data by free-form city name.
type Provider interface {
	Current(ctx context.Context, city string) (Current, error)
	Forecast(ctx context.Context, city string, days int) (Forecast, error)
}
