package domain

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	// MinHoursAhead is the shortest forecast horizon an alert may look at.
	MinHoursAhead = 1
	// MaxHoursAhead is the longest forecast horizon an alert may look at.
	MaxHoursAhead = 72
)

// ErrHoursOutOfRange is returned when an alert horizon falls outside [1,72].
var ErrHoursOutOfRange = errors.New("hours ahead must be between 1 and 72")

var validate = validator.New()

// KindType names the alert variant.
type KindType string

const (
	KindStandard    KindType = "standard"
	KindTemperature KindType = "temperature"
	KindWind        KindType = "wind"
	KindHumidity    KindType = "humidity"
)

// Kind is the trigger condition of an alert. Only the fields that belong to
// Type are meaningful; nil bounds are unbounded on that side.
type Kind struct {
	Type        KindType `json:"type"`
	TempMin     *float64 `json:"temp_min,omitempty"`
	TempMax     *float64 `json:"temp_max,omitempty"`
	WindMax     float64  `json:"wind_max,omitempty"`
	HumidityMin *uint32  `json:"humidity_min,omitempty"`
	HumidityMax *uint32  `json:"humidity_max,omitempty"`
}

func StandardKind() Kind { return Kind{Type: KindStandard} }

func TemperatureKind(min, max *float64) Kind {
	return Kind{Type: KindTemperature, TempMin: copyFloat(min), TempMax: copyFloat(max)}
}

func WindKind(max float64) Kind { return Kind{Type: KindWind, WindMax: max} }

func HumidityKind(min, max *uint32) Kind {
	return Kind{Type: KindHumidity, HumidityMin: copyUint(min), HumidityMax: copyUint(max)}
}

// Label is the short human name of the kind.
func (k Kind) Label() string {
	switch k.Type {
	case KindStandard:
		return "Standard"
	case KindTemperature:
		return "Temperature"
	case KindWind:
		return "Wind"
	case KindHumidity:
		return "Humidity"
	}
	return "Unknown"
}

// Emoji is the icon shown next to the kind in menus.
func (k Kind) Emoji() string {
	switch k.Type {
	case KindStandard:
		return "🚨"
	case KindTemperature:
		return "🌡️"
	case KindWind:
		return "💨"
	case KindHumidity:
		return "💧"
	}
	return "❔"
}

// Range renders the configured bounds, e.g. "10°C - 30°C" or "max 40 km/h".
func (k Kind) Range() string {
	switch k.Type {
	case KindTemperature:
		return boundsText(fmtFloat(k.TempMin), fmtFloat(k.TempMax), "°C", "Temperature")
	case KindWind:
		return "max " + strconv.FormatFloat(k.WindMax, 'f', -1, 64) + " km/h"
	case KindHumidity:
		return boundsText(fmtUint(k.HumidityMin), fmtUint(k.HumidityMax), "%", "Humidity")
	}
	return ""
}

func (k Kind) clone() Kind {
	k.TempMin = copyFloat(k.TempMin)
	k.TempMax = copyFloat(k.TempMax)
	k.HumidityMin = copyUint(k.HumidityMin)
	k.HumidityMax = copyUint(k.HumidityMax)
	return k
}

// Alert is a persistent per-chat rule evaluated against forecast data.
type Alert struct {
	ID            string     `json:"id"`
	City          string     `json:"city"`
	Kind          Kind       `json:"kind"`
	HoursAhead    int        `json:"hours_ahead"`
	Active        bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	LastTriggered *time.Time `json:"last_triggered,omitempty"`
	Description   string     `json:"description"`
}

// NewStandardAlert builds an alert for severe weather keywords and extremes.
func NewStandardAlert(city string, hours int) (Alert, error) {
	return newAlert(city, StandardKind(), hours,
		fmt.Sprintf("Standard weather alerts for %s (%dh ahead)", city, hours))
}

// NewTemperatureAlert builds an alert that fires outside [min, max].
func NewTemperatureAlert(city string, min, max *float64, hours int) (Alert, error) {
	var desc string
	switch {
	case min != nil && max != nil:
		desc = fmt.Sprintf("Temperature outside %s°C - %s°C in %s (%dh ahead)", fmtFloat(min), fmtFloat(max), city, hours)
	case min != nil:
		desc = fmt.Sprintf("Temperature below %s°C in %s (%dh ahead)", fmtFloat(min), city, hours)
	case max != nil:
		desc = fmt.Sprintf("Temperature above %s°C in %s (%dh ahead)", fmtFloat(max), city, hours)
	default:
		desc = fmt.Sprintf("Temperature monitoring in %s (%dh ahead)", city, hours)
	}
	return newAlert(city, TemperatureKind(min, max), hours, desc)
}

// NewWindAlert builds an alert that fires when wind exceeds max km/h.
func NewWindAlert(city string, max float64, hours int) (Alert, error) {
	return newAlert(city, WindKind(max), hours,
		fmt.Sprintf("Wind speed above %s km/h in %s (%dh ahead)", strconv.FormatFloat(max, 'f', -1, 64), city, hours))
}

// NewHumidityAlert builds an alert that fires outside [min, max] percent.
func NewHumidityAlert(city string, min, max *uint32, hours int) (Alert, error) {
	var desc string
	switch {
	case min != nil && max != nil:
		desc = fmt.Sprintf("Humidity outside %d%% - %d%% in %s (%dh ahead)", *min, *max, city, hours)
	case min != nil:
		desc = fmt.Sprintf("Humidity below %d%% in %s (%dh ahead)", *min, city, hours)
	case max != nil:
		desc = fmt.Sprintf("Humidity above %d%% in %s (%dh ahead)", *max, city, hours)
	default:
		desc = fmt.Sprintf("Humidity monitoring in %s (%dh ahead)", city, hours)
	}
	return newAlert(city, HumidityKind(min, max), hours, desc)
}

// NewAlert dispatches to the constructor matching kind.Type.
func NewAlert(city string, kind Kind, hours int) (Alert, error) {
	switch kind.Type {
	case KindStandard:
		return NewStandardAlert(city, hours)
	case KindTemperature:
		return NewTemperatureAlert(city, kind.TempMin, kind.TempMax, hours)
	case KindWind:
		return NewWindAlert(city, kind.WindMax, hours)
	case KindHumidity:
		return NewHumidityAlert(city, kind.HumidityMin, kind.HumidityMax, hours)
	}
	return Alert{}, fmt.Errorf("unknown alert kind %q", kind.Type)
}

// ValidateHours reports ErrHoursOutOfRange unless hours is within [1,72].
func ValidateHours(hours int) error {
	if err := validate.Var(hours, fmt.Sprintf("min=%d,max=%d", MinHoursAhead, MaxHoursAhead)); err != nil {
		return fmt.Errorf("%w: got %d", ErrHoursOutOfRange, hours)
	}
	return nil
}

func newAlert(city string, kind Kind, hours int, desc string) (Alert, error) {
	if err := ValidateHours(hours); err != nil {
		return Alert{}, err
	}
	return Alert{
		ID:          uuid.NewString(),
		City:        city,
		Kind:        kind,
		HoursAhead:  hours,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
		Description: desc,
	}, nil
}

// InCooldown reports whether the alert fired less than cooldown ago.
func (a Alert) InCooldown(now time.Time, cooldown time.Duration) bool {
	if a.LastTriggered == nil {
		return false
	}
	return now.Sub(*a.LastTriggered) <= cooldown
}

// Clone returns a deep copy.
func (a Alert) Clone() Alert {
	a.Kind = a.Kind.clone()
	if a.LastTriggered != nil {
		t := *a.LastTriggered
		a.LastTriggered = &t
	}
	return a
}

func boundsText(min, max, unit, none string) string {
	switch {
	case min != "" && max != "":
		return min + unit + " - " + max + unit
	case min != "":
		return "min " + min + unit
	case max != "":
		return "max " + max + unit
	}
	return none
}

func fmtFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func fmtUint(v *uint32) string {
	if v == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*v), 10)
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyUint(v *uint32) *uint32 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Toggle flips the active flag and returns the new value.
func (a *Alert) Toggle() bool {
	a.Active = !a.Active
	return a.Active
}
