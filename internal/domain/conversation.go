package domain

import (
	"errors"
	"fmt"
)

// ErrUnexpectedStep is returned when a transition is applied in the wrong step.
var ErrUnexpectedStep = errors.New("conversation: unexpected step")

// Step identifies which input the conversation is waiting for. A chat is in
// exactly one step at a time; StepIdle means nothing is awaited.
type Step int

const (
	StepIdle Step = iota
	StepWeatherCity
	StepForecastCity
	StepHomeTown
	StepInterestedTown
	StepAlertCity
	StepAlertTempMin
	StepAlertTempMax
	StepAlertWindMax
	StepAlertHumidityMin
	StepAlertHumidityMax
	StepAlertHours
)

var stepNames = map[Step]string{
	StepIdle:             "idle",
	StepWeatherCity:      "weather_city",
	StepForecastCity:     "forecast_city",
	StepHomeTown:         "home_town",
	StepInterestedTown:   "interested_town",
	StepAlertCity:        "alert_city",
	StepAlertTempMin:     "alert_temp_min",
	StepAlertTempMax:     "alert_temp_max",
	StepAlertWindMax:     "alert_wind_max",
	StepAlertHumidityMin: "alert_humidity_min",
	StepAlertHumidityMax: "alert_humidity_max",
	StepAlertHours:       "alert_hours",
}

// Steps lists every step, idle first.
func Steps() []Step {
	out := make([]Step, 0, len(stepNames))
	for s := StepIdle; s <= StepAlertHours; s++ {
		out = append(out, s)
	}
	return out
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Awaiting reports whether the step expects free-text input.
func (s Step) Awaiting() bool { return s != StepIdle }

// AlertPipeline reports whether the step belongs to alert creation.
func (s Step) AlertPipeline() bool { return s >= StepAlertCity && s <= StepAlertHours }

// MarshalText keeps persisted steps readable and stable across reorderings.
func (s Step) MarshalText() ([]byte, error) {
	name, ok := stepNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown step %d", int(s))
	}
	return []byte(name), nil
}

func (s *Step) UnmarshalText(b []byte) error {
	for st, name := range stepNames {
		if name == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown step %q", string(b))
}

// PendingAlert holds the answers collected while an alert is being built.
type PendingAlert struct {
	City  string `json:"city,omitempty"`
	Kind  Kind   `json:"kind"`
	Hours int    `json:"hours,omitempty"`
}

// Conversation is the per-chat dialogue state. Pending is non-nil only while
// the step is part of the alert pipeline.
type Conversation struct {
	Step    Step          `json:"step"`
	Pending *PendingAlert `json:"pending,omitempty"`
}

// Reset returns to idle and drops all pending alert answers.
func (c *Conversation) Reset() {
	c.Step = StepIdle
	c.Pending = nil
}

// Await switches to a free-text step outside the alert pipeline.
func (c *Conversation) Await(step Step) error {
	if step.AlertPipeline() {
		return fmt.Errorf("%w: %s requires BeginAlert", ErrUnexpectedStep, step)
	}
	c.Step = step
	c.Pending = nil
	return nil
}

// BeginAlert starts alert creation for the given kind.
func (c *Conversation) BeginAlert(kind Kind) {
	c.Step = StepAlertCity
	c.Pending = &PendingAlert{Kind: kind.clone()}
}

// SetAlertCity records the city and advances to the first kind-specific step.
func (c *Conversation) SetAlertCity(city string) (Step, error) {
	if err := c.expect(StepAlertCity); err != nil {
		return c.Step, err
	}
	c.Pending.City = city
	switch c.Pending.Kind.Type {
	case KindStandard:
		c.Step = StepAlertHours
	case KindTemperature:
		c.Step = StepAlertTempMin
	case KindWind:
		c.Step = StepAlertWindMax
	case KindHumidity:
		c.Step = StepAlertHumidityMin
	default:
		kind := c.Pending.Kind.Type
		c.Reset()
		return StepIdle, fmt.Errorf("unknown alert kind %q", kind)
	}
	return c.Step, nil
}

func (c *Conversation) SetTempMin(v *float64) error {
	if err := c.expect(StepAlertTempMin); err != nil {
		return err
	}
	c.Pending.Kind.TempMin = copyFloat(v)
	c.Step = StepAlertTempMax
	return nil
}

func (c *Conversation) SetTempMax(v *float64) error {
	if err := c.expect(StepAlertTempMax); err != nil {
		return err
	}
	c.Pending.Kind.TempMax = copyFloat(v)
	c.Step = StepAlertHours
	return nil
}

func (c *Conversation) SetWindMax(v float64) error {
	if err := c.expect(StepAlertWindMax); err != nil {
		return err
	}
	c.Pending.Kind.WindMax = v
	c.Step = StepAlertHours
	return nil
}

func (c *Conversation) SetHumidityMin(v *uint32) error {
	if err := c.expect(StepAlertHumidityMin); err != nil {
		return err
	}
	c.Pending.Kind.HumidityMin = copyUint(v)
	c.Step = StepAlertHumidityMax
	return nil
}

func (c *Conversation) SetHumidityMax(v *uint32) error {
	if err := c.expect(StepAlertHumidityMax); err != nil {
		return err
	}
	c.Pending.Kind.HumidityMax = copyUint(v)
	c.Step = StepAlertHours
	return nil
}

// Commit validates hours, builds the alert and resets the conversation.
// On a validation error the step is left unchanged so the user can retry.
func (c *Conversation) Commit(hours int) (Alert, error) {
	if err := c.expect(StepAlertHours); err != nil {
		return Alert{}, err
	}
	if err := ValidateHours(hours); err != nil {
		return Alert{}, err
	}
	c.Pending.Hours = hours
	alert, err := NewAlert(c.Pending.City, c.Pending.Kind, c.Pending.Hours)
	if err != nil {
		return Alert{}, err
	}
	c.Reset()
	return alert, nil
}

func (c *Conversation) expect(step Step) error {
	if c.Step != step || c.Pending == nil {
		return fmt.Errorf("%w: in %s, want %s", ErrUnexpectedStep, c.Step, step)
	}
	return nil
}

func (c Conversation) clone() Conversation {
	if c.Pending != nil {
		p := *c.Pending
		p.Kind = p.Kind.clone()
		c.Pending = &p
	}
	return c
}
